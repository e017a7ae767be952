package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	tmodel "trainingku_backend/internals/features/templates/model"
)

// GormTemplateReader membaca tabel template (milik modul template) menjadi TemplateStructure.
type GormTemplateReader struct {
	DB *gorm.DB
}

func NewGormTemplateReader(db *gorm.DB) *GormTemplateReader {
	return &GormTemplateReader{DB: db}
}

func (r *GormTemplateReader) GetStructure(ctx context.Context, templateID uuid.UUID) (*tmodel.TemplateStructure, error) {
	db := r.DB.WithContext(ctx)

	var tmpl tmodel.TemplateFormModel
	if err := db.Where("template_form_id = ?", templateID).Take(&tmpl).Error; err != nil {
		return nil, classify(err)
	}

	var sections []tmodel.TemplateSectionModel
	if err := db.
		Where("template_section_template_id = ?", templateID).
		Order("template_section_display_order ASC, template_section_id ASC").
		Find(&sections).Error; err != nil {
		return nil, classify(err)
	}

	out := &tmodel.TemplateStructure{Template: tmpl}
	if len(sections) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(sections))
	for i, s := range sections {
		ids[i] = s.TemplateSectionID
	}
	var fields []tmodel.TemplateFieldModel
	if err := db.
		Where("template_field_section_id IN ?", ids).
		Order("template_field_display_order ASC, template_field_id ASC").
		Find(&fields).Error; err != nil {
		return nil, classify(err)
	}

	bySection := make(map[uuid.UUID][]tmodel.TemplateFieldModel, len(sections))
	for _, f := range fields {
		bySection[f.TemplateFieldSectionID] = append(bySection[f.TemplateFieldSectionID], f)
	}
	for _, s := range sections {
		out.Sections = append(out.Sections, tmodel.SectionStructure{
			Section: s,
			Fields:  bySection[s.TemplateSectionID],
		})
	}
	return out, nil
}

// GetPublishedStructure: template yang tidak PUBLISHED dianggap tidak ada.
func (r *GormTemplateReader) GetPublishedStructure(ctx context.Context, templateID uuid.UUID) (*tmodel.TemplateStructure, error) {
	st, err := r.GetStructure(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if st.Template.TemplateFormStatus != tmodel.TemplateStatusPublished {
		return nil, ErrNotFound
	}
	return st, nil
}
