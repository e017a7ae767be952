// file: internals/features/templates/model/template_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

/*
   Template tables are owned by the template module (DOCX upload & parsing).
   The assessment core only reads them; nothing here is ever written by assessments.
*/

type TemplateStatus string

const (
	TemplateStatusDraft     TemplateStatus = "DRAFT"
	TemplateStatusPending   TemplateStatus = "PENDING"
	TemplateStatusPublished TemplateStatus = "PUBLISHED"
	TemplateStatusDisabled  TemplateStatus = "DISABLED"
)

type EditBy string

const (
	EditByTrainer EditBy = "TRAINER"
	EditByTrainee EditBy = "TRAINEE"
)

type FieldType string

const (
	FieldTypeText           FieldType = "TEXT"
	FieldTypeNumber         FieldType = "NUMBER"
	FieldTypeToggle         FieldType = "TOGGLE"
	FieldTypePart           FieldType = "PART"
	FieldTypeSectionControl FieldType = "SECTION_CONTROL_TOGGLE"
	FieldTypeValueList      FieldType = "VALUE_LIST"
	FieldTypeSignatureDraw  FieldType = "SIGNATURE_DRAW"
	FieldTypeSignatureImg   FieldType = "SIGNATURE_IMG"
	FieldTypeFinalScoreNum  FieldType = "FINAL_SCORE_NUM"
	FieldTypeFinalScoreText FieldType = "FINAL_SCORE_TEXT"
)

type TemplateFormModel struct {
	TemplateFormID           uuid.UUID      `gorm:"type:uuid;primaryKey;column:template_form_id" json:"template_form_id"`
	TemplateFormName         string         `gorm:"type:varchar(255);not null;column:template_form_name" json:"template_form_name"`
	TemplateFormDepartmentID uuid.UUID      `gorm:"type:uuid;not null;column:template_form_department_id" json:"template_form_department_id"`
	TemplateFormStatus       TemplateStatus `gorm:"type:varchar(24);not null;column:template_form_status" json:"template_form_status"`
	TemplateFormVersion      int            `gorm:"not null;default:1;column:template_form_version" json:"template_form_version"`
	TemplateFormCreatedAt    time.Time      `gorm:"type:timestamptz;not null;column:template_form_created_at" json:"template_form_created_at"`
}

func (TemplateFormModel) TableName() string { return "template_forms" }

type TemplateSectionModel struct {
	TemplateSectionID                uuid.UUID `gorm:"type:uuid;primaryKey;column:template_section_id" json:"template_section_id"`
	TemplateSectionTemplateID        uuid.UUID `gorm:"type:uuid;not null;column:template_section_template_id" json:"template_section_template_id"`
	TemplateSectionName              string    `gorm:"type:varchar(255);not null;column:template_section_name" json:"template_section_name"`
	TemplateSectionDescription       *string   `gorm:"type:text;column:template_section_description" json:"template_section_description,omitempty"`
	TemplateSectionDisplayOrder      int       `gorm:"not null;column:template_section_display_order" json:"template_section_display_order"`
	TemplateSectionEditBy            EditBy    `gorm:"type:varchar(16);not null;column:template_section_edit_by" json:"template_section_edit_by"`
	TemplateSectionRoleInSubject     *string   `gorm:"type:varchar(32);column:template_section_role_in_subject" json:"template_section_role_in_subject,omitempty"`
	TemplateSectionIsSubmittable     bool      `gorm:"not null;default:false;column:template_section_is_submittable" json:"template_section_is_submittable"`
	TemplateSectionIsToggleDependent bool      `gorm:"not null;default:false;column:template_section_is_toggle_dependent" json:"template_section_is_toggle_dependent"`
}

func (TemplateSectionModel) TableName() string { return "template_sections" }

type TemplateFieldModel struct {
	TemplateFieldID           uuid.UUID  `gorm:"type:uuid;primaryKey;column:template_field_id" json:"template_field_id"`
	TemplateFieldSectionID    uuid.UUID  `gorm:"type:uuid;not null;column:template_field_section_id" json:"template_field_section_id"`
	TemplateFieldParentID     *uuid.UUID `gorm:"type:uuid;column:template_field_parent_id" json:"template_field_parent_id,omitempty"`
	TemplateFieldLabel        string     `gorm:"type:varchar(255);not null;column:template_field_label" json:"template_field_label"`
	TemplateFieldName         string     `gorm:"type:varchar(255);not null;column:template_field_name" json:"template_field_name"`
	TemplateFieldType         FieldType  `gorm:"type:varchar(32);not null;column:template_field_type" json:"template_field_type"`
	TemplateFieldRoleRequired *string    `gorm:"type:varchar(32);column:template_field_role_required" json:"template_field_role_required,omitempty"`
	TemplateFieldOptions      *string    `gorm:"type:text;column:template_field_options" json:"template_field_options,omitempty"`
	TemplateFieldDisplayOrder int        `gorm:"not null;column:template_field_display_order" json:"template_field_display_order"`
}

func (TemplateFieldModel) TableName() string { return "template_fields" }

/* =========================
   Structure tree (read side)
========================= */

type SectionStructure struct {
	Section TemplateSectionModel
	Fields  []TemplateFieldModel
}

// TemplateStructure adalah pohon {sections → fields} dari satu template, urut display order.
type TemplateStructure struct {
	Template TemplateFormModel
	Sections []SectionStructure
}

func (s *SectionStructure) CountFields(t FieldType) int {
	n := 0
	for _, f := range s.Fields {
		if f.TemplateFieldType == t {
			n++
		}
	}
	return n
}

func (s *SectionStructure) HasField(t FieldType) bool { return s.CountFields(t) > 0 }

// IsTraineeSignatureOnly: section TRAINEE yang isinya tepat satu field SIGNATURE_DRAW.
// Section seperti ini diisi lewat confirm-participation, bukan lewat save values.
func (s *SectionStructure) IsTraineeSignatureOnly() bool {
	return s.Section.TemplateSectionEditBy == EditByTrainee &&
		len(s.Fields) == 1 &&
		s.Fields[0].TemplateFieldType == FieldTypeSignatureDraw
}

func (t *TemplateStructure) SectionByID(id uuid.UUID) (*SectionStructure, bool) {
	for i := range t.Sections {
		if t.Sections[i].Section.TemplateSectionID == id {
			return &t.Sections[i], true
		}
	}
	return nil, false
}

func (t *TemplateStructure) FieldByID(id uuid.UUID) (*TemplateFieldModel, *SectionStructure, bool) {
	for i := range t.Sections {
		for j := range t.Sections[i].Fields {
			if t.Sections[i].Fields[j].TemplateFieldID == id {
				return &t.Sections[i].Fields[j], &t.Sections[i], true
			}
		}
	}
	return nil, nil, false
}

// SignatureOnlyCount jumlah section yang dikeluarkan dari hitungan penyelesaian.
func (t *TemplateStructure) SignatureOnlyCount() int {
	n := 0
	for i := range t.Sections {
		if t.Sections[i].IsTraineeSignatureOnly() {
			n++
		}
	}
	return n
}
