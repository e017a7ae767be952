// file: internals/features/assessments/service/query.go
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"trainingku_backend/internals/constants"
	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/permission"
	"trainingku_backend/internals/features/assessments/repository"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

type ListQuery struct {
	Statuses       []amodel.FormStatus
	TemplateID     *uuid.UUID
	SubjectID      *uuid.UUID
	CourseID       *uuid.UUID
	TraineeID      *uuid.UUID
	OccurrenceFrom *time.Time
	OccurrenceTo   *time.Time
	Search         string

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// visibility menerjemahkan role aktor menjadi filter scope.
func (s *Service) visibility(ctx context.Context, actor helperAuth.Actor) (repository.Visibility, error) {
	switch actor.Role {
	case constants.RoleTrainee:
		id := actor.UserID
		return repository.Visibility{TraineeID: &id}, nil
	case constants.RoleTrainer:
		subjects, courses, err := s.Directory.AssignedEntities(ctx, actor.UserID)
		if err != nil {
			return repository.Visibility{}, fromStore(err, ErrInternal)
		}
		return repository.Visibility{Restricted: true, SubjectIDs: subjects, CourseIDs: courses}, nil
	case constants.RoleDepartmentHead:
		return s.departmentVisibility(ctx, actor.UserID)
	case constants.RoleAdministrator, constants.RoleAcademicDepartment:
		return repository.Visibility{}, nil
	}
	return repository.Visibility{}, ErrForbidden
}

func (s *Service) departmentVisibility(ctx context.Context, userID uuid.UUID) (repository.Visibility, error) {
	v := repository.Visibility{Restricted: true, ExcludeStatuses: amodel.DepartmentHiddenStatuses}
	dept, err := s.departmentOf(ctx, userID)
	if err != nil || dept == nil {
		return v, err
	}
	subjects, courses, err := s.Directory.DepartmentEntities(ctx, *dept)
	if err != nil {
		return v, fromStore(err, ErrInternal)
	}
	v.SubjectIDs, v.CourseIDs = subjects, courses
	return v, nil
}

func normalizeSearch(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

func (s *Service) ListAssessments(ctx context.Context, actor helperAuth.Actor, q ListQuery) ([]amodel.AssessmentFormModel, int64, error) {
	v, err := s.visibility(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := s.Store.ListForms(ctx, repository.FormFilter{
		Visibility:     v,
		Statuses:       q.Statuses,
		TemplateID:     q.TemplateID,
		SubjectID:      q.SubjectID,
		CourseID:       q.CourseID,
		TraineeID:      q.TraineeID,
		OccurrenceFrom: q.OccurrenceFrom,
		OccurrenceTo:   q.OccurrenceTo,
		Search:         normalizeSearch(q.Search),
		Limit:          q.Limit,
		Offset:         q.Offset,
		SortBy:         q.SortBy,
		SortOrder:      q.SortOrder,
	})
	if err != nil {
		return nil, 0, fromStore(err, ErrInternal)
	}
	return rows, total, nil
}

/* =========================
   Detail
========================= */

type AssessmentDetail struct {
	Form           amodel.AssessmentFormModel `json:"assessment"`
	Entity         *dmodel.EntityInfo         `json:"entity"`
	TemplateName   string                     `json:"template_name"`
	DraftSections  int                        `json:"draft_sections"`
	EffectiveTotal int                        `json:"effective_total_sections"`
	AssessmentRole *string                    `json:"assessment_role,omitempty"`
}

func (s *Service) GetAssessment(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID) (*AssessmentDetail, error) {
	form, structure, ac, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	if !ac.canViewForm(form) {
		return nil, ErrForbidden
	}
	sections, err := s.Store.ListSections(ctx, formID)
	if err != nil {
		return nil, fromStore(err, ErrAssessmentNotFound)
	}
	snap := lifecycle.Count(form.AssessmentFormStatus, sections, signatureOnlySet(structure))
	return &AssessmentDetail{
		Form:           *form,
		Entity:         ac.Entity,
		TemplateName:   structure.Template.TemplateFormName,
		DraftSections:  snap.DraftCount,
		EffectiveTotal: snap.EffectiveTotal,
		AssessmentRole: ac.AssessmentRole,
	}, nil
}

/* =========================
   Sections
========================= */

type SectionView struct {
	Section         amodel.AssessmentSectionModel `json:"section"`
	TemplateSection tmodel.TemplateSectionModel   `json:"template_section"`
	FieldCount      int                           `json:"field_count"`
	Access          permission.Access             `json:"access"`
}

type FieldValue struct {
	Field    tmodel.TemplateFieldModel   `json:"field"`
	Value    amodel.AssessmentValueModel `json:"value"`
	Writable bool                        `json:"writable"`
}

type SectionFields struct {
	SectionView
	Fields []FieldValue `json:"fields"`
}

// ListSections: semua section yang boleh dilihat aktor, minus section trainee signature-only.
func (s *Service) ListSections(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID) ([]SectionView, error) {
	return s.listSections(ctx, actor, formID, func(st *tmodel.SectionStructure) bool {
		return permission.ListedInGeneralView(st)
	})
}

// ListTraineeSections: section TRAINEE termasuk yang signature-only.
func (s *Service) ListTraineeSections(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID) ([]SectionView, error) {
	return s.listSections(ctx, actor, formID, func(st *tmodel.SectionStructure) bool {
		return st.Section.TemplateSectionEditBy == tmodel.EditByTrainee
	})
}

func (s *Service) listSections(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID, include func(*tmodel.SectionStructure) bool) ([]SectionView, error) {
	form, structure, ac, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	if !ac.canViewForm(form) {
		return nil, ErrForbidden
	}
	sections, err := s.Store.ListSections(ctx, formID)
	if err != nil {
		return nil, fromStore(err, ErrAssessmentNotFound)
	}

	out := make([]SectionView, 0, len(sections))
	for i := range sections {
		sec := &sections[i]
		tsec, ok := structure.SectionByID(sec.AssessmentSectionTemplateSectionID)
		if !ok || !include(tsec) {
			continue
		}
		access := ac.access(form, sec, &tsec.Section)
		if !access.CanView {
			continue
		}
		out = append(out, SectionView{
			Section:         *sec,
			TemplateSection: tsec.Section,
			FieldCount:      len(tsec.Fields),
			Access:          access,
		})
	}
	sortByDisplayOrder(out)
	return out, nil
}

func sortByDisplayOrder(views []SectionView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].TemplateSection.TemplateSectionDisplayOrder < views[j].TemplateSection.TemplateSectionDisplayOrder
	})
}

func (s *Service) GetSectionFields(ctx context.Context, actor helperAuth.Actor, formID, sectionID uuid.UUID) (*SectionFields, error) {
	form, structure, ac, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	if !ac.canViewForm(form) {
		return nil, ErrForbidden
	}
	sections, err := s.Store.ListSections(ctx, formID)
	if err != nil {
		return nil, fromStore(err, ErrAssessmentNotFound)
	}
	var sec *amodel.AssessmentSectionModel
	for i := range sections {
		if sections[i].AssessmentSectionID == sectionID {
			sec = &sections[i]
			break
		}
	}
	if sec == nil {
		return nil, ErrSectionNotFound
	}
	tsec, ok := structure.SectionByID(sec.AssessmentSectionTemplateSectionID)
	if !ok {
		return nil, ErrSectionNotFound
	}
	access := ac.access(form, sec, &tsec.Section)
	if !access.CanView {
		return nil, ErrForbidden
	}

	values, err := s.Store.ListValuesBySections(ctx, []uuid.UUID{sectionID})
	if err != nil {
		return nil, fromStore(err, ErrValueNotFound)
	}
	byField := make(map[uuid.UUID]amodel.AssessmentValueModel, len(values))
	for _, v := range values {
		byField[v.AssessmentValueTemplateFieldID] = v
	}

	canWrite := access.CanSave || access.CanUpdate
	out := &SectionFields{
		SectionView: SectionView{Section: *sec, TemplateSection: tsec.Section, FieldCount: len(tsec.Fields), Access: access},
		Fields:      make([]FieldValue, 0, len(tsec.Fields)),
	}
	for _, f := range tsec.Fields {
		v, ok := byField[f.TemplateFieldID]
		if !ok {
			continue
		}
		out.Fields = append(out.Fields, FieldValue{
			Field:    f,
			Value:    v,
			Writable: canWrite && permission.FieldWritable(ac.AssessmentRole, f.TemplateFieldRoleRequired),
		})
	}
	return out, nil
}
