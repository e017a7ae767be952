// file: internals/features/assessments/service/create.go
package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"trainingku_backend/internals/constants"
	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/repository"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
	"trainingku_backend/internals/helpers/dbtime"
)

// OccurrenceDate adalah tanggal kalender (00:00 UTC, lihat dbtime.ParseDate).
type CreateInput struct {
	TemplateID     uuid.UUID
	SubjectID      *uuid.UUID
	CourseID       *uuid.UUID
	OccurrenceDate time.Time
	Name           string
	TraineeIDs     []uuid.UUID
}

type BulkCreateInput struct {
	TemplateID        uuid.UUID
	SubjectID         *uuid.UUID
	CourseID          *uuid.UUID
	OccurrenceDate    time.Time
	Name              string
	ExcludeTraineeIDs []uuid.UUID
}

type CreateResult struct {
	Assessments  []amodel.AssessmentFormModel `json:"assessments"`
	TotalCreated int                          `json:"total_created"`
}

const (
	SkipExcluded      = "EXCLUDED"
	SkipAlreadyExists = "ALREADY_EXISTS"
	SkipNotActive     = "TRAINEE_NOT_ACTIVE"
	SkipInvalidRole   = "TRAINEE_INVALID_ROLE"
)

type SkippedTrainee struct {
	TraineeID    uuid.UUID  `json:"trainee_id"`
	EID          string     `json:"eid"`
	Reason       string     `json:"reason"`
	AssessmentID *uuid.UUID `json:"assessment_id,omitempty"`
}

type BulkCreateResult struct {
	Assessments     []amodel.AssessmentFormModel `json:"assessments"`
	TotalCreated    int                          `json:"total_created"`
	TotalEnrolled   int                          `json:"total_enrolled"`
	SkippedTrainees []SkippedTrainee             `json:"skipped_trainees"`
	EntityInfo      *dmodel.EntityInfo           `json:"entity_info"`
}

// creationPlan: hasil validasi bersama single & bulk.
type creationPlan struct {
	structure *tmodel.TemplateStructure
	scope     dmodel.EntityScope
	entity    *dmodel.EntityInfo
	date      time.Time
	baseName  string
	status    amodel.FormStatus
}

func (s *Service) prepareCreation(ctx context.Context, actor helperAuth.Actor, templateID uuid.UUID, scope dmodel.EntityScope, occurrence time.Time, name string) (*creationPlan, error) {
	if !actor.IsManager() && !actor.Is(constants.RoleTrainer) && !actor.Is(constants.RoleDepartmentHead) {
		return nil, ErrForbidden.WithMessage(constants.RoleErrorCreator("assessment creation"))
	}
	if !scope.Valid() {
		return nil, ErrSubjectXorCourse
	}

	structure, err := s.Templates.GetPublishedStructure(ctx, templateID)
	if err != nil {
		return nil, fromStore(err, ErrTemplateNotFound)
	}
	if err := checkStructure(structure); err != nil {
		return nil, err
	}

	ac, err := s.resolveActor(ctx, actor, scope)
	if err != nil {
		return nil, err
	}
	entity := ac.Entity
	if !entity.Status.Assessable() {
		return nil, ErrSubjectOrCourseNotActive.WithDetails(map[string]any{"status": entity.Status})
	}
	if structure.Template.TemplateFormDepartmentID != entity.DepartmentID {
		return nil, ErrTemplateDepartmentMismatch
	}
	if !ac.canManageEntity() {
		return nil, ErrForbidden
	}

	date := dbtime.DateOnly(occurrence, time.UTC)
	today := s.today()
	if date.Before(dbtime.DateOnly(entity.StartDate, time.UTC)) {
		return nil, ErrOccurrenceDateBeforeStart
	}
	if date.Before(today) {
		return nil, ErrOccurrenceDateInPast
	}
	if entity.EndDate != nil && date.After(dbtime.DateOnly(*entity.EndDate, time.UTC)) {
		return nil, ErrOccurrenceDateAfterEnd
	}

	base := norm.NFC.String(strings.TrimSpace(name))
	if base == "" {
		base = structure.Template.TemplateFormName
	}

	status := amodel.FormNotStarted
	if date.Equal(today) {
		status = amodel.FormOnGoing
	}

	return &creationPlan{
		structure: structure,
		scope:     scope,
		entity:    entity,
		date:      date,
		baseName:  base,
		status:    status,
	}, nil
}

// checkStructure: minimal satu section assessable, dan tidak ada section tanpa field.
func checkStructure(st *tmodel.TemplateStructure) error {
	if len(st.Sections) == 0 {
		return ErrTemplateStructureEmpty
	}
	var empty []string
	for _, sec := range st.Sections {
		if len(sec.Fields) == 0 {
			empty = append(empty, sec.Section.TemplateSectionID.String())
		}
	}
	if len(empty) > 0 {
		return ErrTemplateStructureEmpty.WithDetails(IDList{IDs: empty})
	}
	if lifecycle.EffectiveTotal(st) == 0 {
		return ErrTemplateStructureEmpty.WithMessage("template only contains trainee signature sections")
	}
	return nil
}

// buildForm menyiapkan satu form lengkap dengan semua section & value kosong.
func (s *Service) buildForm(plan *creationPlan, trainee dmodel.UserModel, actorID uuid.UUID, now time.Time) amodel.AssessmentFormModel {
	form := amodel.AssessmentFormModel{
		AssessmentFormID:              uuid.New(),
		AssessmentFormTemplateID:      plan.structure.Template.TemplateFormID,
		AssessmentFormName:            plan.baseName + " - " + trainee.UserEID,
		AssessmentFormEventName:       plan.baseName,
		AssessmentFormSubjectID:       plan.scope.SubjectID,
		AssessmentFormCourseID:        plan.scope.CourseID,
		AssessmentFormOccurrenceDate:  plan.date,
		AssessmentFormTraineeID:       trainee.UserID,
		AssessmentFormStatus:          plan.status,
		AssessmentFormIsTraineeLocked: true,
		AssessmentFormCreatedByID:     actorID,
		AssessmentFormCreatedAt:       now,
		AssessmentFormUpdatedAt:       now,
	}
	for _, tsec := range plan.structure.Sections {
		sec := amodel.AssessmentSectionModel{
			AssessmentSectionID:                uuid.New(),
			AssessmentSectionFormID:            form.AssessmentFormID,
			AssessmentSectionTemplateSectionID: tsec.Section.TemplateSectionID,
			AssessmentSectionStatus:            amodel.SectionRequiredAssessment,
			AssessmentSectionCreatedAt:         now,
			AssessmentSectionUpdatedAt:         now,
		}
		for _, field := range tsec.Fields {
			sec.Values = append(sec.Values, amodel.AssessmentValueModel{
				AssessmentValueID:              uuid.New(),
				AssessmentValueSectionID:       sec.AssessmentSectionID,
				AssessmentValueTemplateFieldID: field.TemplateFieldID,
				AssessmentValueCreatedByID:     actorID,
				AssessmentValueCreatedAt:       now,
				AssessmentValueUpdatedAt:       now,
			})
		}
		form.Sections = append(form.Sections, sec)
	}
	return form
}

func (s *Service) persistForms(ctx context.Context, plan *creationPlan, forms []amodel.AssessmentFormModel) error {
	if err := s.Store.WithTx(ctx, func(tx repository.Tx) error {
		if len(forms) == 0 {
			return nil
		}
		if err := tx.LockEvent(forms[0].EventKey()); err != nil {
			return err
		}
		traineeIDs := make([]uuid.UUID, 0, len(forms))
		for _, f := range forms {
			traineeIDs = append(traineeIDs, f.AssessmentFormTraineeID)
		}
		// cek ulang di bawah lock: create paralel untuk event yang sama
		existing, err := tx.FindExisting(plan.structure.Template.TemplateFormID, plan.date, plan.scope, traineeIDs)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return alreadyExists(existing)
		}
		return tx.CreateForms(forms)
	}); err != nil {
		if ae, ok := AsAppError(err); ok {
			return ae
		}
		log.Printf("[AssessmentService] ❌ create %d assessments (template=%s): %v",
			len(forms), plan.structure.Template.TemplateFormID, err)
		return ErrCreationFailed.Wrap(err)
	}

	if plan.status == amodel.FormNotStarted && len(forms) > 0 {
		key := forms[0].EventKey()
		at := dbtime.StartOfDayIn(plan.date, s.Loc)
		s.afterCommit("schedule event start", func() error {
			return s.Scheduler.ScheduleEventStart(ctx, key, at)
		})
	}
	return nil
}

func alreadyExists(existing []amodel.AssessmentFormModel) *AppError {
	conflicts := make([]map[string]string, 0, len(existing))
	for _, f := range existing {
		conflicts = append(conflicts, map[string]string{
			"trainee_id":    f.AssessmentFormTraineeID.String(),
			"assessment_id": f.AssessmentFormID.String(),
		})
	}
	return ErrAssessmentAlreadyExists.WithDetails(conflicts)
}

func stripTree(forms []amodel.AssessmentFormModel) []amodel.AssessmentFormModel {
	out := make([]amodel.AssessmentFormModel, len(forms))
	for i := range forms {
		out[i] = forms[i]
		out[i].Sections = nil
	}
	return out
}

/* =========================
   Single create (all-or-nothing)
========================= */

func (s *Service) CreateAssessments(ctx context.Context, actor helperAuth.Actor, in CreateInput) (*CreateResult, error) {
	scope := dmodel.EntityScope{SubjectID: in.SubjectID, CourseID: in.CourseID}
	plan, err := s.prepareCreation(ctx, actor, in.TemplateID, scope, in.OccurrenceDate, in.Name)
	if err != nil {
		return nil, err
	}

	traineeIDs := dedupe(in.TraineeIDs)
	if len(traineeIDs) == 0 {
		return nil, ErrTraineesRequired
	}

	trainees, err := s.validateTrainees(ctx, scope, traineeIDs)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.FindExisting(ctx, in.TemplateID, plan.date, scope, traineeIDs)
	if err != nil {
		return nil, fromStore(err, ErrInternal)
	}
	if len(existing) > 0 {
		return nil, alreadyExists(existing)
	}

	now := s.now()
	forms := make([]amodel.AssessmentFormModel, 0, len(trainees))
	for _, t := range trainees {
		forms = append(forms, s.buildForm(plan, t, actor.UserID, now))
	}
	if err := s.persistForms(ctx, plan, forms); err != nil {
		return nil, err
	}

	log.Printf("[AssessmentService] ✅ created %d assessments template=%s date=%s status=%s",
		len(forms), in.TemplateID, dbtime.FormatDate(plan.date), plan.status)
	return &CreateResult{Assessments: stripTree(forms), TotalCreated: len(forms)}, nil
}

// validateTrainees: urutan kategori error = not found, not active, invalid role, not enrolled.
func (s *Service) validateTrainees(ctx context.Context, scope dmodel.EntityScope, ids []uuid.UUID) ([]dmodel.UserModel, error) {
	users, err := s.Directory.FindUsers(ctx, ids)
	if err != nil {
		return nil, fromStore(err, ErrInternal)
	}
	byID := make(map[uuid.UUID]dmodel.UserModel, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}
	enrolled, err := s.Directory.EnrolledTrainees(ctx, scope)
	if err != nil {
		return nil, fromStore(err, ErrInternal)
	}
	enrolledSet := make(map[uuid.UUID]bool, len(enrolled))
	for _, e := range enrolled {
		enrolledSet[e.User.UserID] = true
	}

	var notFound, notActive, invalidRole, notEnrolled []string
	out := make([]dmodel.UserModel, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		switch {
		case !ok:
			notFound = append(notFound, id.String())
		case u.UserStatus != dmodel.UserStatusActive:
			notActive = append(notActive, id.String())
		case u.UserRoleName != constants.RoleTrainee:
			invalidRole = append(invalidRole, id.String())
		case !enrolledSet[id]:
			notEnrolled = append(notEnrolled, id.String())
		default:
			out = append(out, u)
		}
	}
	switch {
	case len(notFound) > 0:
		return nil, ErrTraineeNotFound.WithDetails(IDList{IDs: notFound})
	case len(notActive) > 0:
		return nil, ErrTraineeNotActive.WithDetails(IDList{IDs: notActive})
	case len(invalidRole) > 0:
		return nil, ErrTraineeInvalidRole.WithDetails(IDList{IDs: invalidRole})
	case len(notEnrolled) > 0:
		return nil, ErrTraineeNotEnrolled.WithDetails(IDList{IDs: notEnrolled})
	}
	return out, nil
}

/* =========================
   Bulk create (skip report)
========================= */

func (s *Service) CreateBulkAssessments(ctx context.Context, actor helperAuth.Actor, in BulkCreateInput) (*BulkCreateResult, error) {
	scope := dmodel.EntityScope{SubjectID: in.SubjectID, CourseID: in.CourseID}
	plan, err := s.prepareCreation(ctx, actor, in.TemplateID, scope, in.OccurrenceDate, in.Name)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.Directory.EnrolledTrainees(ctx, scope)
	if err != nil {
		return nil, fromStore(err, ErrInternal)
	}
	ids := make([]uuid.UUID, 0, len(enrolled))
	for _, e := range enrolled {
		ids = append(ids, e.User.UserID)
	}
	existing, err := s.Store.FindExisting(ctx, in.TemplateID, plan.date, scope, ids)
	if err != nil {
		return nil, fromStore(err, ErrInternal)
	}
	existingBy := make(map[uuid.UUID]uuid.UUID, len(existing))
	for _, f := range existing {
		existingBy[f.AssessmentFormTraineeID] = f.AssessmentFormID
	}
	excluded := make(map[uuid.UUID]bool, len(in.ExcludeTraineeIDs))
	for _, id := range in.ExcludeTraineeIDs {
		excluded[id] = true
	}

	res := &BulkCreateResult{
		TotalEnrolled:   len(enrolled),
		SkippedTrainees: []SkippedTrainee{},
		EntityInfo:      plan.entity,
	}
	now := s.now()
	var forms []amodel.AssessmentFormModel
	for _, e := range enrolled {
		u := e.User
		skip := SkippedTrainee{TraineeID: u.UserID, EID: u.UserEID}
		switch {
		case excluded[u.UserID]:
			skip.Reason = SkipExcluded
		case u.UserStatus != dmodel.UserStatusActive:
			skip.Reason = SkipNotActive
		case u.UserRoleName != constants.RoleTrainee:
			skip.Reason = SkipInvalidRole
		default:
			if formID, ok := existingBy[u.UserID]; ok {
				skip.Reason = SkipAlreadyExists
				skip.AssessmentID = &formID
			}
		}
		if skip.Reason != "" {
			res.SkippedTrainees = append(res.SkippedTrainees, skip)
			continue
		}
		forms = append(forms, s.buildForm(plan, u, actor.UserID, now))
	}

	if len(forms) > 0 {
		if err := s.persistForms(ctx, plan, forms); err != nil {
			return nil, err
		}
	}
	res.Assessments = stripTree(forms)
	if res.Assessments == nil {
		res.Assessments = []amodel.AssessmentFormModel{}
	}
	res.TotalCreated = len(forms)

	log.Printf("[AssessmentService] ✅ bulk created %d/%d assessments template=%s skipped=%d",
		res.TotalCreated, res.TotalEnrolled, in.TemplateID, len(res.SkippedTrainees))
	return res, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
