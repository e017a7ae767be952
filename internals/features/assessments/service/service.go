// file: internals/features/assessments/service/service.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"trainingku_backend/internals/constants"
	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/permission"
	"trainingku_backend/internals/features/assessments/repository"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
	"trainingku_backend/internals/helpers/dbtime"
)

type Service struct {
	Store     repository.Store
	Templates TemplateProvider
	Directory Directory
	Scheduler Scheduler

	Loc *time.Location
	Now func() time.Time
}

func NewService(store repository.Store, templates TemplateProvider, directory Directory, scheduler Scheduler, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		Store:     store,
		Templates: templates,
		Directory: directory,
		Scheduler: scheduler,
		Loc:       loc,
		Now:       time.Now,
	}
}

func (s *Service) now() time.Time { return s.Now().UTC() }

// today: tanggal kalender hari ini di timezone aplikasi (00:00 UTC).
func (s *Service) today() time.Time { return dbtime.Today(s.Now(), s.Loc) }

/* =========================
   Status snapshot
========================= */

// StatusSnapshot dikembalikan oleh setiap operasi mutasi.
type StatusSnapshot struct {
	AssessmentID    uuid.UUID          `json:"assessment_id"`
	Status          amodel.FormStatus  `json:"status"`
	IsTraineeLocked bool               `json:"is_trainee_locked"`
	DraftSections   int                `json:"draft_sections"`
	EffectiveTotal  int                `json:"effective_total_sections"`
	ResultScore     *float64           `json:"result_score,omitempty"`
	ResultText      *amodel.ResultText `json:"result_text,omitempty"`
	SubmittedAt     *time.Time         `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`

	SectionID     *uuid.UUID            `json:"section_id,omitempty"`
	SectionStatus *amodel.SectionStatus `json:"section_status,omitempty"`
	AssessedByID  *uuid.UUID            `json:"assessed_by_id,omitempty"`
}

func snapshotOf(f *amodel.AssessmentFormModel, counts lifecycle.Snapshot) *StatusSnapshot {
	return &StatusSnapshot{
		AssessmentID:    f.AssessmentFormID,
		Status:          f.AssessmentFormStatus,
		IsTraineeLocked: f.AssessmentFormIsTraineeLocked,
		DraftSections:   counts.DraftCount,
		EffectiveTotal:  counts.EffectiveTotal,
		ResultScore:     f.AssessmentFormResultScore,
		ResultText:      f.AssessmentFormResultText,
		SubmittedAt:     f.AssessmentFormSubmittedAt,
		ApprovedAt:      f.AssessmentFormApprovedAt,
	}
}

func (ss *StatusSnapshot) withSection(sec *amodel.AssessmentSectionModel) *StatusSnapshot {
	id := sec.AssessmentSectionID
	st := sec.AssessmentSectionStatus
	ss.SectionID = &id
	ss.SectionStatus = &st
	ss.AssessedByID = sec.AssessmentSectionAssessedByID
	return ss
}

/* =========================
   Actor context
========================= */

// actorContext: hubungan aktor dengan subject/course sebuah form.
type actorContext struct {
	Actor          helperAuth.Actor
	AssessmentRole *string
	InDepartment   bool
	Entity         *dmodel.EntityInfo
}

func scopeOf(f *amodel.AssessmentFormModel) dmodel.EntityScope {
	return dmodel.EntityScope{SubjectID: f.AssessmentFormSubjectID, CourseID: f.AssessmentFormCourseID}
}

func (s *Service) resolveActor(ctx context.Context, actor helperAuth.Actor, scope dmodel.EntityScope) (*actorContext, error) {
	entity, err := s.Directory.FindEntity(ctx, scope)
	if err != nil {
		return nil, fromStore(err, ErrSubjectOrCourseNotFound)
	}
	ac := &actorContext{Actor: actor, Entity: entity}

	switch actor.Role {
	case constants.RoleTrainer:
		role, err := s.Directory.InstructorRole(ctx, scope, actor.UserID)
		if err != nil {
			return nil, fromStore(err, ErrInternal)
		}
		ac.AssessmentRole = role
	case constants.RoleDepartmentHead:
		dept, err := s.departmentOf(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		ac.InDepartment = dept != nil && *dept == entity.DepartmentID
	}
	return ac, nil
}

func (s *Service) departmentOf(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	users, err := s.Directory.FindUsers(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, fromStore(err, ErrInternal)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0].UserDepartmentID, nil
}

// canViewForm: visibilitas level form (list/detail).
func (ac *actorContext) canViewForm(f *amodel.AssessmentFormModel) bool {
	switch ac.Actor.Role {
	case constants.RoleTrainee:
		return f.AssessmentFormTraineeID == ac.Actor.UserID
	case constants.RoleTrainer:
		return ac.AssessmentRole != nil
	case constants.RoleDepartmentHead:
		return ac.InDepartment && !f.AssessmentFormStatus.In(amodel.DepartmentHiddenStatuses...)
	case constants.RoleAdministrator, constants.RoleAcademicDepartment:
		return true
	}
	return false
}

// canManageEntity: boleh membuat / mengarsipkan assessment untuk subject/course ini.
func (ac *actorContext) canManageEntity() bool {
	switch ac.Actor.Role {
	case constants.RoleTrainer:
		return ac.AssessmentRole != nil
	case constants.RoleDepartmentHead:
		return ac.InDepartment
	case constants.RoleAdministrator, constants.RoleAcademicDepartment:
		return true
	}
	return false
}

// canReview: TRAINER ber-role ASSESSMENT_REVIEWER atau DEPARTMENT_HEAD department ini,
// dan bukan trainee / submitter form.
func (ac *actorContext) canReview(f *amodel.AssessmentFormModel) bool {
	if f.AssessmentFormTraineeID == ac.Actor.UserID {
		return false
	}
	if f.AssessmentFormSubmittedByID != nil && *f.AssessmentFormSubmittedByID == ac.Actor.UserID {
		return false
	}
	switch ac.Actor.Role {
	case constants.RoleTrainer:
		return ac.AssessmentRole != nil && *ac.AssessmentRole == constants.AssessmentRoleReviewer
	case constants.RoleDepartmentHead:
		return ac.InDepartment
	}
	return false
}

func (ac *actorContext) access(f *amodel.AssessmentFormModel, sec *amodel.AssessmentSectionModel, tsec *tmodel.TemplateSectionModel) permission.Access {
	return permission.Resolve(permission.Input{
		ActorID:             ac.Actor.UserID,
		ActorRole:           ac.Actor.Role,
		ActorAssessmentRole: ac.AssessmentRole,
		ActorInDepartment:   ac.InDepartment,
		EditBy:              tsec.TemplateSectionEditBy,
		RoleInSubject:       tsec.TemplateSectionRoleInSubject,
		AssessedByID:        sec.AssessmentSectionAssessedByID,
		SectionStatus:       sec.AssessmentSectionStatus,
		TraineeID:           f.AssessmentFormTraineeID,
		IsTraineeLocked:     f.AssessmentFormIsTraineeLocked,
		FormStatus:          f.AssessmentFormStatus,
	})
}

/* =========================
   Shared loaders
========================= */

// loadForm membaca form + struktur template + konteks aktor (di luar transaksi).
func (s *Service) loadForm(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID) (*amodel.AssessmentFormModel, *tmodel.TemplateStructure, *actorContext, error) {
	form, err := s.Store.FindForm(ctx, formID)
	if err != nil {
		return nil, nil, nil, fromStore(err, ErrAssessmentNotFound)
	}
	structure, err := s.Templates.GetStructure(ctx, form.AssessmentFormTemplateID)
	if err != nil {
		return nil, nil, nil, fromStore(err, ErrTemplateNotFound)
	}
	ac, err := s.resolveActor(ctx, actor, scopeOf(form))
	if err != nil {
		return nil, nil, nil, err
	}
	return form, structure, ac, nil
}

func signatureOnlySet(structure *tmodel.TemplateStructure) map[string]bool {
	out := map[string]bool{}
	for i := range structure.Sections {
		if structure.Sections[i].IsTraineeSignatureOnly() {
			out[structure.Sections[i].Section.TemplateSectionID.String()] = true
		}
	}
	return out
}

// recount membaca ulang section di dalam transaksi dan membangun snapshot lifecycle.
func recount(tx repository.Tx, form *amodel.AssessmentFormModel, structure *tmodel.TemplateStructure) (lifecycle.Snapshot, []amodel.AssessmentSectionModel, error) {
	sections, err := tx.ListSections(form.AssessmentFormID)
	if err != nil {
		return lifecycle.Snapshot{}, nil, fromStore(err, ErrAssessmentNotFound)
	}
	return lifecycle.Count(form.AssessmentFormStatus, sections, signatureOnlySet(structure)), sections, nil
}

// transitionErr: event tidak sah dari status sekarang.
func transitionErr(err error) error {
	return ErrAssessmentStatusNotAllowed.Wrap(err)
}

func (s *Service) afterCommit(what string, fn func() error) {
	if s.Scheduler == nil {
		return
	}
	if err := fn(); err != nil {
		log.Printf("[AssessmentService] ⚠️ %s failed: %v", what, err)
	}
}
