// file: internals/features/assessments/service/events.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"trainingku_backend/internals/constants"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/repository"
	dmodel "trainingku_backend/internals/features/directory/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

/* =========================
   Occurrence date flip
========================= */

// StartEvent: NOT_STARTED → ON_GOING untuk satu event. Aman dipanggil berulang.
func (s *Service) StartEvent(ctx context.Context, key amodel.EventKey) (int64, error) {
	if !scopeOfKey(key).Valid() {
		return 0, ErrSubjectXorCourse
	}
	if key.OccurrenceDate.After(s.today()) {
		return 0, ErrOccurrenceDateNotReached
	}
	n, err := s.Store.StartEvent(ctx, key, s.now())
	if err != nil {
		return 0, fromStore(err, ErrInternal)
	}
	if n > 0 {
		log.Printf("[AssessmentService] ▶️ event started template=%s date=%s forms=%d",
			key.TemplateID, key.OccurrenceDate.Format("2006-01-02"), n)
	}
	return n, nil
}

// StartEventAs: StartEvent lewat HTTP; aktor harus boleh mengelola subject/course event ini.
func (s *Service) StartEventAs(ctx context.Context, actor helperAuth.Actor, key amodel.EventKey) (int64, error) {
	scope := scopeOfKey(key)
	if !scope.Valid() {
		return 0, ErrSubjectXorCourse
	}
	ac, err := s.resolveActor(ctx, actor, scope)
	if err != nil {
		return 0, err
	}
	if !ac.canManageEntity() {
		return 0, ErrForbidden
	}
	return s.StartEvent(ctx, key)
}

// StartDueAssessments: sapu semua form NOT_STARTED yang tanggalnya sudah tiba.
func (s *Service) StartDueAssessments(ctx context.Context) (int64, error) {
	n, err := s.Store.StartDue(ctx, s.today(), s.now())
	if err != nil {
		return 0, fromStore(err, ErrInternal)
	}
	log.Printf("[AssessmentService] ⏰ due sweep started=%d", n)
	return n, nil
}

// ArchiveEvent: NOT_STARTED → CANCELLED untuk satu event. Form yang sudah berjalan tidak disentuh.
func (s *Service) ArchiveEvent(ctx context.Context, actor helperAuth.Actor, key amodel.EventKey) (int64, error) {
	scope := scopeOfKey(key)
	if !scope.Valid() {
		return 0, ErrSubjectXorCourse
	}
	ac, err := s.resolveActor(ctx, actor, scope)
	if err != nil {
		return 0, err
	}
	if !ac.canManageEntity() {
		return 0, ErrForbidden
	}
	n, err := s.Store.ArchiveEvent(ctx, key, actor.UserID, s.now())
	if err != nil {
		return 0, fromStore(err, ErrInternal)
	}
	log.Printf("[AssessmentService] 🗄️ event archived template=%s date=%s by=%s cancelled=%d",
		key.TemplateID, key.OccurrenceDate.Format("2006-01-02"), actor.UserID, n)
	return n, nil
}

func scopeOfKey(k amodel.EventKey) dmodel.EntityScope {
	return dmodel.EntityScope{SubjectID: k.SubjectID, CourseID: k.CourseID}
}

/* =========================
   Event listing
========================= */

type EventQuery struct {
	Statuses       []amodel.EventStatus
	SubjectID      *uuid.UUID
	CourseID       *uuid.UUID
	TemplateID     *uuid.UUID
	OccurrenceFrom *time.Time
	OccurrenceTo   *time.Time
	Search         string

	Limit  int
	Offset int
}

type EventSummary struct {
	Key           amodel.EventKey    `json:"key"`
	Name          string             `json:"name"`
	Status        amodel.EventStatus `json:"status"`
	TotalTrainees int                `json:"total_trainees"`
	TotalPassed   int                `json:"total_passed"`
	TotalFailed   int                `json:"total_failed"`
}

type DepartmentEventSummary struct {
	EventSummary
	TotalReviewedForm  int `json:"total_reviewed_form"`
	TotalCancelledForm int `json:"total_cancelled_form"`
	TotalTrainers      int `json:"total_trainers"`
}

// filter: status yang disembunyikan per form (level department) berlaku per event,
// supaya status dan hitungan event tetap dari semua anggota.
func (q EventQuery) filter(v repository.Visibility) repository.EventFilter {
	var hide []amodel.EventStatus
	if len(v.ExcludeStatuses) > 0 {
		hide = amodel.DepartmentHiddenEventStatuses
		v.ExcludeStatuses = nil
	}
	return repository.EventFilter{
		HideStatuses:   hide,
		Visibility:     v,
		Statuses:       q.Statuses,
		SubjectID:      q.SubjectID,
		CourseID:       q.CourseID,
		TemplateID:     q.TemplateID,
		OccurrenceFrom: q.OccurrenceFrom,
		OccurrenceTo:   q.OccurrenceTo,
		Search:         normalizeSearch(q.Search),
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
}

func summaryOf(r repository.EventRow) EventSummary {
	return EventSummary{
		Key:           r.Key,
		Name:          r.EventName,
		Status:        r.Status,
		TotalTrainees: r.TotalTrainees,
		TotalPassed:   r.Passed,
		TotalFailed:   r.Failed,
	}
}

func (s *Service) ListEvents(ctx context.Context, actor helperAuth.Actor, q EventQuery) ([]EventSummary, int64, error) {
	v, err := s.visibility(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := s.Store.ListEvents(ctx, q.filter(v))
	if err != nil {
		return nil, 0, fromStore(err, ErrInternal)
	}
	out := make([]EventSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, summaryOf(r))
	}
	return out, total, nil
}

// ListDepartmentEvents: view department (DEPARTMENT_HEAD atau manager); status awal selalu disembunyikan.
func (s *Service) ListDepartmentEvents(ctx context.Context, actor helperAuth.Actor, q EventQuery) ([]DepartmentEventSummary, int64, error) {
	var v repository.Visibility
	switch actor.Role {
	case constants.RoleDepartmentHead:
		dv, err := s.departmentVisibility(ctx, actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		v = dv
	case constants.RoleAdministrator, constants.RoleAcademicDepartment:
		v = repository.Visibility{ExcludeStatuses: amodel.DepartmentHiddenStatuses}
	default:
		return nil, 0, ErrForbidden
	}

	rows, total, err := s.Store.ListEvents(ctx, q.filter(v))
	if err != nil {
		return nil, 0, fromStore(err, ErrInternal)
	}
	out := make([]DepartmentEventSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, DepartmentEventSummary{
			EventSummary:       summaryOf(r),
			TotalReviewedForm:  r.Approved + r.Rejected,
			TotalCancelledForm: r.Cancelled,
			TotalTrainers:      r.TotalTrainers,
		})
	}
	return out, total, nil
}

// ListEventForms: drill-down anggota satu event, tetap mengikuti scope role.
func (s *Service) ListEventForms(ctx context.Context, actor helperAuth.Actor, key amodel.EventKey, limit, offset int) ([]amodel.AssessmentFormModel, int64, error) {
	if !scopeOfKey(key).Valid() {
		return nil, 0, ErrSubjectXorCourse
	}
	v, err := s.visibility(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := s.Store.ListForms(ctx, repository.FormFilter{
		Visibility: v,
		Event:      &key,
		Limit:      limit,
		Offset:     offset,
		SortBy:     "name",
		SortOrder:  "asc",
	})
	if err != nil {
		return nil, 0, fromStore(err, ErrInternal)
	}
	return rows, total, nil
}
