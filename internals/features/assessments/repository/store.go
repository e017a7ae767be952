// file: internals/features/assessments/repository/store.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	amodel "trainingku_backend/internals/features/assessments/model"
	dmodel "trainingku_backend/internals/features/directory/model"
)

/* =========================================================
   Assessment Aggregate Store

   Store  : pembacaan di luar transaksi + operasi idempotent satu-statement.
   Tx     : semua yang harus atomik dalam satu mutasi (lock form, CAS claim,
            conditional transition). Zero rows affected = konflik.
========================================================= */

type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	FindForm(ctx context.Context, id uuid.UUID) (*amodel.AssessmentFormModel, error)
	ListForms(ctx context.Context, f FormFilter) ([]amodel.AssessmentFormModel, int64, error)
	ListSections(ctx context.Context, formID uuid.UUID) ([]amodel.AssessmentSectionModel, error)
	ListValuesBySections(ctx context.Context, sectionIDs []uuid.UUID) ([]amodel.AssessmentValueModel, error)

	// FindExisting: form non-CANCELLED yang cocok (trainee, template, tanggal, subject|course).
	FindExisting(ctx context.Context, templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) ([]amodel.AssessmentFormModel, error)

	ListEvents(ctx context.Context, f EventFilter) ([]EventRow, int64, error)

	// NOT_STARTED → ON_GOING untuk form yang tanggalnya sudah tiba.
	StartDue(ctx context.Context, today time.Time, updatedAt time.Time) (int64, error)
	StartEvent(ctx context.Context, key amodel.EventKey, updatedAt time.Time) (int64, error)

	// NOT_STARTED → CANCELLED untuk satu event.
	ArchiveEvent(ctx context.Context, key amodel.EventKey, actorID uuid.UUID, updatedAt time.Time) (int64, error)

	// hanya form APPROVED
	AttachPDF(ctx context.Context, formID uuid.UUID, url string, updatedAt time.Time) (int64, error)
}

type Tx interface {
	// SELECT ... FOR UPDATE
	LockForm(id uuid.UUID) (*amodel.AssessmentFormModel, error)
	// serialisasi create untuk satu event sampai tx selesai
	LockEvent(key amodel.EventKey) error
	FindExisting(templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) ([]amodel.AssessmentFormModel, error)
	ListSections(formID uuid.UUID) ([]amodel.AssessmentSectionModel, error)
	GetSection(formID, sectionID uuid.UUID) (*amodel.AssessmentSectionModel, error)
	ListValues(sectionIDs []uuid.UUID) ([]amodel.AssessmentValueModel, error)

	// insert form + sections + values sekaligus
	CreateForms(forms []amodel.AssessmentFormModel) error

	// UPDATE ... WHERE assessed_by_id IS NULL
	ClaimSection(sectionID, actorID uuid.UUID, at time.Time) (int64, error)
	// confirm participation: paksa section ke DRAFT dengan assessor tertentu
	ForceSectionDraft(sectionID, assessedBy uuid.UUID, at time.Time) error

	UpdateValues(sectionID uuid.UUID, updates []ValueUpdate, actorID uuid.UUID, at time.Time) (int64, error)

	// UPDATE assessment_forms ... WHERE id = ? AND status IN (from)
	TransitionForm(formID uuid.UUID, from []amodel.FormStatus, patch FormPatch) (int64, error)
}

type ValueUpdate struct {
	ValueID uuid.UUID
	Answer  *string
}

// FormPatch: kolom yang diubah oleh satu transisi. Field nil = tidak disentuh.
type FormPatch struct {
	Status          *amodel.FormStatus
	IsTraineeLocked *bool
	SubmittedAt     *time.Time
	SubmittedByID   *uuid.UUID
	Comment         *string
	ApprovedByID    *uuid.UUID
	ApprovedAt      *time.Time
	ResultScore     *float64
	ResultText      *amodel.ResultText
	ScoreDetails    datatypes.JSONMap

	// reset result_score/result_text/approved_* ke NULL
	ClearResult bool

	UpdatedByID uuid.UUID
	UpdatedAt   time.Time
}

/* =========================
   Filters
========================= */

// Visibility: hasil resolusi role-scope. Restricted=true berarti hanya SubjectIDs ∪ CourseIDs (kosong = tidak ada).
type Visibility struct {
	Restricted bool
	TraineeID  *uuid.UUID
	SubjectIDs []uuid.UUID
	CourseIDs  []uuid.UUID

	ExcludeStatuses []amodel.FormStatus
}

type FormFilter struct {
	Visibility

	Statuses       []amodel.FormStatus
	TemplateID     *uuid.UUID
	SubjectID      *uuid.UUID
	CourseID       *uuid.UUID
	TraineeID      *uuid.UUID
	OccurrenceFrom *time.Time
	OccurrenceTo   *time.Time
	Search         string
	Event          *amodel.EventKey

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type EventFilter struct {
	Visibility

	Statuses       []amodel.EventStatus
	SubjectID      *uuid.UUID
	CourseID       *uuid.UUID
	TemplateID     *uuid.UUID
	OccurrenceFrom *time.Time
	OccurrenceTo   *time.Time
	Search         string

	// event dengan status ini dibuang setelah diturunkan.
	// Visibility.ExcludeStatuses tidak berlaku per form di sini.
	HideStatuses []amodel.EventStatus

	Limit  int
	Offset int
}

// EventRow: satu grup (subject|course, template, tanggal) beserta hitungannya.
type EventRow struct {
	Key       amodel.EventKey
	EventName string

	TotalTrainees int
	NotStarted    int
	Approved      int
	Rejected      int
	Cancelled     int
	Passed        int
	Failed        int
	TotalTrainers int

	Status amodel.EventStatus
}

// SortColumns: whitelist kolom sort untuk ListForms.
var SortColumns = map[string]string{
	"created_at":      "assessment_form_created_at",
	"occurrence_date": "assessment_form_occurrence_date",
	"name":            "assessment_form_name",
	"status":          "assessment_form_status",
}
