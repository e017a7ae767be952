package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	amodel "trainingku_backend/internals/features/assessments/model"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

// TemplateProvider: sumber struktur template (read-only).
type TemplateProvider interface {
	// hanya template PUBLISHED; selain itu repository.ErrNotFound
	GetPublishedStructure(ctx context.Context, templateID uuid.UUID) (*tmodel.TemplateStructure, error)
	// struktur apa pun statusnya (untuk form yang sudah ada)
	GetStructure(ctx context.Context, templateID uuid.UUID) (*tmodel.TemplateStructure, error)
}

// Directory: identitas, enrollment, dan penugasan instruktur.
type Directory interface {
	FindUsers(ctx context.Context, ids []uuid.UUID) ([]dmodel.UserModel, error)
	UserMainRole(ctx context.Context, userID uuid.UUID) (string, error)
	FindEntity(ctx context.Context, scope dmodel.EntityScope) (*dmodel.EntityInfo, error)
	EnrolledTrainees(ctx context.Context, scope dmodel.EntityScope) ([]dmodel.EnrolledTrainee, error)
	InstructorRole(ctx context.Context, scope dmodel.EntityScope, userID uuid.UUID) (*string, error)
	AssignedEntities(ctx context.Context, trainerID uuid.UUID) (subjectIDs, courseIDs []uuid.UUID, err error)
	DepartmentEntities(ctx context.Context, departmentID uuid.UUID) (subjectIDs, courseIDs []uuid.UUID, err error)
}

// Scheduler: hook setelah commit (asynq). Boleh nil.
type Scheduler interface {
	ScheduleEventStart(ctx context.Context, key amodel.EventKey, at time.Time) error
	EnqueuePDFRender(ctx context.Context, formID uuid.UUID) error
}
