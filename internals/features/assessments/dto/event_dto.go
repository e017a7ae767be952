package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/service"
	"trainingku_backend/internals/helpers/dbtime"
)

// EventKeyRequest mengidentifikasi satu event (body POST atau query GET).
type EventKeyRequest struct {
	TemplateID     uuid.UUID  `json:"template_id" validate:"required"`
	SubjectID      *uuid.UUID `json:"subject_id" validate:"omitempty"`
	CourseID       *uuid.UUID `json:"course_id" validate:"omitempty"`
	OccurrenceDate string     `json:"occurrence_date" validate:"required,datetime=2006-01-02"`
}

func (r *EventKeyRequest) Normalize() {
	r.OccurrenceDate = strings.TrimSpace(r.OccurrenceDate)
	r.SubjectID = nilIfZero(r.SubjectID)
	r.CourseID = nilIfZero(r.CourseID)
}

func (r EventKeyRequest) ToKey() (amodel.EventKey, error) {
	date, err := dbtime.ParseDate(r.OccurrenceDate, time.UTC)
	if err != nil {
		return amodel.EventKey{}, err
	}
	return amodel.EventKey{
		SubjectID:      r.SubjectID,
		CourseID:       r.CourseID,
		TemplateID:     r.TemplateID,
		OccurrenceDate: date,
	}, nil
}

type EventResponse struct {
	TemplateID     uuid.UUID          `json:"template_id"`
	SubjectID      *uuid.UUID         `json:"subject_id,omitempty"`
	CourseID       *uuid.UUID         `json:"course_id,omitempty"`
	OccurrenceDate string             `json:"occurrence_date"`
	Name           string             `json:"name"`
	Status         amodel.EventStatus `json:"status"`
	TotalTrainees  int                `json:"total_trainees"`
	TotalPassed    int                `json:"total_passed"`
	TotalFailed    int                `json:"total_failed"`
}

func FromEventSummary(e service.EventSummary) EventResponse {
	return EventResponse{
		TemplateID:     e.Key.TemplateID,
		SubjectID:      e.Key.SubjectID,
		CourseID:       e.Key.CourseID,
		OccurrenceDate: dbtime.FormatDate(e.Key.OccurrenceDate),
		Name:           e.Name,
		Status:         e.Status,
		TotalTrainees:  e.TotalTrainees,
		TotalPassed:    e.TotalPassed,
		TotalFailed:    e.TotalFailed,
	}
}

func FromEventSummaries(rows []service.EventSummary) []EventResponse {
	out := make([]EventResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromEventSummary(r))
	}
	return out
}

type DepartmentEventResponse struct {
	EventResponse
	TotalReviewedForm  int `json:"total_reviewed_form"`
	TotalCancelledForm int `json:"total_cancelled_form"`
	TotalTrainers      int `json:"total_trainers"`
}

func FromDepartmentEvents(rows []service.DepartmentEventSummary) []DepartmentEventResponse {
	out := make([]DepartmentEventResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, DepartmentEventResponse{
			EventResponse:      FromEventSummary(r.EventSummary),
			TotalReviewedForm:  r.TotalReviewedForm,
			TotalCancelledForm: r.TotalCancelledForm,
			TotalTrainers:      r.TotalTrainers,
		})
	}
	return out
}

// EventCountResponse: hasil start / archive (jumlah form yang berubah).
type EventCountResponse struct {
	TemplateID     uuid.UUID  `json:"template_id"`
	SubjectID      *uuid.UUID `json:"subject_id,omitempty"`
	CourseID       *uuid.UUID `json:"course_id,omitempty"`
	OccurrenceDate string     `json:"occurrence_date"`
	Affected       int64      `json:"affected"`
}

func FromEventCount(k amodel.EventKey, n int64) EventCountResponse {
	return EventCountResponse{
		TemplateID:     k.TemplateID,
		SubjectID:      k.SubjectID,
		CourseID:       k.CourseID,
		OccurrenceDate: dbtime.FormatDate(k.OccurrenceDate),
		Affected:       n,
	}
}
