package jobs

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/helpers/dbtime"
)

const (
	TypeStartEvent = "assessment:start_event"
	TypeRenderPDF  = "assessment:render_pdf"
)

// StartEventPayload membawa EventKey; tanggal dikirim sebagai "YYYY-MM-DD".
type StartEventPayload struct {
	SubjectID      *uuid.UUID `json:"subject_id,omitempty"`
	CourseID       *uuid.UUID `json:"course_id,omitempty"`
	TemplateID     uuid.UUID  `json:"template_id"`
	OccurrenceDate string     `json:"occurrence_date"`
}

func (p StartEventPayload) Key() (amodel.EventKey, error) {
	date, err := dbtime.ParseDate(p.OccurrenceDate, time.UTC)
	if err != nil {
		return amodel.EventKey{}, fmt.Errorf("invalid occurrence_date %q: %w", p.OccurrenceDate, err)
	}
	return amodel.EventKey{
		SubjectID:      p.SubjectID,
		CourseID:       p.CourseID,
		TemplateID:     p.TemplateID,
		OccurrenceDate: date,
	}, nil
}

type RenderPDFPayload struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
}

func NewStartEventTask(key amodel.EventKey) (*asynq.Task, error) {
	payload, err := sonic.Marshal(StartEventPayload{
		SubjectID:      key.SubjectID,
		CourseID:       key.CourseID,
		TemplateID:     key.TemplateID,
		OccurrenceDate: dbtime.FormatDate(key.OccurrenceDate),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeStartEvent, payload), nil
}

func NewRenderPDFTask(formID uuid.UUID) (*asynq.Task, error) {
	payload, err := sonic.Marshal(RenderPDFPayload{AssessmentID: formID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRenderPDF, payload), nil
}

// StartEventTaskID: satu task per event, create berulang untuk event yang sama tidak menumpuk.
func StartEventTaskID(key amodel.EventKey) string {
	scope := "subject"
	var entity uuid.UUID
	switch {
	case key.SubjectID != nil:
		entity = *key.SubjectID
	case key.CourseID != nil:
		scope, entity = "course", *key.CourseID
	}
	return fmt.Sprintf("start_event:%s:%s:%s:%s", scope, entity, key.TemplateID, dbtime.FormatDate(key.OccurrenceDate))
}

func RenderPDFTaskID(formID uuid.UUID) string {
	return fmt.Sprintf("render_pdf:%s", formID)
}
