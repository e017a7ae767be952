// file: internals/features/assessments/dto/assessment_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/service"
	dmodel "trainingku_backend/internals/features/directory/model"
	"trainingku_backend/internals/helpers/dbtime"
)

/* ==============================
   CREATE (POST /assessments)
============================== */

type CreateAssessmentRequest struct {
	TemplateID     uuid.UUID   `json:"template_id" validate:"required"`
	SubjectID      *uuid.UUID  `json:"subject_id" validate:"omitempty"`
	CourseID       *uuid.UUID  `json:"course_id" validate:"omitempty"`
	OccurrenceDate string      `json:"occurrence_date" validate:"required,datetime=2006-01-02"`
	Name           string      `json:"name" validate:"required,max=200"`
	TraineeIDs     []uuid.UUID `json:"trainee_ids" validate:"required,min=1,max=500,dive,required"`
}

func (r *CreateAssessmentRequest) Normalize() {
	r.Name = norm.NFC.String(strings.TrimSpace(r.Name))
	r.OccurrenceDate = strings.TrimSpace(r.OccurrenceDate)
	r.SubjectID = nilIfZero(r.SubjectID)
	r.CourseID = nilIfZero(r.CourseID)
}

func (r CreateAssessmentRequest) ToInput(loc *time.Location) (service.CreateInput, error) {
	date, err := dbtime.ParseDate(r.OccurrenceDate, loc)
	if err != nil {
		return service.CreateInput{}, err
	}
	return service.CreateInput{
		TemplateID:     r.TemplateID,
		SubjectID:      r.SubjectID,
		CourseID:       r.CourseID,
		OccurrenceDate: date,
		Name:           r.Name,
		TraineeIDs:     r.TraineeIDs,
	}, nil
}

/* ==============================
   BULK (POST /assessments/bulk)
============================== */

type BulkCreateAssessmentRequest struct {
	TemplateID        uuid.UUID   `json:"template_id" validate:"required"`
	SubjectID         *uuid.UUID  `json:"subject_id" validate:"omitempty"`
	CourseID          *uuid.UUID  `json:"course_id" validate:"omitempty"`
	OccurrenceDate    string      `json:"occurrence_date" validate:"required,datetime=2006-01-02"`
	Name              string      `json:"name" validate:"required,max=200"`
	ExcludeTraineeIDs []uuid.UUID `json:"exclude_trainee_ids" validate:"omitempty,dive,required"`
}

func (r *BulkCreateAssessmentRequest) Normalize() {
	r.Name = norm.NFC.String(strings.TrimSpace(r.Name))
	r.OccurrenceDate = strings.TrimSpace(r.OccurrenceDate)
	r.SubjectID = nilIfZero(r.SubjectID)
	r.CourseID = nilIfZero(r.CourseID)
}

func (r BulkCreateAssessmentRequest) ToInput(loc *time.Location) (service.BulkCreateInput, error) {
	date, err := dbtime.ParseDate(r.OccurrenceDate, loc)
	if err != nil {
		return service.BulkCreateInput{}, err
	}
	return service.BulkCreateInput{
		TemplateID:        r.TemplateID,
		SubjectID:         r.SubjectID,
		CourseID:          r.CourseID,
		OccurrenceDate:    date,
		Name:              r.Name,
		ExcludeTraineeIDs: r.ExcludeTraineeIDs,
	}, nil
}

func nilIfZero(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

/* ==============================
   RESPONSE
============================== */

type AssessmentResponse struct {
	AssessmentID    uuid.UUID          `json:"assessment_id"`
	Name            string             `json:"name"`
	EventName       string             `json:"event_name"`
	TemplateID      uuid.UUID          `json:"template_id"`
	SubjectID       *uuid.UUID         `json:"subject_id,omitempty"`
	CourseID        *uuid.UUID         `json:"course_id,omitempty"`
	OccurrenceDate  string             `json:"occurrence_date"`
	TraineeID       uuid.UUID          `json:"trainee_id"`
	Status          amodel.FormStatus  `json:"status"`
	IsTraineeLocked bool               `json:"is_trainee_locked"`
	ResultScore     *float64           `json:"result_score,omitempty"`
	ResultText      *amodel.ResultText `json:"result_text,omitempty"`
	Comment         *string            `json:"comment,omitempty"`
	SubmittedAt     *time.Time         `json:"submitted_at,omitempty"`
	SubmittedByID   *uuid.UUID         `json:"submitted_by_id,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	ApprovedByID    *uuid.UUID         `json:"approved_by_id,omitempty"`
	PDFURL          *string            `json:"pdf_url,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func FromModel(m amodel.AssessmentFormModel) AssessmentResponse {
	return AssessmentResponse{
		AssessmentID:    m.AssessmentFormID,
		Name:            m.AssessmentFormName,
		EventName:       m.AssessmentFormEventName,
		TemplateID:      m.AssessmentFormTemplateID,
		SubjectID:       m.AssessmentFormSubjectID,
		CourseID:        m.AssessmentFormCourseID,
		OccurrenceDate:  dbtime.FormatDate(m.AssessmentFormOccurrenceDate),
		TraineeID:       m.AssessmentFormTraineeID,
		Status:          m.AssessmentFormStatus,
		IsTraineeLocked: m.AssessmentFormIsTraineeLocked,
		ResultScore:     m.AssessmentFormResultScore,
		ResultText:      m.AssessmentFormResultText,
		Comment:         m.AssessmentFormComment,
		SubmittedAt:     m.AssessmentFormSubmittedAt,
		SubmittedByID:   m.AssessmentFormSubmittedByID,
		ApprovedAt:      m.AssessmentFormApprovedAt,
		ApprovedByID:    m.AssessmentFormApprovedByID,
		PDFURL:          m.AssessmentFormPDFURL,
		CreatedAt:       m.AssessmentFormCreatedAt,
		UpdatedAt:       m.AssessmentFormUpdatedAt,
	}
}

func FromModels(rows []amodel.AssessmentFormModel) []AssessmentResponse {
	out := make([]AssessmentResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromModel(r))
	}
	return out
}

type AssessmentDetailResponse struct {
	AssessmentResponse
	TemplateName   string             `json:"template_name"`
	Entity         *dmodel.EntityInfo `json:"entity"`
	DraftSections  int                `json:"draft_sections"`
	EffectiveTotal int                `json:"effective_total_sections"`
	AssessmentRole *string            `json:"assessment_role,omitempty"`
	ScoreDetails   map[string]any     `json:"score_details,omitempty"`
}

func FromDetail(d *service.AssessmentDetail) AssessmentDetailResponse {
	out := AssessmentDetailResponse{
		AssessmentResponse: FromModel(d.Form),
		TemplateName:       d.TemplateName,
		Entity:             d.Entity,
		DraftSections:      d.DraftSections,
		EffectiveTotal:     d.EffectiveTotal,
		AssessmentRole:     d.AssessmentRole,
	}
	if len(d.Form.AssessmentFormScoreDetails) > 0 {
		out.ScoreDetails = map[string]any(d.Form.AssessmentFormScoreDetails)
	}
	return out
}

type CreateAssessmentResponse struct {
	Assessments  []AssessmentResponse `json:"assessments"`
	TotalCreated int                  `json:"total_created"`
}

func FromCreateResult(r *service.CreateResult) CreateAssessmentResponse {
	return CreateAssessmentResponse{
		Assessments:  FromModels(r.Assessments),
		TotalCreated: r.TotalCreated,
	}
}

type BulkCreateAssessmentResponse struct {
	Assessments     []AssessmentResponse     `json:"assessments"`
	TotalCreated    int                      `json:"total_created"`
	TotalEnrolled   int                      `json:"total_enrolled"`
	SkippedTrainees []service.SkippedTrainee `json:"skipped_trainees"`
	EntityInfo      *dmodel.EntityInfo       `json:"entity_info"`
}

func FromBulkResult(r *service.BulkCreateResult) BulkCreateAssessmentResponse {
	skipped := r.SkippedTrainees
	if skipped == nil {
		skipped = []service.SkippedTrainee{}
	}
	return BulkCreateAssessmentResponse{
		Assessments:     FromModels(r.Assessments),
		TotalCreated:    r.TotalCreated,
		TotalEnrolled:   r.TotalEnrolled,
		SkippedTrainees: skipped,
		EntityInfo:      r.EntityInfo,
	}
}
