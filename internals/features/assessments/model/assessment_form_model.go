// file: internals/features/assessments/model/assessment_form_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/*
   assessment_forms: satu baris per trainee per (template, occurrence date, subject|course).
   Tepat satu dari subject_id / course_id terisi; dijaga oleh creation engine, bukan constraint DB.
   Tidak pernah di-hard-delete (cancel = status).
*/
type AssessmentFormModel struct {
	AssessmentFormID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:assessment_form_id" json:"assessment_form_id"`
	AssessmentFormTemplateID uuid.UUID  `gorm:"type:uuid;not null;column:assessment_form_template_id" json:"assessment_form_template_id"`
	AssessmentFormName       string     `gorm:"type:varchar(255);not null;column:assessment_form_name" json:"assessment_form_name"`
	AssessmentFormEventName  string     `gorm:"type:varchar(255);not null;column:assessment_form_event_name" json:"assessment_form_event_name"`
	AssessmentFormSubjectID  *uuid.UUID `gorm:"type:uuid;column:assessment_form_subject_id" json:"assessment_form_subject_id,omitempty"`
	AssessmentFormCourseID   *uuid.UUID `gorm:"type:uuid;column:assessment_form_course_id" json:"assessment_form_course_id,omitempty"`

	// date-only, disimpan 00:00 UTC dari tanggal kalender
	AssessmentFormOccurrenceDate time.Time `gorm:"type:date;not null;column:assessment_form_occurrence_date" json:"assessment_form_occurrence_date"`

	AssessmentFormTraineeID       uuid.UUID  `gorm:"type:uuid;not null;column:assessment_form_trainee_id" json:"assessment_form_trainee_id"`
	AssessmentFormStatus          FormStatus `gorm:"type:varchar(24);not null;column:assessment_form_status" json:"assessment_form_status"`
	AssessmentFormIsTraineeLocked bool       `gorm:"not null;default:true;column:assessment_form_is_trainee_locked" json:"assessment_form_is_trainee_locked"`

	AssessmentFormSubmittedAt   *time.Time `gorm:"type:timestamptz;column:assessment_form_submitted_at" json:"assessment_form_submitted_at,omitempty"`
	AssessmentFormSubmittedByID *uuid.UUID `gorm:"type:uuid;column:assessment_form_submitted_by_id" json:"assessment_form_submitted_by_id,omitempty"`
	AssessmentFormComment       *string    `gorm:"type:text;column:assessment_form_comment" json:"assessment_form_comment,omitempty"`
	AssessmentFormApprovedByID  *uuid.UUID `gorm:"type:uuid;column:assessment_form_approved_by_id" json:"assessment_form_approved_by_id,omitempty"`
	AssessmentFormApprovedAt    *time.Time `gorm:"type:timestamptz;column:assessment_form_approved_at" json:"assessment_form_approved_at,omitempty"`

	AssessmentFormResultScore  *float64          `gorm:"type:numeric(6,2);column:assessment_form_result_score" json:"assessment_form_result_score,omitempty"`
	AssessmentFormResultText   *ResultText       `gorm:"type:varchar(16);column:assessment_form_result_text" json:"assessment_form_result_text,omitempty"`
	AssessmentFormScoreDetails datatypes.JSONMap `gorm:"type:jsonb;column:assessment_form_score_details" json:"assessment_form_score_details,omitempty"`
	AssessmentFormPDFURL       *string           `gorm:"type:text;column:assessment_form_pdf_url" json:"assessment_form_pdf_url,omitempty"`

	AssessmentFormCreatedByID uuid.UUID  `gorm:"type:uuid;not null;column:assessment_form_created_by_id" json:"assessment_form_created_by_id"`
	AssessmentFormUpdatedByID *uuid.UUID `gorm:"type:uuid;column:assessment_form_updated_by_id" json:"assessment_form_updated_by_id,omitempty"`
	AssessmentFormCreatedAt   time.Time  `gorm:"type:timestamptz;not null;column:assessment_form_created_at" json:"assessment_form_created_at"`
	AssessmentFormUpdatedAt   time.Time  `gorm:"type:timestamptz;not null;column:assessment_form_updated_at" json:"assessment_form_updated_at"`

	Sections []AssessmentSectionModel `gorm:"foreignKey:AssessmentSectionFormID;references:AssessmentFormID" json:"sections,omitempty"`
}

func (AssessmentFormModel) TableName() string { return "assessment_forms" }

// EventKey mengelompokkan form ke satu "event": (subject|course, template, occurrence date).
type EventKey struct {
	SubjectID      *uuid.UUID `json:"subject_id,omitempty"`
	CourseID       *uuid.UUID `json:"course_id,omitempty"`
	TemplateID     uuid.UUID  `json:"template_id"`
	OccurrenceDate time.Time  `json:"occurrence_date"`
}

func (f *AssessmentFormModel) EventKey() EventKey {
	return EventKey{
		SubjectID:      f.AssessmentFormSubjectID,
		CourseID:       f.AssessmentFormCourseID,
		TemplateID:     f.AssessmentFormTemplateID,
		OccurrenceDate: f.AssessmentFormOccurrenceDate,
	}
}

func (k EventKey) Matches(f *AssessmentFormModel) bool {
	return sameUUID(k.SubjectID, f.AssessmentFormSubjectID) &&
		sameUUID(k.CourseID, f.AssessmentFormCourseID) &&
		k.TemplateID == f.AssessmentFormTemplateID &&
		k.OccurrenceDate.Equal(f.AssessmentFormOccurrenceDate)
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
