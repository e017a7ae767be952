package model

import (
	"time"

	"github.com/google/uuid"
)

// Satu baris per (form, template section). assessed_by_id di-claim sekali (CAS), tidak pernah di-reset.
type AssessmentSectionModel struct {
	AssessmentSectionID                uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:assessment_section_id" json:"assessment_section_id"`
	AssessmentSectionFormID            uuid.UUID     `gorm:"type:uuid;not null;index;column:assessment_section_form_id" json:"assessment_section_form_id"`
	AssessmentSectionTemplateSectionID uuid.UUID     `gorm:"type:uuid;not null;column:assessment_section_template_section_id" json:"assessment_section_template_section_id"`
	AssessmentSectionAssessedByID      *uuid.UUID    `gorm:"type:uuid;column:assessment_section_assessed_by_id" json:"assessment_section_assessed_by_id,omitempty"`
	AssessmentSectionStatus            SectionStatus `gorm:"type:varchar(24);not null;column:assessment_section_status" json:"assessment_section_status"`
	AssessmentSectionCreatedAt         time.Time     `gorm:"type:timestamptz;not null;column:assessment_section_created_at" json:"assessment_section_created_at"`
	AssessmentSectionUpdatedAt         time.Time     `gorm:"type:timestamptz;not null;column:assessment_section_updated_at" json:"assessment_section_updated_at"`

	Values []AssessmentValueModel `gorm:"foreignKey:AssessmentValueSectionID;references:AssessmentSectionID" json:"values,omitempty"`
}

func (AssessmentSectionModel) TableName() string { return "assessment_sections" }

func (s *AssessmentSectionModel) Claimed() bool { return s.AssessmentSectionAssessedByID != nil }

func (s *AssessmentSectionModel) AssessedBy(userID uuid.UUID) bool {
	return s.AssessmentSectionAssessedByID != nil && *s.AssessmentSectionAssessedByID == userID
}

// Satu baris per (section, template field); dibuat kosong saat creation, hanya answer_value yang berubah.
type AssessmentValueModel struct {
	AssessmentValueID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:assessment_value_id" json:"assessment_value_id"`
	AssessmentValueSectionID       uuid.UUID  `gorm:"type:uuid;not null;index;column:assessment_value_section_id" json:"assessment_value_section_id"`
	AssessmentValueTemplateFieldID uuid.UUID  `gorm:"type:uuid;not null;column:assessment_value_template_field_id" json:"assessment_value_template_field_id"`
	AssessmentValueAnswerValue     *string    `gorm:"type:text;column:assessment_value_answer_value" json:"assessment_value_answer_value,omitempty"`
	AssessmentValueCreatedByID     uuid.UUID  `gorm:"type:uuid;not null;column:assessment_value_created_by_id" json:"assessment_value_created_by_id"`
	AssessmentValueUpdatedByID     *uuid.UUID `gorm:"type:uuid;column:assessment_value_updated_by_id" json:"assessment_value_updated_by_id,omitempty"`
	AssessmentValueCreatedAt       time.Time  `gorm:"type:timestamptz;not null;column:assessment_value_created_at" json:"assessment_value_created_at"`
	AssessmentValueUpdatedAt       time.Time  `gorm:"type:timestamptz;not null;column:assessment_value_updated_at" json:"assessment_value_updated_at"`
}

func (AssessmentValueModel) TableName() string { return "assessment_values" }
