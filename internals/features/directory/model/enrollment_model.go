package model

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentOnGoing   EnrollmentStatus = "ON_GOING"
	EnrollmentFinished  EnrollmentStatus = "FINISHED"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
)

// Counts: status enrollment yang dianggap "terdaftar" untuk assessment.
func (s EnrollmentStatus) Counts() bool {
	return s == EnrollmentOnGoing || s == EnrollmentFinished
}

type SubjectEnrollmentModel struct {
	SubjectEnrollmentID        uuid.UUID        `gorm:"type:uuid;primaryKey;column:subject_enrollment_id" json:"subject_enrollment_id"`
	SubjectEnrollmentSubjectID uuid.UUID        `gorm:"type:uuid;not null;column:subject_enrollment_subject_id" json:"subject_enrollment_subject_id"`
	SubjectEnrollmentTraineeID uuid.UUID        `gorm:"type:uuid;not null;column:subject_enrollment_trainee_id" json:"subject_enrollment_trainee_id"`
	SubjectEnrollmentStatus    EnrollmentStatus `gorm:"type:varchar(16);not null;column:subject_enrollment_status" json:"subject_enrollment_status"`
}

func (SubjectEnrollmentModel) TableName() string { return "subject_enrollments" }

// Instruktur di level subject / course, dengan role di dalam assessment (EXAMINER / ASSESSMENT_REVIEWER).
type SubjectInstructorModel struct {
	SubjectInstructorID               uuid.UUID `gorm:"type:uuid;primaryKey;column:subject_instructor_id" json:"subject_instructor_id"`
	SubjectInstructorSubjectID        uuid.UUID `gorm:"type:uuid;not null;column:subject_instructor_subject_id" json:"subject_instructor_subject_id"`
	SubjectInstructorTrainerID        uuid.UUID `gorm:"type:uuid;not null;column:subject_instructor_trainer_id" json:"subject_instructor_trainer_id"`
	SubjectInstructorRoleInAssessment string    `gorm:"type:varchar(32);not null;column:subject_instructor_role_in_assessment" json:"subject_instructor_role_in_assessment"`
}

func (SubjectInstructorModel) TableName() string { return "subject_instructors" }

type CourseInstructorModel struct {
	CourseInstructorID               uuid.UUID `gorm:"type:uuid;primaryKey;column:course_instructor_id" json:"course_instructor_id"`
	CourseInstructorCourseID         uuid.UUID `gorm:"type:uuid;not null;column:course_instructor_course_id" json:"course_instructor_course_id"`
	CourseInstructorTrainerID        uuid.UUID `gorm:"type:uuid;not null;column:course_instructor_trainer_id" json:"course_instructor_trainer_id"`
	CourseInstructorRoleInAssessment string    `gorm:"type:varchar(32);not null;column:course_instructor_role_in_assessment" json:"course_instructor_role_in_assessment"`
}

func (CourseInstructorModel) TableName() string { return "course_instructors" }

/* =========================
   Read-side projections
========================= */

// EntityScope: tepat satu dari SubjectID / CourseID terisi.
type EntityScope struct {
	SubjectID *uuid.UUID
	CourseID  *uuid.UUID
}

func SubjectScope(id uuid.UUID) EntityScope { return EntityScope{SubjectID: &id} }
func CourseScope(id uuid.UUID) EntityScope  { return EntityScope{CourseID: &id} }

func (s EntityScope) Valid() bool { return (s.SubjectID == nil) != (s.CourseID == nil) }

func (s EntityScope) IsCourse() bool { return s.CourseID != nil }

func (s EntityScope) ID() uuid.UUID {
	if s.SubjectID != nil {
		return *s.SubjectID
	}
	if s.CourseID != nil {
		return *s.CourseID
	}
	return uuid.Nil
}

// EnrolledTrainee hasil getEnrolledTrainees (user + status enrollment).
type EnrolledTrainee struct {
	User             UserModel
	EnrollmentStatus EnrollmentStatus
}

// EntityInfo: ringkasan subject/course untuk validasi & response.
type EntityInfo struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"` // "SUBJECT" | "COURSE"
	DepartmentID uuid.UUID       `json:"department_id"`
	Status       LifecycleStatus `json:"status"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	PassScore    *float64        `json:"pass_score,omitempty"`
}
