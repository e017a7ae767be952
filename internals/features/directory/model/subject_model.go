package model

import (
	"time"

	"github.com/google/uuid"
)

type LifecycleStatus string

const (
	LifecycleNotStarted LifecycleStatus = "NOT_STARTED"
	LifecycleOnGoing    LifecycleStatus = "ON_GOING"
	LifecycleFinished   LifecycleStatus = "FINISHED"
	LifecycleCancelled  LifecycleStatus = "CANCELLED"
)

// Assessable: subject/course yang boleh punya assessment baru.
func (s LifecycleStatus) Assessable() bool {
	return s == LifecycleNotStarted || s == LifecycleOnGoing
}

type CourseModel struct {
	CourseID           uuid.UUID       `gorm:"type:uuid;primaryKey;column:course_id" json:"course_id"`
	CourseName         string          `gorm:"type:varchar(255);not null;column:course_name" json:"course_name"`
	CourseDepartmentID uuid.UUID       `gorm:"type:uuid;not null;column:course_department_id" json:"course_department_id"`
	CourseStatus       LifecycleStatus `gorm:"type:varchar(16);not null;column:course_status" json:"course_status"`
	CourseStartDate    time.Time       `gorm:"type:date;not null;column:course_start_date" json:"course_start_date"`
	CourseEndDate      *time.Time      `gorm:"type:date;column:course_end_date" json:"course_end_date,omitempty"`
	CoursePassScore    *float64        `gorm:"type:numeric(5,2);column:course_pass_score" json:"course_pass_score,omitempty"`
}

func (CourseModel) TableName() string { return "courses" }

type SubjectModel struct {
	SubjectID        uuid.UUID       `gorm:"type:uuid;primaryKey;column:subject_id" json:"subject_id"`
	SubjectCourseID  uuid.UUID       `gorm:"type:uuid;not null;column:subject_course_id" json:"subject_course_id"`
	SubjectName      string          `gorm:"type:varchar(255);not null;column:subject_name" json:"subject_name"`
	SubjectStatus    LifecycleStatus `gorm:"type:varchar(16);not null;column:subject_status" json:"subject_status"`
	SubjectStartDate time.Time       `gorm:"type:date;not null;column:subject_start_date" json:"subject_start_date"`
	SubjectEndDate   *time.Time      `gorm:"type:date;column:subject_end_date" json:"subject_end_date,omitempty"`
	SubjectPassScore *float64        `gorm:"type:numeric(5,2);column:subject_pass_score" json:"subject_pass_score,omitempty"`
}

func (SubjectModel) TableName() string { return "subjects" }
