// file: internals/features/assessments/repository/directory_reader.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainingku_backend/internals/constants"
	dmodel "trainingku_backend/internals/features/directory/model"
)

// GormDirectory menjawab pertanyaan identitas/enrollment dari tabel milik modul lain (read-only).
type GormDirectory struct {
	DB *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{DB: db}
}

func (d *GormDirectory) FindUsers(ctx context.Context, ids []uuid.UUID) ([]dmodel.UserModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []dmodel.UserModel
	if err := d.DB.WithContext(ctx).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (d *GormDirectory) UserMainRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var roles []string
	if err := d.DB.WithContext(ctx).
		Model(&dmodel.UserModel{}).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("user_role_name", &roles).Error; err != nil {
		return "", classify(err)
	}
	if len(roles) == 0 {
		return "", ErrNotFound
	}
	return roles[0], nil
}

func (d *GormDirectory) FindEntity(ctx context.Context, scope dmodel.EntityScope) (*dmodel.EntityInfo, error) {
	db := d.DB.WithContext(ctx)

	if scope.SubjectID != nil {
		var subj dmodel.SubjectModel
		if err := db.Where("subject_id = ?", *scope.SubjectID).Take(&subj).Error; err != nil {
			return nil, classify(err)
		}
		var course dmodel.CourseModel
		if err := db.Where("course_id = ?", subj.SubjectCourseID).Take(&course).Error; err != nil {
			return nil, classify(err)
		}
		return &dmodel.EntityInfo{
			ID:           subj.SubjectID,
			Name:         subj.SubjectName,
			Type:         "SUBJECT",
			DepartmentID: course.CourseDepartmentID,
			Status:       subj.SubjectStatus,
			StartDate:    subj.SubjectStartDate,
			EndDate:      subj.SubjectEndDate,
			PassScore:    subj.SubjectPassScore,
		}, nil
	}

	if scope.CourseID == nil {
		return nil, ErrNotFound
	}
	var course dmodel.CourseModel
	if err := db.Where("course_id = ?", *scope.CourseID).Take(&course).Error; err != nil {
		return nil, classify(err)
	}
	return &dmodel.EntityInfo{
		ID:           course.CourseID,
		Name:         course.CourseName,
		Type:         "COURSE",
		DepartmentID: course.CourseDepartmentID,
		Status:       course.CourseStatus,
		StartDate:    course.CourseStartDate,
		EndDate:      course.CourseEndDate,
		PassScore:    course.CoursePassScore,
	}, nil
}

type enrolledRow struct {
	dmodel.UserModel `gorm:"embedded"`
	EnrollmentStatus dmodel.EnrollmentStatus `gorm:"column:enrollment_status"`
}

var countedEnrollment = []dmodel.EnrollmentStatus{dmodel.EnrollmentOnGoing, dmodel.EnrollmentFinished}

// EnrolledTrainees: subject → enrollment subject itu; course → enrollment di subject course yang tidak CANCELLED.
func (d *GormDirectory) EnrolledTrainees(ctx context.Context, scope dmodel.EntityScope) ([]dmodel.EnrolledTrainee, error) {
	q := d.DB.WithContext(ctx).
		Table("subject_enrollments AS e").
		Select("u.*, e.subject_enrollment_status AS enrollment_status").
		Joins("JOIN users u ON u.user_id = e.subject_enrollment_trainee_id").
		Where("e.subject_enrollment_status IN ?", countedEnrollment)

	switch {
	case scope.SubjectID != nil:
		q = q.Where("e.subject_enrollment_subject_id = ?", *scope.SubjectID)
	case scope.CourseID != nil:
		q = q.Joins("JOIN subjects s ON s.subject_id = e.subject_enrollment_subject_id").
			Where("s.subject_course_id = ? AND s.subject_status <> ?", *scope.CourseID, dmodel.LifecycleCancelled)
	default:
		return nil, ErrNotFound
	}

	var rows []enrolledRow
	if err := q.Order("u.user_eid ASC").Scan(&rows).Error; err != nil {
		return nil, classify(err)
	}

	seen := make(map[uuid.UUID]bool, len(rows))
	out := make([]dmodel.EnrolledTrainee, 0, len(rows))
	for _, r := range rows {
		if seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		out = append(out, dmodel.EnrolledTrainee{User: r.UserModel, EnrollmentStatus: r.EnrollmentStatus})
	}
	return out, nil
}

// InstructorRole: role trainer di subject/course; fallback ke level course (untuk subject)
// atau ke subject-subject di dalam course (untuk course). Reviewer diprioritaskan.
func (d *GormDirectory) InstructorRole(ctx context.Context, scope dmodel.EntityScope, userID uuid.UUID) (*string, error) {
	db := d.DB.WithContext(ctx)
	const reviewerFirst = "CASE WHEN role = '" + constants.AssessmentRoleReviewer + "' THEN 0 ELSE 1 END"

	type roleRow struct {
		Role string `gorm:"column:role"`
	}
	first := func(q *gorm.DB) (*string, error) {
		var r roleRow
		err := q.Order(reviewerFirst).Limit(1).Take(&r).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, classify(err)
		}
		return &r.Role, nil
	}

	if scope.SubjectID != nil {
		role, err := first(db.Table("subject_instructors").
			Select("subject_instructor_role_in_assessment AS role").
			Where("subject_instructor_subject_id = ? AND subject_instructor_trainer_id = ?", *scope.SubjectID, userID))
		if err != nil || role != nil {
			return role, err
		}
		return first(db.Table("course_instructors AS ci").
			Select("ci.course_instructor_role_in_assessment AS role").
			Joins("JOIN subjects s ON s.subject_course_id = ci.course_instructor_course_id").
			Where("s.subject_id = ? AND ci.course_instructor_trainer_id = ?", *scope.SubjectID, userID))
	}
	if scope.CourseID != nil {
		role, err := first(db.Table("course_instructors").
			Select("course_instructor_role_in_assessment AS role").
			Where("course_instructor_course_id = ? AND course_instructor_trainer_id = ?", *scope.CourseID, userID))
		if err != nil || role != nil {
			return role, err
		}
		return first(db.Table("subject_instructors AS si").
			Select("si.subject_instructor_role_in_assessment AS role").
			Joins("JOIN subjects s ON s.subject_id = si.subject_instructor_subject_id").
			Where("s.subject_course_id = ? AND si.subject_instructor_trainer_id = ?", *scope.CourseID, userID))
	}
	return nil, nil
}

// AssignedEntities: subject & course tempat trainer ditugaskan, termasuk turunan/induknya.
func (d *GormDirectory) AssignedEntities(ctx context.Context, trainerID uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	db := d.DB.WithContext(ctx)

	var subjectIDs []uuid.UUID
	if err := db.Raw(`
		SELECT si.subject_instructor_subject_id FROM subject_instructors si
		WHERE si.subject_instructor_trainer_id = ?
		UNION
		SELECT s.subject_id FROM subjects s
		JOIN course_instructors ci ON ci.course_instructor_course_id = s.subject_course_id
		WHERE ci.course_instructor_trainer_id = ?`, trainerID, trainerID).
		Scan(&subjectIDs).Error; err != nil {
		return nil, nil, classify(err)
	}

	var courseIDs []uuid.UUID
	if err := db.Raw(`
		SELECT ci.course_instructor_course_id FROM course_instructors ci
		WHERE ci.course_instructor_trainer_id = ?
		UNION
		SELECT s.subject_course_id FROM subjects s
		JOIN subject_instructors si ON si.subject_instructor_subject_id = s.subject_id
		WHERE si.subject_instructor_trainer_id = ?`, trainerID, trainerID).
		Scan(&courseIDs).Error; err != nil {
		return nil, nil, classify(err)
	}
	return subjectIDs, courseIDs, nil
}

// DepartmentEntities: semua course milik department + subject di dalamnya.
func (d *GormDirectory) DepartmentEntities(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	db := d.DB.WithContext(ctx)

	var courseIDs []uuid.UUID
	if err := db.Model(&dmodel.CourseModel{}).
		Where("course_department_id = ?", departmentID).
		Pluck("course_id", &courseIDs).Error; err != nil {
		return nil, nil, classify(err)
	}
	if len(courseIDs) == 0 {
		return nil, nil, nil
	}
	var subjectIDs []uuid.UUID
	if err := db.Model(&dmodel.SubjectModel{}).
		Where("subject_course_id IN ?", courseIDs).
		Pluck("subject_id", &subjectIDs).Error; err != nil {
		return nil, nil, classify(err)
	}
	return subjectIDs, courseIDs, nil
}
