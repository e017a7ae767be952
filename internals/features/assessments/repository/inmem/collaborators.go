package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"trainingku_backend/internals/constants"
	"trainingku_backend/internals/features/assessments/repository"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

/* =========================
   Templates
========================= */

type Templates struct {
	mu         sync.RWMutex
	structures map[uuid.UUID]tmodel.TemplateStructure
	Calls      int
}

func NewTemplates() *Templates {
	return &Templates{structures: map[uuid.UUID]tmodel.TemplateStructure{}}
}

func (t *Templates) Put(st tmodel.TemplateStructure) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.structures[st.Template.TemplateFormID] = st
}

func (t *Templates) GetStructure(_ context.Context, id uuid.UUID) (*tmodel.TemplateStructure, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls++
	st, ok := t.structures[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (t *Templates) GetPublishedStructure(ctx context.Context, id uuid.UUID) (*tmodel.TemplateStructure, error) {
	st, err := t.GetStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Template.TemplateFormStatus != tmodel.TemplateStatusPublished {
		return nil, repository.ErrNotFound
	}
	return st, nil
}

/* =========================
   Directory
========================= */

type Directory struct {
	mu sync.RWMutex

	users              map[uuid.UUID]dmodel.UserModel
	subjects           map[uuid.UUID]dmodel.SubjectModel
	courses            map[uuid.UUID]dmodel.CourseModel
	enrollments        []dmodel.SubjectEnrollmentModel
	subjectInstructors []dmodel.SubjectInstructorModel
	courseInstructors  []dmodel.CourseInstructorModel
}

func NewDirectory() *Directory {
	return &Directory{
		users:    map[uuid.UUID]dmodel.UserModel{},
		subjects: map[uuid.UUID]dmodel.SubjectModel{},
		courses:  map[uuid.UUID]dmodel.CourseModel{},
	}
}

func (d *Directory) AddUser(u dmodel.UserModel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.UserID] = u
}

func (d *Directory) AddCourse(c dmodel.CourseModel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.courses[c.CourseID] = c
}

func (d *Directory) AddSubject(s dmodel.SubjectModel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subjects[s.SubjectID] = s
}

func (d *Directory) Enroll(subjectID, traineeID uuid.UUID, status dmodel.EnrollmentStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enrollments = append(d.enrollments, dmodel.SubjectEnrollmentModel{
		SubjectEnrollmentID:        uuid.New(),
		SubjectEnrollmentSubjectID: subjectID,
		SubjectEnrollmentTraineeID: traineeID,
		SubjectEnrollmentStatus:    status,
	})
}

func (d *Directory) AssignSubject(subjectID, trainerID uuid.UUID, role string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subjectInstructors = append(d.subjectInstructors, dmodel.SubjectInstructorModel{
		SubjectInstructorID:               uuid.New(),
		SubjectInstructorSubjectID:        subjectID,
		SubjectInstructorTrainerID:        trainerID,
		SubjectInstructorRoleInAssessment: role,
	})
}

func (d *Directory) AssignCourse(courseID, trainerID uuid.UUID, role string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.courseInstructors = append(d.courseInstructors, dmodel.CourseInstructorModel{
		CourseInstructorID:               uuid.New(),
		CourseInstructorCourseID:         courseID,
		CourseInstructorTrainerID:        trainerID,
		CourseInstructorRoleInAssessment: role,
	})
}

func (d *Directory) FindUsers(_ context.Context, ids []uuid.UUID) ([]dmodel.UserModel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []dmodel.UserModel
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *Directory) UserMainRole(_ context.Context, userID uuid.UUID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return u.UserRoleName, nil
}

func (d *Directory) FindEntity(_ context.Context, scope dmodel.EntityScope) (*dmodel.EntityInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if scope.SubjectID != nil {
		s, ok := d.subjects[*scope.SubjectID]
		if !ok {
			return nil, repository.ErrNotFound
		}
		c, ok := d.courses[s.SubjectCourseID]
		if !ok {
			return nil, repository.ErrNotFound
		}
		return &dmodel.EntityInfo{
			ID: s.SubjectID, Name: s.SubjectName, Type: "SUBJECT",
			DepartmentID: c.CourseDepartmentID, Status: s.SubjectStatus,
			StartDate: s.SubjectStartDate, EndDate: s.SubjectEndDate, PassScore: s.SubjectPassScore,
		}, nil
	}
	if scope.CourseID != nil {
		c, ok := d.courses[*scope.CourseID]
		if !ok {
			return nil, repository.ErrNotFound
		}
		return &dmodel.EntityInfo{
			ID: c.CourseID, Name: c.CourseName, Type: "COURSE",
			DepartmentID: c.CourseDepartmentID, Status: c.CourseStatus,
			StartDate: c.CourseStartDate, EndDate: c.CourseEndDate, PassScore: c.CoursePassScore,
		}, nil
	}
	return nil, repository.ErrNotFound
}

func (d *Directory) EnrolledTrainees(_ context.Context, scope dmodel.EntityScope) ([]dmodel.EnrolledTrainee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	inScope := func(subjectID uuid.UUID) bool {
		if scope.SubjectID != nil {
			return subjectID == *scope.SubjectID
		}
		s, ok := d.subjects[subjectID]
		return ok && scope.CourseID != nil && s.SubjectCourseID == *scope.CourseID && s.SubjectStatus != dmodel.LifecycleCancelled
	}

	seen := map[uuid.UUID]bool{}
	var out []dmodel.EnrolledTrainee
	for _, e := range d.enrollments {
		if !e.SubjectEnrollmentStatus.Counts() || !inScope(e.SubjectEnrollmentSubjectID) || seen[e.SubjectEnrollmentTraineeID] {
			continue
		}
		u, ok := d.users[e.SubjectEnrollmentTraineeID]
		if !ok {
			continue
		}
		seen[u.UserID] = true
		out = append(out, dmodel.EnrolledTrainee{User: u, EnrollmentStatus: e.SubjectEnrollmentStatus})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.UserEID < out[j].User.UserEID })
	return out, nil
}

func (d *Directory) InstructorRole(_ context.Context, scope dmodel.EntityScope, userID uuid.UUID) (*string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var subjectRoles, courseRoles []string
	switch {
	case scope.SubjectID != nil:
		subj := d.subjects[*scope.SubjectID]
		for _, si := range d.subjectInstructors {
			if si.SubjectInstructorSubjectID == *scope.SubjectID && si.SubjectInstructorTrainerID == userID {
				subjectRoles = append(subjectRoles, si.SubjectInstructorRoleInAssessment)
			}
		}
		for _, ci := range d.courseInstructors {
			if ci.CourseInstructorCourseID == subj.SubjectCourseID && ci.CourseInstructorTrainerID == userID {
				courseRoles = append(courseRoles, ci.CourseInstructorRoleInAssessment)
			}
		}
		if r := pickRole(subjectRoles); r != nil {
			return r, nil
		}
		return pickRole(courseRoles), nil
	case scope.CourseID != nil:
		for _, ci := range d.courseInstructors {
			if ci.CourseInstructorCourseID == *scope.CourseID && ci.CourseInstructorTrainerID == userID {
				courseRoles = append(courseRoles, ci.CourseInstructorRoleInAssessment)
			}
		}
		for _, si := range d.subjectInstructors {
			if s, ok := d.subjects[si.SubjectInstructorSubjectID]; ok && s.SubjectCourseID == *scope.CourseID && si.SubjectInstructorTrainerID == userID {
				subjectRoles = append(subjectRoles, si.SubjectInstructorRoleInAssessment)
			}
		}
		if r := pickRole(courseRoles); r != nil {
			return r, nil
		}
		return pickRole(subjectRoles), nil
	}
	return nil, nil
}

func pickRole(roles []string) *string {
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if r == constants.AssessmentRoleReviewer {
			out := r
			return &out
		}
	}
	out := roles[0]
	return &out
}

func (d *Directory) AssignedEntities(_ context.Context, trainerID uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	subjects := map[uuid.UUID]bool{}
	courses := map[uuid.UUID]bool{}
	for _, si := range d.subjectInstructors {
		if si.SubjectInstructorTrainerID == trainerID {
			subjects[si.SubjectInstructorSubjectID] = true
			if s, ok := d.subjects[si.SubjectInstructorSubjectID]; ok {
				courses[s.SubjectCourseID] = true
			}
		}
	}
	for _, ci := range d.courseInstructors {
		if ci.CourseInstructorTrainerID == trainerID {
			courses[ci.CourseInstructorCourseID] = true
			for _, s := range d.subjects {
				if s.SubjectCourseID == ci.CourseInstructorCourseID {
					subjects[s.SubjectID] = true
				}
			}
		}
	}
	return keys(subjects), keys(courses), nil
}

func (d *Directory) DepartmentEntities(_ context.Context, departmentID uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	courses := map[uuid.UUID]bool{}
	for _, c := range d.courses {
		if c.CourseDepartmentID == departmentID {
			courses[c.CourseID] = true
		}
	}
	subjects := map[uuid.UUID]bool{}
	for _, s := range d.subjects {
		if courses[s.SubjectCourseID] {
			subjects[s.SubjectID] = true
		}
	}
	return keys(subjects), keys(courses), nil
}

func keys(m map[uuid.UUID]bool) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
