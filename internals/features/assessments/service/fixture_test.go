package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trainingku_backend/internals/constants"
	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/repository/inmem"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

/* =========================
   Scheduler fake
========================= */

type fakeScheduler struct {
	mu      sync.Mutex
	started []amodel.EventKey
	renders []uuid.UUID
}

func (f *fakeScheduler) ScheduleEventStart(_ context.Context, key amodel.EventKey, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, key)
	return nil
}

func (f *fakeScheduler) EnqueuePDFRender(_ context.Context, formID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders = append(f.renders, formID)
	return nil
}

/* =========================
   Fixture
========================= */

type fixture struct {
	svc       *Service
	store     *inmem.Store
	templates *inmem.Templates
	dir       *inmem.Directory
	sched     *fakeScheduler
	now       time.Time

	departmentID uuid.UUID
	courseID     uuid.UUID
	subjectID    uuid.UUID

	examiner  helperAuth.Actor
	examiner2 helperAuth.Actor
	reviewer  helperAuth.Actor
	deptHead  helperAuth.Actor
	admin     helperAuth.Actor
	trainees  []helperAuth.Actor

	// template field id per (template section id, field type)
	fields map[uuid.UUID]map[tmodel.FieldType]uuid.UUID
}

var fixtureToday = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:        inmem.NewStore(),
		templates:    inmem.NewTemplates(),
		dir:          inmem.NewDirectory(),
		sched:        &fakeScheduler{},
		now:          fixtureToday.Add(3 * time.Hour),
		departmentID: uuid.New(),
		courseID:     uuid.New(),
		subjectID:    uuid.New(),
		fields:       map[uuid.UUID]map[tmodel.FieldType]uuid.UUID{},
	}
	f.svc = NewService(f.store, f.templates, f.dir, f.sched, time.UTC)
	f.svc.Now = func() time.Time { return f.now }

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	f.dir.AddCourse(dmodel.CourseModel{
		CourseID: f.courseID, CourseName: "Basic Flight", CourseDepartmentID: f.departmentID,
		CourseStatus: dmodel.LifecycleOnGoing, CourseStartDate: start, CourseEndDate: &end, CoursePassScore: ptr(75.0),
	})
	f.dir.AddSubject(dmodel.SubjectModel{
		SubjectID: f.subjectID, SubjectCourseID: f.courseID, SubjectName: "Navigation",
		SubjectStatus: dmodel.LifecycleOnGoing, SubjectStartDate: start, SubjectEndDate: &end, SubjectPassScore: ptr(80.0),
	})

	f.examiner = f.addUser("TR-1", "Budi", constants.RoleTrainer, nil)
	f.examiner2 = f.addUser("TR-2", "Sari", constants.RoleTrainer, nil)
	f.reviewer = f.addUser("TR-3", "Joko", constants.RoleTrainer, nil)
	f.deptHead = f.addUser("DH-1", "Rina", constants.RoleDepartmentHead, &f.departmentID)
	f.admin = f.addUser("AD-1", "Admin", constants.RoleAdministrator, nil)
	f.dir.AssignSubject(f.subjectID, f.examiner.UserID, constants.AssessmentRoleExaminer)
	f.dir.AssignSubject(f.subjectID, f.examiner2.UserID, constants.AssessmentRoleExaminer)
	f.dir.AssignSubject(f.subjectID, f.reviewer.UserID, constants.AssessmentRoleReviewer)

	for i := 1; i <= 5; i++ {
		tr := f.addUser(fmt.Sprintf("EID-%03d", i), "Trainee", constants.RoleTrainee, nil)
		f.dir.Enroll(f.subjectID, tr.UserID, dmodel.EnrollmentOnGoing)
		f.trainees = append(f.trainees, tr)
	}
	return f
}

func (f *fixture) addUser(eid, first, role string, dept *uuid.UUID) helperAuth.Actor {
	id := uuid.New()
	f.dir.AddUser(dmodel.UserModel{
		UserID: id, UserEID: eid, UserFirstName: first, UserLastName: "Test",
		UserEmail: eid + "@example.test", UserStatus: dmodel.UserStatusActive,
		UserRoleName: role, UserDepartmentID: dept,
	})
	return helperAuth.Actor{UserID: id, Role: role}
}

type sectionSpec struct {
	name        string
	editBy      tmodel.EditBy
	submittable bool
	types       []tmodel.FieldType
	roleField   *string
}

// addTemplate mendaftarkan template PUBLISHED; return template id + template section id sesuai urutan.
func (f *fixture) addTemplate(specs ...sectionSpec) (uuid.UUID, []uuid.UUID) {
	tplID := uuid.New()
	st := tmodel.TemplateStructure{Template: tmodel.TemplateFormModel{
		TemplateFormID: tplID, TemplateFormName: "Checkride", TemplateFormDepartmentID: f.departmentID,
		TemplateFormStatus: tmodel.TemplateStatusPublished, TemplateFormVersion: 1,
	}}
	var ids []uuid.UUID
	for i, sp := range specs {
		secID := uuid.New()
		ids = append(ids, secID)
		f.fields[secID] = map[tmodel.FieldType]uuid.UUID{}
		ss := tmodel.SectionStructure{Section: tmodel.TemplateSectionModel{
			TemplateSectionID: secID, TemplateSectionTemplateID: tplID, TemplateSectionName: sp.name,
			TemplateSectionDisplayOrder: i + 1, TemplateSectionEditBy: sp.editBy,
			TemplateSectionIsSubmittable: sp.submittable,
		}}
		for j, ft := range sp.types {
			fieldID := uuid.New()
			f.fields[secID][ft] = fieldID
			fm := tmodel.TemplateFieldModel{
				TemplateFieldID: fieldID, TemplateFieldSectionID: secID, TemplateFieldLabel: string(ft),
				TemplateFieldName: string(ft), TemplateFieldType: ft, TemplateFieldDisplayOrder: j + 1,
			}
			if j == 0 && sp.roleField != nil {
				fm.TemplateFieldRoleRequired = sp.roleField
			}
			ss.Fields = append(ss.Fields, fm)
		}
		st.Sections = append(st.Sections, ss)
	}
	f.templates.Put(st)
	return tplID, ids
}

// scoreTemplate: satu section TRAINER dengan final score + signature assessor.
func (f *fixture) scoreTemplate() (uuid.UUID, uuid.UUID) {
	tpl, secs := f.addTemplate(sectionSpec{
		name: "Evaluation", editBy: tmodel.EditByTrainer, submittable: true,
		types: []tmodel.FieldType{tmodel.FieldTypeFinalScoreNum, tmodel.FieldTypeFinalScoreText, tmodel.FieldTypeSignatureImg},
	})
	return tpl, secs[0]
}

func (f *fixture) create(t *testing.T, tplID uuid.UUID, date time.Time, trainees ...helperAuth.Actor) []amodel.AssessmentFormModel {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(trainees))
	for _, tr := range trainees {
		ids = append(ids, tr.UserID)
	}
	res, err := f.svc.CreateAssessments(context.Background(), f.admin, CreateInput{
		TemplateID: tplID, SubjectID: &f.subjectID, OccurrenceDate: date, Name: "Checkride March", TraineeIDs: ids,
	})
	require.NoError(t, err)
	require.Len(t, res.Assessments, len(trainees))
	return res.Assessments
}

func (f *fixture) section(t *testing.T, formID, templateSectionID uuid.UUID) amodel.AssessmentSectionModel {
	t.Helper()
	sections, err := f.store.ListSections(context.Background(), formID)
	require.NoError(t, err)
	for _, s := range sections {
		if s.AssessmentSectionTemplateSectionID == templateSectionID {
			return s
		}
	}
	t.Fatalf("section for template section %s not found", templateSectionID)
	return amodel.AssessmentSectionModel{}
}

func (f *fixture) value(t *testing.T, sectionID, templateSectionID uuid.UUID, ft tmodel.FieldType) amodel.AssessmentValueModel {
	t.Helper()
	values, err := f.store.ListValuesBySections(context.Background(), []uuid.UUID{sectionID})
	require.NoError(t, err)
	fieldID := f.fields[templateSectionID][ft]
	for _, v := range values {
		if v.AssessmentValueTemplateFieldID == fieldID {
			return v
		}
	}
	t.Fatalf("value for field %s not found", ft)
	return amodel.AssessmentValueModel{}
}

// save mengisi satu field pada section (template section id) form.
func (f *fixture) save(t *testing.T, actor helperAuth.Actor, formID, tsecID uuid.UUID, ft tmodel.FieldType, answer string) (*StatusSnapshot, error) {
	t.Helper()
	sec := f.section(t, formID, tsecID)
	v := f.value(t, sec.AssessmentSectionID, tsecID, ft)
	return f.svc.SaveSectionValues(context.Background(), actor, formID, sec.AssessmentSectionID, SectionValuesInput{
		Values: []ValueInput{{ValueID: v.AssessmentValueID, Answer: &answer}},
	})
}

func (f *fixture) form(t *testing.T, id uuid.UUID) amodel.AssessmentFormModel {
	t.Helper()
	form, err := f.store.FindForm(context.Background(), id)
	require.NoError(t, err)
	return *form
}

// requireConsistent: status tersimpan == status hasil derivasi ulang dari section.
func (f *fixture) requireConsistent(t *testing.T, formID uuid.UUID) {
	t.Helper()
	form := f.form(t, formID)
	structure, err := f.templates.GetStructure(context.Background(), form.AssessmentFormTemplateID)
	require.NoError(t, err)
	sections, err := f.store.ListSections(context.Background(), formID)
	require.NoError(t, err)
	snap := lifecycle.Count(form.AssessmentFormStatus, sections, signatureOnlySet(structure))
	require.True(t, lifecycle.Consistent(snap), "stored status %s drifted from sections %+v", form.AssessmentFormStatus, snap)
	require.True(t, (form.AssessmentFormSubjectID == nil) != (form.AssessmentFormCourseID == nil))
}
