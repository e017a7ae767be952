package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingku_backend/internals/constants"
	amodel "trainingku_backend/internals/features/assessments/model"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

// Scenario A
func TestSingleSectionGoesStraightToSignaturePending(t *testing.T) {
	f := newFixture(t)
	tpl, sec := f.scoreTemplate()
	forms := f.create(t, tpl, fixtureToday, f.trainees[0], f.trainees[1])

	for _, form := range forms {
		snap, err := f.save(t, f.examiner, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, "90")
		require.NoError(t, err)
		assert.Equal(t, amodel.FormSignaturePending, snap.Status)
		assert.Equal(t, 1, snap.DraftSections)
		assert.Equal(t, 1, snap.EffectiveTotal)
		require.NotNil(t, snap.SectionStatus)
		assert.Equal(t, amodel.SectionDraft, *snap.SectionStatus)
		assert.Equal(t, f.examiner.UserID, *snap.AssessedByID)
		f.requireConsistent(t, form.AssessmentFormID)
	}
}

func threeSectionTemplate(f *fixture) (uuid.UUID, []uuid.UUID) {
	return f.addTemplate(
		sectionSpec{name: "Briefing", editBy: tmodel.EditByTrainer, submittable: true, types: []tmodel.FieldType{tmodel.FieldTypeText}},
		sectionSpec{name: "Flight", editBy: tmodel.EditByTrainer, types: []tmodel.FieldType{tmodel.FieldTypeNumber}},
		sectionSpec{name: "Self review", editBy: tmodel.EditByTrainee, types: []tmodel.FieldType{tmodel.FieldTypeText}},
	)
}

// Scenario B
func TestThreeSectionsWalkThroughDraft(t *testing.T) {
	f := newFixture(t)
	tpl, secs := threeSectionTemplate(f)
	tomorrow := fixtureToday.AddDate(0, 0, 1)
	form := f.create(t, tpl, tomorrow, f.trainees[0])[0]
	id := form.AssessmentFormID
	assert.Equal(t, amodel.FormNotStarted, form.AssessmentFormStatus)

	_, err := f.save(t, f.examiner, id, secs[0], tmodel.FieldTypeText, "ok")
	require.ErrorIs(t, err, ErrAssessmentStatusNotAllowed)

	_, err = f.svc.StartEvent(context.Background(), form.EventKey())
	require.ErrorIs(t, err, ErrOccurrenceDateNotReached)

	f.now = f.now.AddDate(0, 0, 1)
	n, err := f.svc.StartEvent(context.Background(), form.EventKey())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	f.requireConsistent(t, id)

	snap, err := f.save(t, f.examiner, id, secs[0], tmodel.FieldTypeText, "briefing done")
	require.NoError(t, err)
	assert.Equal(t, amodel.FormDraft, snap.Status)
	f.requireConsistent(t, id)

	snap, err = f.save(t, f.examiner2, id, secs[1], tmodel.FieldTypeNumber, "7.5")
	require.NoError(t, err)
	assert.Equal(t, amodel.FormDraft, snap.Status)
	assert.Equal(t, 2, snap.DraftSections)
	f.requireConsistent(t, id)

	trainee := f.trainees[0]
	_, err = f.save(t, trainee, id, secs[2], tmodel.FieldTypeText, "learned a lot")
	require.ErrorIs(t, err, ErrForbidden, "trainee section is locked by default")

	lock, err := f.svc.ToggleTraineeLock(context.Background(), f.examiner, id)
	require.NoError(t, err)
	assert.False(t, lock.IsTraineeLocked)

	snap, err = f.save(t, trainee, id, secs[2], tmodel.FieldTypeText, "learned a lot")
	require.NoError(t, err)
	assert.Equal(t, amodel.FormSignaturePending, snap.Status)
	f.requireConsistent(t, id)
}

// Scenario C
func TestSaveOnClaimedSectionConflicts(t *testing.T) {
	f := newFixture(t)
	tpl, sec := f.scoreTemplate()
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]

	_, err := f.save(t, f.examiner, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, "70")
	require.NoError(t, err)

	_, err = f.save(t, f.examiner2, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, "99")
	require.ErrorIs(t, err, ErrSectionAlreadyAssessed)

	s := f.section(t, form.AssessmentFormID, sec)
	assert.Equal(t, f.examiner.UserID, *s.AssessmentSectionAssessedByID)
	v := f.value(t, s.AssessmentSectionID, sec, tmodel.FieldTypeFinalScoreNum)
	require.NotNil(t, v.AssessmentValueAnswerValue)
	assert.Equal(t, "70", *v.AssessmentValueAnswerValue)
	f.requireConsistent(t, form.AssessmentFormID)
}

func TestConcurrentSaveExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	tpl, sec := f.scoreTemplate()
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]

	s := f.section(t, form.AssessmentFormID, sec)
	v := f.value(t, s.AssessmentSectionID, sec, tmodel.FieldTypeFinalScoreNum)
	actors := []helperAuth.Actor{f.examiner, f.examiner2, f.reviewer}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(actor helperAuth.Actor) {
			defer wg.Done()
			answer := "88"
			_, err := f.svc.SaveSectionValues(context.Background(), actor, form.AssessmentFormID, s.AssessmentSectionID, SectionValuesInput{
				Values: []ValueInput{{ValueID: v.AssessmentValueID, Answer: &answer}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSectionAlreadyAssessed):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(actors[i%len(actors)])
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 11, conflicts)
	f.requireConsistent(t, form.AssessmentFormID)
}

func TestSaveRejectsInvalidValues(t *testing.T) {
	f := newFixture(t)
	tpl, sec := f.scoreTemplate()
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]

	_, err := f.save(t, f.examiner, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, "eighty")
	require.ErrorIs(t, err, ErrInvalidFieldValue)

	_, err = f.save(t, f.examiner, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreText, "maybe")
	require.ErrorIs(t, err, ErrInvalidFieldValue)

	for _, raw := range []string{"NaN", "Inf", "-Inf", "+infinity"} {
		_, err = f.save(t, f.examiner, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, raw)
		require.ErrorIs(t, err, ErrInvalidFieldValue, raw)
	}

	s := f.section(t, form.AssessmentFormID, sec)
	_, err = f.svc.SaveSectionValues(context.Background(), f.examiner, form.AssessmentFormID, s.AssessmentSectionID, SectionValuesInput{
		Values: []ValueInput{{ValueID: uuid.New()}},
	})
	require.ErrorIs(t, err, ErrValueNotFound)

	// gagal validasi tidak boleh meninggalkan claim
	s = f.section(t, form.AssessmentFormID, sec)
	assert.Nil(t, s.AssessmentSectionAssessedByID)
	assert.Equal(t, amodel.FormOnGoing, f.form(t, form.AssessmentFormID).AssessmentFormStatus)

	snap, err := f.save(t, f.examiner, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreText, "pass")
	require.NoError(t, err)
	assert.Equal(t, amodel.FormSignaturePending, snap.Status)
	v := f.value(t, s.AssessmentSectionID, sec, tmodel.FieldTypeFinalScoreText)
	assert.Equal(t, "PASS", *v.AssessmentValueAnswerValue)
}

func TestFieldRoleRequired(t *testing.T) {
	f := newFixture(t)
	tpl, secs := f.addTemplate(sectionSpec{
		name: "Review", editBy: tmodel.EditByTrainer, submittable: true,
		types:     []tmodel.FieldType{tmodel.FieldTypeText, tmodel.FieldTypeNumber},
		roleField: ptr(constants.AssessmentRoleReviewer),
	})
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]

	_, err := f.save(t, f.examiner, form.AssessmentFormID, secs[0], tmodel.FieldTypeText, "notes")
	require.ErrorIs(t, err, ErrFieldRoleRequired)

	_, err = f.save(t, f.reviewer, form.AssessmentFormID, secs[0], tmodel.FieldTypeText, "notes")
	require.NoError(t, err)
}

func TestRoleSpecificSection(t *testing.T) {
	f := newFixture(t)
	tpl, secs := f.addTemplate(sectionSpec{
		name: "Reviewer remarks", editBy: tmodel.EditByTrainer, submittable: true,
		types: []tmodel.FieldType{tmodel.FieldTypeText},
	})
	st, err := f.templates.GetStructure(context.Background(), tpl)
	require.NoError(t, err)
	st.Sections[0].Section.TemplateSectionRoleInSubject = ptr(constants.AssessmentRoleReviewer)
	f.templates.Put(*st)

	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]
	_, err = f.save(t, f.examiner, form.AssessmentFormID, secs[0], tmodel.FieldTypeText, "x")
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.save(t, f.reviewer, form.AssessmentFormID, secs[0], tmodel.FieldTypeText, "x")
	require.NoError(t, err)
}

func TestDepartmentHeadNeverWrites(t *testing.T) {
	f := newFixture(t)
	tpl, sec := f.scoreTemplate()
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]

	_, err := f.save(t, f.deptHead, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, "80")
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.save(t, f.admin, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, "80")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateByOriginalAssessorOnly(t *testing.T) {
	f := newFixture(t)
	tpl, secs := threeSectionTemplate(f)
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]
	id := form.AssessmentFormID

	_, err := f.save(t, f.examiner, id, secs[0], tmodel.FieldTypeText, "first")
	require.NoError(t, err)

	s := f.section(t, id, secs[0])
	v := f.value(t, s.AssessmentSectionID, secs[0], tmodel.FieldTypeText)
	answer := "second"
	in := SectionValuesInput{Values: []ValueInput{{ValueID: v.AssessmentValueID, Answer: &answer}}}

	_, err = f.svc.UpdateSectionValues(context.Background(), f.examiner2, id, s.AssessmentSectionID, in)
	require.ErrorIs(t, err, ErrOriginalAssessorOnly)

	snap, err := f.svc.UpdateSectionValues(context.Background(), f.examiner, id, s.AssessmentSectionID, in)
	require.NoError(t, err)
	assert.Equal(t, amodel.FormDraft, snap.Status)
	v = f.value(t, s.AssessmentSectionID, secs[0], tmodel.FieldTypeText)
	assert.Equal(t, "second", *v.AssessmentValueAnswerValue)

	untouched := f.section(t, id, secs[1])
	_, err = f.svc.UpdateSectionValues(context.Background(), f.examiner, id, untouched.AssessmentSectionID, in)
	require.ErrorIs(t, err, ErrOriginalAssessorOnly)
	f.requireConsistent(t, id)
}
