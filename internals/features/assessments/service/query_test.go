package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amodel "trainingku_backend/internals/features/assessments/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

func TestListAssessmentsRoleScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, sec := f.scoreTemplate()
	forms := f.create(t, tpl, fixtureToday, f.trainees[0], f.trainees[1], f.trainees[2])

	rows, total, err := f.svc.ListAssessments(ctx, f.trainees[1], ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, f.trainees[1].UserID, rows[0].AssessmentFormTraineeID)

	_, total, err = f.svc.ListAssessments(ctx, f.examiner, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	outsider := f.addUser("TR-9", "Outsider", "TRAINER", nil)
	_, total, err = f.svc.ListAssessments(ctx, outsider, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = f.svc.ListAssessments(ctx, f.deptHead, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total, "early statuses stay hidden from the department")

	_, err = f.save(t, f.examiner, forms[0].AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, "85")
	require.NoError(t, err)
	rows, total, err = f.svc.ListAssessments(ctx, f.deptHead, ListQuery{Statuses: []amodel.FormStatus{amodel.FormOnGoing, amodel.FormSignaturePending}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, amodel.FormSignaturePending, rows[0].AssessmentFormStatus)

	rows, total, err = f.svc.ListAssessments(ctx, f.admin, ListQuery{Limit: 2, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 2)
	assert.LessOrEqual(t, rows[0].AssessmentFormName, rows[1].AssessmentFormName)

	_, total, err = f.svc.ListAssessments(ctx, f.admin, ListQuery{Search: "eid-002"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestGetAssessmentVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, _ := signatureTemplate(f)
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]

	d, err := f.svc.GetAssessment(ctx, f.trainees[0], form.AssessmentFormID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.EffectiveTotal)
	assert.Equal(t, 0, d.DraftSections)
	assert.Equal(t, "Checkride", d.TemplateName)
	assert.Equal(t, f.subjectID, d.Entity.ID)

	_, err = f.svc.GetAssessment(ctx, f.trainees[1], form.AssessmentFormID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.GetAssessment(ctx, f.deptHead, form.AssessmentFormID)
	require.ErrorIs(t, err, ErrForbidden)

	d, err = f.svc.GetAssessment(ctx, f.reviewer, form.AssessmentFormID)
	require.NoError(t, err)
	require.NotNil(t, d.AssessmentRole)
	assert.Equal(t, "ASSESSMENT_REVIEWER", *d.AssessmentRole)
}

func TestSectionListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, secs := signatureTemplate(f)
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]
	id := form.AssessmentFormID

	views, err := f.svc.ListSections(ctx, f.examiner, id)
	require.NoError(t, err)
	require.Len(t, views, 1, "signature-only trainee section is not listed")
	assert.Equal(t, secs[0], views[0].TemplateSection.TemplateSectionID)
	assert.True(t, views[0].Access.CanSave)
	assert.Equal(t, 1, views[0].FieldCount)

	views, err = f.svc.ListSections(ctx, f.trainees[0], id)
	require.NoError(t, err)
	assert.Empty(t, views, "trainee does not see trainer sections")

	views, err = f.svc.ListTraineeSections(ctx, f.trainees[0], id)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, secs[1], views[0].TemplateSection.TemplateSectionID)
	assert.False(t, views[0].Access.CanAssess, "locked by default")

	views, err = f.svc.ListSections(ctx, f.admin, id)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Access.CanView)
	assert.False(t, views[0].Access.CanSave)
}

func TestGetSectionFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, sec := f.scoreTemplate()
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]
	s := f.section(t, form.AssessmentFormID, sec)

	out, err := f.svc.GetSectionFields(ctx, f.examiner, form.AssessmentFormID, s.AssessmentSectionID)
	require.NoError(t, err)
	require.Len(t, out.Fields, 3)
	for _, fv := range out.Fields {
		assert.True(t, fv.Writable)
		assert.Equal(t, fv.Field.TemplateFieldID, fv.Value.AssessmentValueTemplateFieldID)
	}

	out, err = f.svc.GetSectionFields(ctx, f.admin, form.AssessmentFormID, s.AssessmentSectionID)
	require.NoError(t, err)
	for _, fv := range out.Fields {
		assert.False(t, fv.Writable)
	}

	_, err = f.svc.GetSectionFields(ctx, f.trainees[0], form.AssessmentFormID, s.AssessmentSectionID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetSectionFields(ctx, f.examiner, form.AssessmentFormID, form.AssessmentFormID)
	require.ErrorIs(t, err, ErrSectionNotFound)
}
