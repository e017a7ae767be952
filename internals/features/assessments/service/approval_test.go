package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amodel "trainingku_backend/internals/features/assessments/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

func TestApproveComputesPassAndOverwritesText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, sec := f.scoreTemplate()
	id := f.toSubmitted(t, tpl, sec, f.examiner, "85")

	snap, err := f.svc.Approve(ctx, f.reviewer, id, ReviewInput{Comment: "well flown"})
	require.NoError(t, err)
	assert.Equal(t, amodel.FormApproved, snap.Status)
	require.NotNil(t, snap.ResultScore)
	assert.Equal(t, 85.0, *snap.ResultScore)
	require.NotNil(t, snap.ResultText)
	assert.Equal(t, amodel.ResultPass, *snap.ResultText)

	stored := f.form(t, id)
	assert.Equal(t, f.reviewer.UserID, *stored.AssessmentFormApprovedByID)
	assert.Equal(t, "well flown", *stored.AssessmentFormComment)
	assert.NotEmpty(t, stored.AssessmentFormScoreDetails)

	s := f.section(t, id, sec)
	text := f.value(t, s.AssessmentSectionID, sec, tmodel.FieldTypeFinalScoreText)
	require.NotNil(t, text.AssessmentValueAnswerValue)
	assert.Equal(t, "PASS", *text.AssessmentValueAnswerValue)
	img := f.value(t, s.AssessmentSectionID, sec, tmodel.FieldTypeSignatureImg)
	require.NotNil(t, img.AssessmentValueAnswerValue)
	assert.Equal(t, "Budi Test", *img.AssessmentValueAnswerValue)

	assert.Equal(t, []uuid.UUID{id}, f.sched.renders)
	f.requireConsistent(t, id)

	_, err = f.svc.Approve(ctx, f.reviewer, id, ReviewInput{})
	require.ErrorIs(t, err, ErrStatusConflict)
}

func TestApproveBelowPassScoreFails(t *testing.T) {
	f := newFixture(t)
	tpl, sec := f.scoreTemplate()
	id := f.toSubmitted(t, tpl, sec, f.examiner, "79.5")

	snap, err := f.svc.Approve(context.Background(), f.deptHead, id, ReviewInput{})
	require.NoError(t, err)
	assert.Equal(t, amodel.ResultFail, *snap.ResultText)
}

func TestApproveReviewerRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, sec := f.scoreTemplate()

	// reviewer yang mengisi & submit sendiri tidak boleh approve
	id := f.toSubmitted(t, tpl, sec, f.reviewer, "90")

	_, err := f.svc.Approve(ctx, f.reviewer, id, ReviewInput{})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Approve(ctx, f.examiner, id, ReviewInput{})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Approve(ctx, f.trainees[0], id, ReviewInput{})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Approve(ctx, f.admin, id, ReviewInput{})
	require.ErrorIs(t, err, ErrForbidden)

	// role token yang tidak cocok dengan role di directory
	spoofed := f.reviewer
	spoofed.Role = "DEPARTMENT_HEAD"
	_, err = f.svc.Approve(ctx, spoofed, id, ReviewInput{})
	require.ErrorIs(t, err, ErrForbidden)

	snap, err := f.svc.Approve(ctx, f.deptHead, id, ReviewInput{})
	require.NoError(t, err)
	assert.Equal(t, amodel.FormApproved, snap.Status)
}

// Scenario D
func TestRejectThenUpdateReturnsToReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, sec := f.scoreTemplate()
	id := f.toSubmitted(t, tpl, sec, f.examiner, "60")

	_, err := f.svc.Reject(ctx, f.reviewer, id, ReviewInput{Comment: "  "})
	require.ErrorIs(t, err, ErrCommentRequired)

	snap, err := f.svc.Reject(ctx, f.reviewer, id, ReviewInput{Comment: "needs signature"})
	require.NoError(t, err)
	assert.Equal(t, amodel.FormRejected, snap.Status)
	assert.Nil(t, snap.ResultScore)
	assert.Equal(t, "needs signature", *f.form(t, id).AssessmentFormComment)
	f.requireConsistent(t, id)

	_, err = f.svc.Reject(ctx, f.reviewer, id, ReviewInput{Comment: "again"})
	require.ErrorIs(t, err, ErrStatusConflict)

	s := f.section(t, id, sec)
	v := f.value(t, s.AssessmentSectionID, sec, tmodel.FieldTypeFinalScoreNum)
	answer := "82"
	snap, err = f.svc.UpdateSectionValues(ctx, f.examiner, id, s.AssessmentSectionID, SectionValuesInput{
		Values: []ValueInput{{ValueID: v.AssessmentValueID, Answer: &answer}},
	})
	require.NoError(t, err)
	assert.Equal(t, amodel.FormReadyToSubmit, snap.Status)
	f.requireConsistent(t, id)

	_, err = f.svc.Submit(ctx, f.examiner, id)
	require.NoError(t, err)
	snap, err = f.svc.Approve(ctx, f.reviewer, id, ReviewInput{})
	require.NoError(t, err)
	assert.Equal(t, 82.0, *snap.ResultScore)
	assert.Equal(t, amodel.ResultPass, *snap.ResultText)
}

func TestAttachPDFOnlyForApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, sec := f.scoreTemplate()
	id := f.toSubmitted(t, tpl, sec, f.examiner, "85")

	err := f.svc.AttachPDF(ctx, id, "https://files.example.test/a.pdf")
	require.ErrorIs(t, err, ErrAssessmentStatusNotAllowed)

	_, err = f.svc.Approve(ctx, f.reviewer, id, ReviewInput{})
	require.NoError(t, err)
	require.NoError(t, f.svc.AttachPDF(ctx, id, "https://files.example.test/a.pdf"))
	assert.Equal(t, "https://files.example.test/a.pdf", *f.form(t, id).AssessmentFormPDFURL)

	err = f.svc.AttachPDF(ctx, id, "")
	require.ErrorIs(t, err, ErrInvalidFieldValue)
}
