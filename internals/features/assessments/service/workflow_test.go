package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amodel "trainingku_backend/internals/features/assessments/model"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

// toReady: form hari ini dengan section tunggal diisi assessor lalu dikonfirmasi trainee.
func (f *fixture) toReady(t *testing.T, tpl, sec uuid.UUID, assessor helperAuth.Actor, score string) uuid.UUID {
	t.Helper()
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]
	_, err := f.save(t, assessor, form.AssessmentFormID, sec, tmodel.FieldTypeFinalScoreNum, score)
	require.NoError(t, err)
	snap, err := f.svc.ConfirmParticipation(context.Background(), f.trainees[0], form.AssessmentFormID, ConfirmInput{SignatureURL: "https://files.example.test/sig.png"})
	require.NoError(t, err)
	require.Equal(t, amodel.FormReadyToSubmit, snap.Status)
	return form.AssessmentFormID
}

func (f *fixture) toSubmitted(t *testing.T, tpl, sec uuid.UUID, assessor helperAuth.Actor, score string) uuid.UUID {
	t.Helper()
	id := f.toReady(t, tpl, sec, assessor, score)
	snap, err := f.svc.Submit(context.Background(), assessor, id)
	require.NoError(t, err)
	require.Equal(t, amodel.FormSubmitted, snap.Status)
	return id
}

func signatureTemplate(f *fixture) (uuid.UUID, []uuid.UUID) {
	return f.addTemplate(
		sectionSpec{name: "Evaluation", editBy: tmodel.EditByTrainer, submittable: true, types: []tmodel.FieldType{tmodel.FieldTypeText}},
		sectionSpec{name: "Trainee signature", editBy: tmodel.EditByTrainee, types: []tmodel.FieldType{tmodel.FieldTypeSignatureDraw}},
	)
}

func TestConfirmParticipationSignsTraineeSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, secs := signatureTemplate(f)
	trainee := f.trainees[0]
	form := f.create(t, tpl, fixtureToday, trainee)[0]
	id := form.AssessmentFormID

	_, err := f.save(t, trainee, id, secs[1], tmodel.FieldTypeSignatureDraw, "scribble")
	require.ErrorIs(t, err, ErrSignatureSection)

	_, err = f.svc.ConfirmParticipation(ctx, trainee, id, ConfirmInput{SignatureURL: "https://files.example.test/sig.png"})
	require.ErrorIs(t, err, ErrAssessmentStatusNotAllowed)

	snap, err := f.save(t, f.examiner, id, secs[0], tmodel.FieldTypeText, "good")
	require.NoError(t, err)
	assert.Equal(t, amodel.FormSignaturePending, snap.Status)
	assert.Equal(t, 1, snap.EffectiveTotal)

	_, err = f.svc.ConfirmParticipation(ctx, f.trainees[1], id, ConfirmInput{SignatureURL: "https://files.example.test/x.png"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ConfirmParticipation(ctx, trainee, id, ConfirmInput{SignatureURL: "  "})
	require.ErrorIs(t, err, ErrInvalidFieldValue)

	snap, err = f.svc.ConfirmParticipation(ctx, trainee, id, ConfirmInput{SignatureURL: "https://files.example.test/sig.png"})
	require.NoError(t, err)
	assert.Equal(t, amodel.FormReadyToSubmit, snap.Status)

	sig := f.section(t, id, secs[1])
	assert.Equal(t, amodel.SectionDraft, sig.AssessmentSectionStatus)
	assert.Equal(t, trainee.UserID, *sig.AssessmentSectionAssessedByID)
	v := f.value(t, sig.AssessmentSectionID, secs[1], tmodel.FieldTypeSignatureDraw)
	assert.Equal(t, "https://files.example.test/sig.png", *v.AssessmentValueAnswerValue)
	f.requireConsistent(t, id)

	_, err = f.svc.ConfirmParticipation(ctx, trainee, id, ConfirmInput{SignatureURL: "https://files.example.test/sig.png"})
	require.ErrorIs(t, err, ErrAssessmentStatusNotAllowed)
}

func TestToggleTraineeLockGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, secs := threeSectionTemplate(f)

	future := f.create(t, tpl, fixtureToday.AddDate(0, 0, 1), f.trainees[0])[0]
	_, err := f.svc.ToggleTraineeLock(ctx, f.examiner, future.AssessmentFormID)
	require.ErrorIs(t, err, ErrAssessmentStatusNotAllowed)

	form := f.create(t, tpl, fixtureToday, f.trainees[1])[0]
	id := form.AssessmentFormID
	_, err = f.svc.ToggleTraineeLock(ctx, f.examiner, id)
	require.ErrorIs(t, err, ErrForbidden, "trainer must have assessed a section")

	_, err = f.save(t, f.examiner, id, secs[0], tmodel.FieldTypeText, "ok")
	require.NoError(t, err)

	snap, err := f.svc.ToggleTraineeLock(ctx, f.examiner, id)
	require.NoError(t, err)
	assert.False(t, snap.IsTraineeLocked)
	assert.Equal(t, amodel.FormDraft, snap.Status)

	snap, err = f.svc.ToggleTraineeLock(ctx, f.examiner, id)
	require.NoError(t, err)
	assert.True(t, snap.IsTraineeLocked)

	_, err = f.svc.ToggleTraineeLock(ctx, f.examiner2, id)
	require.ErrorIs(t, err, ErrForbidden)

	f.now = f.now.AddDate(0, 0, 1)
	_, err = f.svc.ToggleTraineeLock(ctx, f.examiner, id)
	require.ErrorIs(t, err, ErrOccurrenceDateNotToday)
	f.requireConsistent(t, id)
}

func TestSubmitGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl, sec := f.scoreTemplate()
	form := f.create(t, tpl, fixtureToday, f.trainees[0])[0]
	id := form.AssessmentFormID

	_, err := f.save(t, f.examiner, id, sec, tmodel.FieldTypeFinalScoreNum, "81")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.examiner, id)
	require.ErrorIs(t, err, ErrAssessmentStatusNotAllowed, "signature still pending")

	_, err = f.svc.ConfirmParticipation(ctx, f.trainees[0], id, ConfirmInput{SignatureURL: "https://files.example.test/sig.png"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.examiner2, id)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Submit(ctx, f.trainees[0], id)
	require.ErrorIs(t, err, ErrForbidden)

	snap, err := f.svc.Submit(ctx, f.examiner, id)
	require.NoError(t, err)
	assert.Equal(t, amodel.FormSubmitted, snap.Status)
	require.NotNil(t, snap.SubmittedAt)

	stored := f.form(t, id)
	assert.Equal(t, f.examiner.UserID, *stored.AssessmentFormSubmittedByID)
	f.requireConsistent(t, id)

	_, err = f.svc.Submit(ctx, f.examiner, id)
	require.ErrorIs(t, err, ErrAssessmentStatusNotAllowed)
}
