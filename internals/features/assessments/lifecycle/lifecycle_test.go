package lifecycle

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amodel "trainingku_backend/internals/features/assessments/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

func TestDerivedSingleSection(t *testing.T) {
	assert.Equal(t, amodel.FormOnGoing, Derived(0, 1))
	assert.Equal(t, amodel.FormSignaturePending, Derived(1, 1))
}

func TestDerivedMultipleSections(t *testing.T) {
	assert.Equal(t, amodel.FormOnGoing, Derived(0, 3))
	assert.Equal(t, amodel.FormDraft, Derived(1, 3))
	assert.Equal(t, amodel.FormDraft, Derived(2, 3))
	assert.Equal(t, amodel.FormSignaturePending, Derived(3, 3))
}

func TestSectionSavedSkipsDraftForSingleSection(t *testing.T) {
	next, err := Next(Snapshot{Status: amodel.FormOnGoing, DraftCount: 1, EffectiveTotal: 1}, EventSectionSaved)
	require.NoError(t, err)
	assert.Equal(t, amodel.FormSignaturePending, next)
}

func TestSectionSavedProgression(t *testing.T) {
	s := Snapshot{Status: amodel.FormOnGoing, EffectiveTotal: 3}
	for i, want := range []amodel.FormStatus{amodel.FormDraft, amodel.FormDraft, amodel.FormSignaturePending} {
		s.DraftCount = i + 1
		next, err := Next(s, EventSectionSaved)
		require.NoError(t, err)
		assert.Equal(t, want, next)
		s.Status = next
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from amodel.FormStatus
		ev   Event
		want amodel.FormStatus
		ok   bool
	}{
		{amodel.FormNotStarted, EventStarted, amodel.FormOnGoing, true},
		{amodel.FormOnGoing, EventStarted, amodel.FormOnGoing, false},
		{amodel.FormNotStarted, EventCancelled, amodel.FormCancelled, true},
		{amodel.FormOnGoing, EventCancelled, amodel.FormOnGoing, false},
		{amodel.FormNotStarted, EventSectionSaved, amodel.FormNotStarted, false},
		{amodel.FormSignaturePending, EventSectionSaved, amodel.FormSignaturePending, false},
		{amodel.FormRejected, EventSectionUpdated, amodel.FormReadyToSubmit, true},
		{amodel.FormDraft, EventSectionUpdated, amodel.FormDraft, true},
		{amodel.FormSubmitted, EventSectionUpdated, amodel.FormSubmitted, false},
		{amodel.FormSignaturePending, EventParticipationConfirmed, amodel.FormReadyToSubmit, true},
		{amodel.FormDraft, EventParticipationConfirmed, amodel.FormDraft, false},
		{amodel.FormOnGoing, EventLockToggled, amodel.FormOnGoing, true},
		{amodel.FormDraft, EventLockToggled, amodel.FormDraft, true},
		{amodel.FormSignaturePending, EventLockToggled, amodel.FormSignaturePending, false},
		{amodel.FormSubmitted, EventApproved, amodel.FormApproved, true},
		{amodel.FormSubmitted, EventRejected, amodel.FormRejected, true},
		{amodel.FormApproved, EventApproved, amodel.FormApproved, false},
		{amodel.FormReadyToSubmit, EventRejected, amodel.FormReadyToSubmit, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.ev), func(t *testing.T) {
			next, err := Next(Snapshot{Status: tc.from, DraftCount: 1, EffectiveTotal: 2, AllSectionsDraft: true}, tc.ev)
			if tc.ok {
				require.NoError(t, err)
			} else {
				var te *TransitionError
				require.True(t, errors.As(err, &te))
			}
			assert.Equal(t, tc.want, next)
		})
	}
}

func TestSubmitRequiresAllSectionsDraft(t *testing.T) {
	_, err := Next(Snapshot{Status: amodel.FormReadyToSubmit, AllSectionsDraft: false}, EventSubmitted)
	assert.Error(t, err)
	next, err := Next(Snapshot{Status: amodel.FormReadyToSubmit, AllSectionsDraft: true}, EventSubmitted)
	require.NoError(t, err)
	assert.Equal(t, amodel.FormSubmitted, next)
}

func TestCountExcludesSignatureOnly(t *testing.T) {
	trainerSec := uuid.New()
	sigSec := uuid.New()
	sections := []amodel.AssessmentSectionModel{
		{AssessmentSectionTemplateSectionID: trainerSec, AssessmentSectionStatus: amodel.SectionDraft},
		{AssessmentSectionTemplateSectionID: sigSec, AssessmentSectionStatus: amodel.SectionRequiredAssessment},
	}
	s := Count(amodel.FormSignaturePending, sections, map[string]bool{sigSec.String(): true})
	assert.Equal(t, 1, s.EffectiveTotal)
	assert.Equal(t, 1, s.DraftCount)
	assert.False(t, s.AllSectionsDraft)
	assert.True(t, Consistent(s))

	sections[1].AssessmentSectionStatus = amodel.SectionDraft
	s = Count(amodel.FormReadyToSubmit, sections, map[string]bool{sigSec.String(): true})
	assert.True(t, s.AllSectionsDraft)
	assert.True(t, Consistent(s))
}

func TestConsistentDetectsDrift(t *testing.T) {
	assert.False(t, Consistent(Snapshot{Status: amodel.FormDraft, DraftCount: 3, EffectiveTotal: 3}))
	assert.False(t, Consistent(Snapshot{Status: amodel.FormOnGoing, DraftCount: 1, EffectiveTotal: 3}))
	assert.False(t, Consistent(Snapshot{Status: amodel.FormSubmitted, AllSectionsDraft: false}))
	assert.True(t, Consistent(Snapshot{Status: amodel.FormCancelled}))
}

func TestEffectiveTotal(t *testing.T) {
	st := &tmodel.TemplateStructure{Sections: []tmodel.SectionStructure{
		{Section: tmodel.TemplateSectionModel{TemplateSectionEditBy: tmodel.EditByTrainer},
			Fields: []tmodel.TemplateFieldModel{{TemplateFieldType: tmodel.FieldTypeText}}},
		{Section: tmodel.TemplateSectionModel{TemplateSectionEditBy: tmodel.EditByTrainee},
			Fields: []tmodel.TemplateFieldModel{{TemplateFieldType: tmodel.FieldTypeSignatureDraw}}},
	}}
	assert.Equal(t, 1, EffectiveTotal(st))
}

func TestDeriveEventStatus(t *testing.T) {
	assert.Equal(t, amodel.EventNotStarted, DeriveEventStatus(CountStatuses([]amodel.FormStatus{amodel.FormNotStarted, amodel.FormNotStarted})))
	assert.Equal(t, amodel.EventFinished, DeriveEventStatus(CountStatuses([]amodel.FormStatus{amodel.FormApproved, amodel.FormCancelled})))
	assert.Equal(t, amodel.EventOnGoing, DeriveEventStatus(CountStatuses([]amodel.FormStatus{amodel.FormApproved, amodel.FormRejected})))
	assert.Equal(t, amodel.EventOnGoing, DeriveEventStatus(CountStatuses([]amodel.FormStatus{amodel.FormNotStarted, amodel.FormOnGoing})))
}
