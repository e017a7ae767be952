package inmem

import (
	"time"

	"github.com/google/uuid"

	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/repository"
	dmodel "trainingku_backend/internals/features/directory/model"
)

// memTx berjalan dengan Store.mu sudah dipegang oleh WithTx.
type memTx struct{ s *Store }

func (t *memTx) LockForm(id uuid.UUID) (*amodel.AssessmentFormModel, error) {
	f, ok := t.s.forms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

// mutex store sudah menserialisasi semua tx
func (t *memTx) LockEvent(amodel.EventKey) error { return nil }

func (t *memTx) FindExisting(templateID uuid.UUID, occurrence time.Time, scope dmodel.EntityScope, traineeIDs []uuid.UUID) ([]amodel.AssessmentFormModel, error) {
	return t.s.findExisting(templateID, occurrence, scope, traineeIDs), nil
}

func (t *memTx) ListSections(formID uuid.UUID) ([]amodel.AssessmentSectionModel, error) {
	return t.s.sectionsOf(formID), nil
}

func (t *memTx) GetSection(formID, sectionID uuid.UUID) (*amodel.AssessmentSectionModel, error) {
	sec, ok := t.s.sections[sectionID]
	if !ok || sec.AssessmentSectionFormID != formID {
		return nil, repository.ErrNotFound
	}
	return &sec, nil
}

func (t *memTx) ListValues(sectionIDs []uuid.UUID) ([]amodel.AssessmentValueModel, error) {
	return t.s.valuesOf(sectionIDs), nil
}

func (t *memTx) CreateForms(forms []amodel.AssessmentFormModel) error {
	for _, f := range forms {
		sections := f.Sections
		f.Sections = nil
		t.s.forms[f.AssessmentFormID] = f
		for _, sec := range sections {
			values := sec.Values
			sec.Values = nil
			t.s.next++
			t.s.seq[sec.AssessmentSectionID] = t.s.next
			t.s.sections[sec.AssessmentSectionID] = sec
			for _, v := range values {
				t.s.next++
				t.s.seq[v.AssessmentValueID] = t.s.next
				t.s.values[v.AssessmentValueID] = v
			}
		}
	}
	return nil
}

func (t *memTx) ClaimSection(sectionID, actorID uuid.UUID, at time.Time) (int64, error) {
	sec, ok := t.s.sections[sectionID]
	if !ok || sec.AssessmentSectionAssessedByID != nil {
		return 0, nil
	}
	by := actorID
	sec.AssessmentSectionAssessedByID = &by
	sec.AssessmentSectionStatus = amodel.SectionDraft
	sec.AssessmentSectionUpdatedAt = at
	t.s.sections[sectionID] = sec
	return 1, nil
}

func (t *memTx) ForceSectionDraft(sectionID, assessedBy uuid.UUID, at time.Time) error {
	sec, ok := t.s.sections[sectionID]
	if !ok {
		return repository.ErrNotFound
	}
	by := assessedBy
	sec.AssessmentSectionAssessedByID = &by
	sec.AssessmentSectionStatus = amodel.SectionDraft
	sec.AssessmentSectionUpdatedAt = at
	t.s.sections[sectionID] = sec
	return nil
}

func (t *memTx) UpdateValues(sectionID uuid.UUID, updates []repository.ValueUpdate, actorID uuid.UUID, at time.Time) (int64, error) {
	var n int64
	for _, u := range updates {
		v, ok := t.s.values[u.ValueID]
		if !ok || v.AssessmentValueSectionID != sectionID {
			continue
		}
		if u.Answer != nil {
			a := *u.Answer
			v.AssessmentValueAnswerValue = &a
		} else {
			v.AssessmentValueAnswerValue = nil
		}
		by := actorID
		v.AssessmentValueUpdatedByID = &by
		v.AssessmentValueUpdatedAt = at
		t.s.values[u.ValueID] = v
		n++
	}
	return n, nil
}

func (t *memTx) TransitionForm(formID uuid.UUID, from []amodel.FormStatus, p repository.FormPatch) (int64, error) {
	f, ok := t.s.forms[formID]
	if !ok {
		return 0, nil
	}
	if len(from) > 0 && !f.AssessmentFormStatus.In(from...) {
		return 0, nil
	}

	f.AssessmentFormUpdatedAt = p.UpdatedAt
	if p.UpdatedByID != uuid.Nil {
		by := p.UpdatedByID
		f.AssessmentFormUpdatedByID = &by
	}
	if p.Status != nil {
		f.AssessmentFormStatus = *p.Status
	}
	if p.IsTraineeLocked != nil {
		f.AssessmentFormIsTraineeLocked = *p.IsTraineeLocked
	}
	if p.SubmittedAt != nil {
		f.AssessmentFormSubmittedAt = p.SubmittedAt
	}
	if p.SubmittedByID != nil {
		f.AssessmentFormSubmittedByID = p.SubmittedByID
	}
	if p.Comment != nil {
		f.AssessmentFormComment = p.Comment
	}
	if p.ClearResult {
		f.AssessmentFormResultScore = nil
		f.AssessmentFormResultText = nil
		f.AssessmentFormApprovedByID = nil
		f.AssessmentFormApprovedAt = nil
	}
	if p.ApprovedByID != nil {
		f.AssessmentFormApprovedByID = p.ApprovedByID
	}
	if p.ApprovedAt != nil {
		f.AssessmentFormApprovedAt = p.ApprovedAt
	}
	if p.ResultScore != nil {
		f.AssessmentFormResultScore = p.ResultScore
	}
	if p.ResultText != nil {
		f.AssessmentFormResultText = p.ResultText
	}
	if p.ScoreDetails != nil {
		f.AssessmentFormScoreDetails = p.ScoreDetails
	}
	t.s.forms[formID] = f
	return 1, nil
}
