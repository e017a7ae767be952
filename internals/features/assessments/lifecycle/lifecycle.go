// file: internals/features/assessments/lifecycle/lifecycle.go
package lifecycle

import (
	"fmt"

	amodel "trainingku_backend/internals/features/assessments/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

/* =========================================================
   Assessment State Machine

   Satu-satunya tempat aritmetika ON_GOING / DRAFT / SIGNATURE_PENDING.
   Semua operasi mutasi memanggil Next(); tidak ada call site lain
   yang boleh menghitung status form sendiri.
========================================================= */

type Event string

const (
	EventStarted                Event = "STARTED"
	EventCancelled              Event = "CANCELLED"
	EventSectionSaved           Event = "SECTION_SAVED"
	EventSectionUpdated         Event = "SECTION_UPDATED"
	EventParticipationConfirmed Event = "PARTICIPATION_CONFIRMED"
	EventLockToggled            Event = "LOCK_TOGGLED"
	EventSubmitted              Event = "SUBMITTED"
	EventApproved               Event = "APPROVED"
	EventRejected               Event = "REJECTED"
)

// Snapshot: status form saat ini + hitungan section yang dibaca ulang di dalam transaksi.
type Snapshot struct {
	Status amodel.FormStatus

	// section non-signature-only yang sudah DRAFT
	DraftCount int
	// total section dikurangi section trainee signature-only
	EffectiveTotal int
	// semua section (termasuk signature-only) sudah DRAFT
	AllSectionsDraft bool
}

type TransitionError struct {
	From  amodel.FormStatus
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s not allowed from status %s", e.Event, e.From)
}

type transition struct {
	from []amodel.FormStatus
	to   func(Snapshot) amodel.FormStatus
}

func fixed(st amodel.FormStatus) func(Snapshot) amodel.FormStatus {
	return func(Snapshot) amodel.FormStatus { return st }
}

func unchanged(s Snapshot) amodel.FormStatus { return s.Status }

var table = map[Event]transition{
	EventStarted:   {from: []amodel.FormStatus{amodel.FormNotStarted}, to: fixed(amodel.FormOnGoing)},
	EventCancelled: {from: []amodel.FormStatus{amodel.FormNotStarted}, to: fixed(amodel.FormCancelled)},
	EventSectionSaved: {
		from: amodel.SaveableStatuses,
		to:   derive,
	},
	EventSectionUpdated: {
		from: amodel.EditableStatuses,
		to: func(s Snapshot) amodel.FormStatus {
			if s.Status == amodel.FormRejected {
				return amodel.FormReadyToSubmit
			}
			return s.Status
		},
	},
	EventParticipationConfirmed: {from: []amodel.FormStatus{amodel.FormSignaturePending}, to: fixed(amodel.FormReadyToSubmit)},
	EventLockToggled:            {from: []amodel.FormStatus{amodel.FormOnGoing, amodel.FormDraft}, to: unchanged},
	EventSubmitted:              {from: []amodel.FormStatus{amodel.FormReadyToSubmit}, to: fixed(amodel.FormSubmitted)},
	EventApproved:               {from: []amodel.FormStatus{amodel.FormSubmitted}, to: fixed(amodel.FormApproved)},
	EventRejected:               {from: []amodel.FormStatus{amodel.FormSubmitted}, to: fixed(amodel.FormRejected)},
}

// AllowedFrom mengembalikan status asal yang sah untuk satu event (dipakai sebagai guard conditional update).
func AllowedFrom(ev Event) []amodel.FormStatus {
	t, ok := table[ev]
	if !ok {
		return nil
	}
	out := make([]amodel.FormStatus, len(t.from))
	copy(out, t.from)
	return out
}

// Next menghitung status berikutnya; error bila event tidak sah dari status sekarang.
func Next(s Snapshot, ev Event) (amodel.FormStatus, error) {
	t, ok := table[ev]
	if !ok || !s.Status.In(t.from...) {
		return s.Status, &TransitionError{From: s.Status, Event: ev}
	}
	if ev == EventSubmitted && !s.AllSectionsDraft {
		return s.Status, &TransitionError{From: s.Status, Event: ev}
	}
	return t.to(s), nil
}

// derive: aturan penyelesaian section → status form.
func derive(s Snapshot) amodel.FormStatus {
	return Derived(s.DraftCount, s.EffectiveTotal)
}

// Derived adalah status fase pengisian yang ditentukan hitungan section saja.
func Derived(draftCount, effectiveTotal int) amodel.FormStatus {
	switch {
	case draftCount <= 0:
		return amodel.FormOnGoing
	case effectiveTotal <= 1 || draftCount >= effectiveTotal:
		return amodel.FormSignaturePending
	default:
		return amodel.FormDraft
	}
}

// Consistent memeriksa bahwa status tersimpan cocok dengan status hasil derivasi ulang.
func Consistent(s Snapshot) bool {
	switch s.Status {
	case amodel.FormNotStarted:
		return s.DraftCount == 0
	case amodel.FormOnGoing, amodel.FormDraft, amodel.FormSignaturePending:
		return Derived(s.DraftCount, s.EffectiveTotal) == s.Status
	case amodel.FormReadyToSubmit, amodel.FormSubmitted, amodel.FormApproved, amodel.FormRejected:
		return s.AllSectionsDraft
	}
	return true
}

// EffectiveTotal: jumlah section dikurangi section trainee signature-only.
func EffectiveTotal(structure *tmodel.TemplateStructure) int {
	return len(structure.Sections) - structure.SignatureOnlyCount()
}

// Count membangun Snapshot dari status section yang baru dibaca.
// signatureOnly berisi template section id yang dikecualikan dari hitungan.
func Count(status amodel.FormStatus, sections []amodel.AssessmentSectionModel, signatureOnly map[string]bool) Snapshot {
	s := Snapshot{Status: status, AllSectionsDraft: len(sections) > 0}
	for i := range sections {
		sec := &sections[i]
		isDraft := sec.AssessmentSectionStatus == amodel.SectionDraft
		if !isDraft {
			s.AllSectionsDraft = false
		}
		if signatureOnly[sec.AssessmentSectionTemplateSectionID.String()] {
			continue
		}
		s.EffectiveTotal++
		if isDraft {
			s.DraftCount++
		}
	}
	return s
}
