// file: internals/features/assessments/service/workflow.go
package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/repository"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

type ConfirmInput struct {
	SignatureURL string
}

/* =========================
   Confirm participation (trainee signs)
========================= */

func (s *Service) ConfirmParticipation(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID, in ConfirmInput) (*StatusSnapshot, error) {
	signature := strings.TrimSpace(in.SignatureURL)
	if signature == "" {
		return nil, ErrInvalidFieldValue.WithMessage("signature_url is required")
	}
	form, err := s.Store.FindForm(ctx, formID)
	if err != nil {
		return nil, fromStore(err, ErrAssessmentNotFound)
	}
	if form.AssessmentFormTraineeID != actor.UserID {
		return nil, ErrForbidden.WithMessage("only the assessed trainee can confirm participation")
	}
	structure, err := s.Templates.GetStructure(ctx, form.AssessmentFormTemplateID)
	if err != nil {
		return nil, fromStore(err, ErrTemplateNotFound)
	}

	var out *StatusSnapshot
	err = s.Store.WithTx(ctx, func(tx repository.Tx) error {
		form, err := tx.LockForm(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		if form.AssessmentFormStatus != amodel.FormSignaturePending {
			return ErrAssessmentStatusNotAllowed.WithDetails(map[string]any{"status": form.AssessmentFormStatus})
		}

		sections, err := tx.ListSections(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		now := s.now()
		for i := range sections {
			sec := &sections[i]
			tsec, ok := structure.SectionByID(sec.AssessmentSectionTemplateSectionID)
			if !ok || tsec.Section.TemplateSectionEditBy != tmodel.EditByTrainee || !tsec.HasField(tmodel.FieldTypeSignatureDraw) {
				continue
			}
			values, err := tx.ListValues([]uuid.UUID{sec.AssessmentSectionID})
			if err != nil {
				return fromStore(err, ErrValueNotFound)
			}
			var updates []repository.ValueUpdate
			for _, v := range values {
				if field, _, ok := structure.FieldByID(v.AssessmentValueTemplateFieldID); ok && field.TemplateFieldType == tmodel.FieldTypeSignatureDraw {
					sig := signature
					updates = append(updates, repository.ValueUpdate{ValueID: v.AssessmentValueID, Answer: &sig})
				}
			}
			if _, err := tx.UpdateValues(sec.AssessmentSectionID, updates, actor.UserID, now); err != nil {
				return fromStore(err, ErrValueNotFound)
			}
			if err := tx.ForceSectionDraft(sec.AssessmentSectionID, actor.UserID, now); err != nil {
				return fromStore(err, ErrSectionNotFound)
			}
		}

		snap, _, err := recount(tx, form, structure)
		if err != nil {
			return err
		}
		next, err := lifecycle.Next(snap, lifecycle.EventParticipationConfirmed)
		if err != nil {
			return transitionErr(err)
		}
		if err := transition(tx, form, lifecycle.EventParticipationConfirmed, repository.FormPatch{
			Status:      &next,
			UpdatedByID: actor.UserID,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}
		form.AssessmentFormStatus = next
		snap.Status = next
		out = snapshotOf(form, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[AssessmentService] ✍️ participation confirmed form=%s trainee=%s", formID, actor.UserID)
	return out, nil
}

/* =========================
   Toggle trainee lock
========================= */

func (s *Service) ToggleTraineeLock(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID) (*StatusSnapshot, error) {
	_, structure, _, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, err
	}

	var out *StatusSnapshot
	err = s.Store.WithTx(ctx, func(tx repository.Tx) error {
		form, err := tx.LockForm(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		snap, sections, err := recount(tx, form, structure)
		if err != nil {
			return err
		}
		if _, err := lifecycle.Next(snap, lifecycle.EventLockToggled); err != nil {
			return transitionErr(err)
		}
		if !form.AssessmentFormOccurrenceDate.Equal(s.today()) {
			return ErrOccurrenceDateNotToday
		}
		if !assessedAny(sections, actor.UserID, nil) {
			return ErrForbidden.WithMessage("only a trainer who assessed this form can toggle the trainee lock")
		}

		locked := !form.AssessmentFormIsTraineeLocked
		if err := transition(tx, form, lifecycle.EventLockToggled, repository.FormPatch{
			IsTraineeLocked: &locked,
			UpdatedByID:     actor.UserID,
			UpdatedAt:       s.now(),
		}); err != nil {
			return err
		}
		form.AssessmentFormIsTraineeLocked = locked
		out = snapshotOf(form, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[AssessmentService] 🔒 trainee lock form=%s locked=%v by=%s", formID, out.IsTraineeLocked, actor.UserID)
	return out, nil
}

/* =========================
   Submit
========================= */

func (s *Service) Submit(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID) (*StatusSnapshot, error) {
	_, structure, _, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	submittable := map[uuid.UUID]bool{}
	for _, sec := range structure.Sections {
		if sec.Section.TemplateSectionIsSubmittable {
			submittable[sec.Section.TemplateSectionID] = true
		}
	}

	var out *StatusSnapshot
	err = s.Store.WithTx(ctx, func(tx repository.Tx) error {
		form, err := tx.LockForm(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		if form.AssessmentFormStatus != amodel.FormReadyToSubmit {
			return ErrAssessmentStatusNotAllowed.WithDetails(map[string]any{"status": form.AssessmentFormStatus})
		}
		snap, sections, err := recount(tx, form, structure)
		if err != nil {
			return err
		}
		if !snap.AllSectionsDraft {
			return ErrSectionsIncomplete
		}
		if !assessedAny(sections, actor.UserID, submittable) {
			return ErrForbidden.WithMessage("only an assessor of a submittable section can submit")
		}
		next, err := lifecycle.Next(snap, lifecycle.EventSubmitted)
		if err != nil {
			return transitionErr(err)
		}

		now := s.now()
		by := actor.UserID
		if err := transition(tx, form, lifecycle.EventSubmitted, repository.FormPatch{
			Status:        &next,
			SubmittedAt:   &now,
			SubmittedByID: &by,
			UpdatedByID:   actor.UserID,
			UpdatedAt:     now,
		}); err != nil {
			return err
		}
		form.AssessmentFormStatus = next
		form.AssessmentFormSubmittedAt = &now
		form.AssessmentFormSubmittedByID = &by
		snap.Status = next
		out = snapshotOf(form, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[AssessmentService] 📨 submitted form=%s by=%s", formID, actor.UserID)
	return out, nil
}

// assessedAny: aktor meng-assess minimal satu section (opsional dibatasi ke template section tertentu).
func assessedAny(sections []amodel.AssessmentSectionModel, userID uuid.UUID, only map[uuid.UUID]bool) bool {
	for i := range sections {
		if !sections[i].AssessedBy(userID) {
			continue
		}
		if only == nil || only[sections[i].AssessmentSectionTemplateSectionID] {
			return true
		}
	}
	return false
}
