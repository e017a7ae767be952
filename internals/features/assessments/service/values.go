// file: internals/features/assessments/service/values.go
package service

import (
	"context"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/permission"
	"trainingku_backend/internals/features/assessments/repository"
	"trainingku_backend/internals/features/assessments/scoring"
	tmodel "trainingku_backend/internals/features/templates/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

type ValueInput struct {
	ValueID uuid.UUID
	Answer  *string
}

type SectionValuesInput struct {
	Values []ValueInput
}

type InvalidValue struct {
	ValueID   string           `json:"value_id"`
	FieldType tmodel.FieldType `json:"field_type,omitempty"`
	Reason    string           `json:"reason"`
}

/* =========================
   Save (first claim)
========================= */

func (s *Service) SaveSectionValues(ctx context.Context, actor helperAuth.Actor, formID, sectionID uuid.UUID, in SectionValuesInput) (*StatusSnapshot, error) {
	_, structure, ac, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, err
	}

	var out *StatusSnapshot
	err = s.Store.WithTx(ctx, func(tx repository.Tx) error {
		form, err := tx.LockForm(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		sec, tsec, err := loadSection(tx, structure, formID, sectionID)
		if err != nil {
			return err
		}
		if tsec.IsTraineeSignatureOnly() {
			return ErrSignatureSection
		}

		access := ac.access(form, sec, &tsec.Section)
		switch {
		case !access.CanView:
			return ErrForbidden
		case sec.Claimed():
			return ErrSectionAlreadyAssessed
		case !access.CanAssess:
			return ErrForbidden
		case !form.AssessmentFormStatus.In(amodel.SaveableStatuses...):
			return ErrAssessmentStatusNotAllowed.WithDetails(map[string]any{"status": form.AssessmentFormStatus})
		}

		updates, err := s.prepareValues(tx, sec, tsec, ac, in.Values)
		if err != nil {
			return err
		}

		now := s.now()
		n, err := tx.ClaimSection(sec.AssessmentSectionID, actor.UserID, now)
		if err != nil {
			return fromStore(err, ErrSectionNotFound)
		}
		if n == 0 {
			return ErrSectionAlreadyAssessed
		}
		if _, err := tx.UpdateValues(sec.AssessmentSectionID, updates, actor.UserID, now); err != nil {
			return fromStore(err, ErrValueNotFound)
		}

		snap, _, err := recount(tx, form, structure)
		if err != nil {
			return err
		}
		next, err := lifecycle.Next(snap, lifecycle.EventSectionSaved)
		if err != nil {
			return transitionErr(err)
		}
		if err := transition(tx, form, lifecycle.EventSectionSaved, repository.FormPatch{
			Status:      &next,
			UpdatedByID: actor.UserID,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}

		form.AssessmentFormStatus = next
		snap.Status = next
		claimed, err := tx.GetSection(formID, sectionID)
		if err != nil {
			return fromStore(err, ErrSectionNotFound)
		}
		out = snapshotOf(form, snap).withSection(claimed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AssessmentService] 💾 section saved form=%s section=%s by=%s status=%s",
		formID, sectionID, actor.UserID, out.Status)
	return out, nil
}

/* =========================
   Update (re-edit by original assessor)
========================= */

func (s *Service) UpdateSectionValues(ctx context.Context, actor helperAuth.Actor, formID, sectionID uuid.UUID, in SectionValuesInput) (*StatusSnapshot, error) {
	_, structure, ac, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, err
	}

	var out *StatusSnapshot
	err = s.Store.WithTx(ctx, func(tx repository.Tx) error {
		form, err := tx.LockForm(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		sec, tsec, err := loadSection(tx, structure, formID, sectionID)
		if err != nil {
			return err
		}

		switch {
		case !sec.AssessedBy(actor.UserID):
			return ErrOriginalAssessorOnly
		case sec.AssessmentSectionStatus != amodel.SectionDraft:
			return ErrSectionDraftStatusOnly
		case !form.AssessmentFormStatus.Editable():
			return ErrAssessmentStatusNotAllowed.WithDetails(map[string]any{"status": form.AssessmentFormStatus})
		}
		if !ac.access(form, sec, &tsec.Section).CanUpdate {
			return ErrForbidden
		}

		updates, err := s.prepareValues(tx, sec, tsec, ac, in.Values)
		if err != nil {
			return err
		}

		now := s.now()
		if _, err := tx.UpdateValues(sec.AssessmentSectionID, updates, actor.UserID, now); err != nil {
			return fromStore(err, ErrValueNotFound)
		}

		snap, _, err := recount(tx, form, structure)
		if err != nil {
			return err
		}
		next, err := lifecycle.Next(snap, lifecycle.EventSectionUpdated)
		if err != nil {
			return transitionErr(err)
		}
		if err := transition(tx, form, lifecycle.EventSectionUpdated, repository.FormPatch{
			Status:      &next,
			UpdatedByID: actor.UserID,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}
		if next != form.AssessmentFormStatus {
			log.Printf("[AssessmentService] 🔁 form=%s %s → %s after section update", formID, form.AssessmentFormStatus, next)
		}

		form.AssessmentFormStatus = next
		snap.Status = next
		out = snapshotOf(form, snap).withSection(sec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

/* =========================
   Helpers
========================= */

func loadSection(tx repository.Tx, structure *tmodel.TemplateStructure, formID, sectionID uuid.UUID) (*amodel.AssessmentSectionModel, *tmodel.SectionStructure, error) {
	sec, err := tx.GetSection(formID, sectionID)
	if err != nil {
		return nil, nil, fromStore(err, ErrSectionNotFound)
	}
	tsec, ok := structure.SectionByID(sec.AssessmentSectionTemplateSectionID)
	if !ok {
		return nil, nil, ErrSectionNotFound.WithMessage("template section no longer exists")
	}
	return sec, tsec, nil
}

// transition: conditional update dengan guard status asal = status yang sedang dikunci.
func transition(tx repository.Tx, form *amodel.AssessmentFormModel, ev lifecycle.Event, patch repository.FormPatch) error {
	n, err := tx.TransitionForm(form.AssessmentFormID, []amodel.FormStatus{form.AssessmentFormStatus}, patch)
	if err != nil {
		return fromStore(err, ErrAssessmentNotFound)
	}
	if n == 0 {
		log.Printf("[AssessmentService] ⚠️ %s on form=%s affected 0 rows", ev, form.AssessmentFormID)
		return ErrStatusConflict
	}
	return nil
}

// prepareValues memvalidasi input terhadap value milik section + tipe field + roleRequired.
func (s *Service) prepareValues(tx repository.Tx, sec *amodel.AssessmentSectionModel, tsec *tmodel.SectionStructure, ac *actorContext, inputs []ValueInput) ([]repository.ValueUpdate, error) {
	existing, err := tx.ListValues([]uuid.UUID{sec.AssessmentSectionID})
	if err != nil {
		return nil, fromStore(err, ErrValueNotFound)
	}
	byID := make(map[uuid.UUID]amodel.AssessmentValueModel, len(existing))
	for _, v := range existing {
		byID[v.AssessmentValueID] = v
	}
	fields := make(map[uuid.UUID]tmodel.TemplateFieldModel, len(tsec.Fields))
	for _, f := range tsec.Fields {
		fields[f.TemplateFieldID] = f
	}

	var (
		missing    []string
		roleDenied []string
		invalid    []InvalidValue
	)
	seen := map[uuid.UUID]int{}
	updates := make([]repository.ValueUpdate, 0, len(inputs))
	for _, in := range inputs {
		v, ok := byID[in.ValueID]
		if !ok {
			missing = append(missing, in.ValueID.String())
			continue
		}
		field, ok := fields[v.AssessmentValueTemplateFieldID]
		if !ok {
			missing = append(missing, in.ValueID.String())
			continue
		}
		if !permission.FieldWritable(ac.AssessmentRole, field.TemplateFieldRoleRequired) {
			roleDenied = append(roleDenied, in.ValueID.String())
			continue
		}
		answer, reason := normalizeAnswer(field.TemplateFieldType, in.Answer)
		if reason != "" {
			invalid = append(invalid, InvalidValue{ValueID: in.ValueID.String(), FieldType: field.TemplateFieldType, Reason: reason})
			continue
		}
		u := repository.ValueUpdate{ValueID: in.ValueID, Answer: answer}
		if i, dup := seen[in.ValueID]; dup {
			updates[i] = u
			continue
		}
		seen[in.ValueID] = len(updates)
		updates = append(updates, u)
	}

	switch {
	case len(missing) > 0:
		return nil, ErrValueNotFound.WithDetails(IDList{IDs: missing})
	case len(roleDenied) > 0:
		return nil, ErrFieldRoleRequired.WithDetails(IDList{IDs: roleDenied})
	case len(invalid) > 0:
		return nil, ErrInvalidFieldValue.WithDetails(invalid)
	}
	return updates, nil
}

// normalizeAnswer: nil/kosong selalu boleh (mengosongkan). Return reason != "" bila tidak valid.
func normalizeAnswer(ft tmodel.FieldType, raw *string) (*string, string) {
	if raw == nil {
		return nil, ""
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil, ""
	}
	switch ft {
	case tmodel.FieldTypeNumber, tmodel.FieldTypeFinalScoreNum:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, "must be a finite number"
		}
	case tmodel.FieldTypeToggle, tmodel.FieldTypeSectionControl:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, "must be true or false"
		}
		v = strconv.FormatBool(b)
	case tmodel.FieldTypeFinalScoreText:
		up := strings.ToUpper(v)
		if scoring.ParseResultText(up) != amodel.ResultText(up) {
			return nil, "must be PASS, FAIL or NOT_APPLICABLE"
		}
		v = up
	default:
		v = *raw
	}
	return &v, ""
}
