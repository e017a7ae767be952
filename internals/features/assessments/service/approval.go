// file: internals/features/assessments/service/approval.go
package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"trainingku_backend/internals/features/assessments/lifecycle"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/repository"
	"trainingku_backend/internals/features/assessments/scoring"
	dmodel "trainingku_backend/internals/features/directory/model"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

type ReviewInput struct {
	Comment string
}

// reviewContext memuat form, struktur, dan memastikan aktor adalah reviewer yang sah.
func (s *Service) reviewContext(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID) (*amodel.AssessmentFormModel, *actorContext, error) {
	form, _, ac, err := s.loadForm(ctx, actor, formID)
	if err != nil {
		return nil, nil, err
	}
	role, err := s.Directory.UserMainRole(ctx, actor.UserID)
	if err != nil {
		return nil, nil, fromStore(err, ErrForbidden)
	}
	if strings.ToUpper(role) != actor.Role || !ac.canReview(form) {
		return nil, nil, ErrForbidden.WithMessage("only an assessment reviewer who did not submit this form can review it")
	}
	return form, ac, nil
}

/* =========================
   Approve
========================= */

func (s *Service) Approve(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID, in ReviewInput) (*StatusSnapshot, error) {
	form, ac, err := s.reviewContext(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	structure, err := s.Templates.GetStructure(ctx, form.AssessmentFormTemplateID)
	if err != nil {
		return nil, fromStore(err, ErrTemplateNotFound)
	}

	// assessor tiap section (untuk SIGNATURE_IMG); section tidak bisa berubah setelah SUBMITTED
	sections, err := s.Store.ListSections(ctx, formID)
	if err != nil {
		return nil, fromStore(err, ErrAssessmentNotFound)
	}
	assessors, err := s.assessorsOf(ctx, sections)
	if err != nil {
		return nil, err
	}

	var out *StatusSnapshot
	err = s.Store.WithTx(ctx, func(tx repository.Tx) error {
		form, err := tx.LockForm(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		if form.AssessmentFormStatus != amodel.FormSubmitted {
			return ErrStatusConflict.WithDetails(map[string]any{"status": form.AssessmentFormStatus})
		}

		snap, sections, err := recount(tx, form, structure)
		if err != nil {
			return err
		}
		next, err := lifecycle.Next(snap, lifecycle.EventApproved)
		if err != nil {
			return transitionErr(err)
		}

		sectionIDs := make([]uuid.UUID, len(sections))
		sectionOf := make(map[uuid.UUID]*amodel.AssessmentSectionModel, len(sections))
		for i := range sections {
			sectionIDs[i] = sections[i].AssessmentSectionID
			sectionOf[sections[i].AssessmentSectionID] = &sections[i]
		}
		values, err := tx.ListValues(sectionIDs)
		if err != nil {
			return fromStore(err, ErrValueNotFound)
		}

		inputs := make([]scoring.Value, 0, len(values))
		valueSection := make(map[uuid.UUID]uuid.UUID, len(values))
		for _, v := range values {
			field, tsec, ok := structure.FieldByID(v.AssessmentValueTemplateFieldID)
			if !ok {
				continue
			}
			sv := scoring.Value{
				ValueID:      v.AssessmentValueID,
				FieldType:    field.TemplateFieldType,
				SectionOrder: tsec.Section.TemplateSectionDisplayOrder,
				FieldOrder:   field.TemplateFieldDisplayOrder,
				Answer:       v.AssessmentValueAnswerValue,
			}
			if sec := sectionOf[v.AssessmentValueSectionID]; sec != nil && sec.AssessmentSectionAssessedByID != nil {
				if u, ok := assessors[*sec.AssessmentSectionAssessedByID]; ok {
					sv.Assessor = &u
				}
			}
			inputs = append(inputs, sv)
			valueSection[v.AssessmentValueID] = v.AssessmentValueSectionID
		}

		result := scoring.Compute(inputs, ac.Entity.PassScore)

		now := s.now()
		bySection := map[uuid.UUID][]repository.ValueUpdate{}
		for valueID, answer := range result.Overwrites {
			a := answer
			secID := valueSection[valueID]
			bySection[secID] = append(bySection[secID], repository.ValueUpdate{ValueID: valueID, Answer: &a})
		}
		for secID, updates := range bySection {
			if _, err := tx.UpdateValues(secID, updates, actor.UserID, now); err != nil {
				return fromStore(err, ErrValueNotFound)
			}
		}

		by := actor.UserID
		patch := repository.FormPatch{
			Status:       &next,
			ApprovedByID: &by,
			ApprovedAt:   &now,
			ResultScore:  result.Score,
			ResultText:   result.Text,
			ScoreDetails: datatypes.JSONMap(result.Details),
			UpdatedByID:  actor.UserID,
			UpdatedAt:    now,
		}
		if c := strings.TrimSpace(in.Comment); c != "" {
			patch.Comment = &c
		}
		if err := transition(tx, form, lifecycle.EventApproved, patch); err != nil {
			return err
		}

		form.AssessmentFormStatus = next
		form.AssessmentFormApprovedAt = &now
		form.AssessmentFormResultScore = result.Score
		form.AssessmentFormResultText = result.Text
		snap.Status = next
		out = snapshotOf(form, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AssessmentService] ✅ approved form=%s by=%s", formID, actor.UserID)
	s.afterCommit("enqueue pdf render", func() error {
		return s.Scheduler.EnqueuePDFRender(ctx, formID)
	})
	return out, nil
}

func (s *Service) assessorsOf(ctx context.Context, sections []amodel.AssessmentSectionModel) (map[uuid.UUID]dmodel.UserModel, error) {
	var ids []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, sec := range sections {
		if by := sec.AssessmentSectionAssessedByID; by != nil && !seen[*by] {
			seen[*by] = true
			ids = append(ids, *by)
		}
	}
	users, err := s.Directory.FindUsers(ctx, ids)
	if err != nil {
		return nil, fromStore(err, ErrInternal)
	}
	out := make(map[uuid.UUID]dmodel.UserModel, len(users))
	for _, u := range users {
		out[u.UserID] = u
	}
	return out, nil
}

/* =========================
   Reject
========================= */

func (s *Service) Reject(ctx context.Context, actor helperAuth.Actor, formID uuid.UUID, in ReviewInput) (*StatusSnapshot, error) {
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}
	if _, _, err := s.reviewContext(ctx, actor, formID); err != nil {
		return nil, err
	}

	var out *StatusSnapshot
	err := s.Store.WithTx(ctx, func(tx repository.Tx) error {
		form, err := tx.LockForm(formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		next, err := lifecycle.Next(lifecycle.Snapshot{Status: form.AssessmentFormStatus}, lifecycle.EventRejected)
		if err != nil {
			return ErrStatusConflict.WithDetails(map[string]any{"status": form.AssessmentFormStatus})
		}
		now := s.now()
		if err := transition(tx, form, lifecycle.EventRejected, repository.FormPatch{
			Status:      &next,
			Comment:     &comment,
			ClearResult: true,
			UpdatedByID: actor.UserID,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}
		form.AssessmentFormStatus = next
		form.AssessmentFormComment = &comment
		form.AssessmentFormResultScore = nil
		form.AssessmentFormResultText = nil
		out = snapshotOf(form, lifecycle.Snapshot{Status: next})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[AssessmentService] ↩️ rejected form=%s by=%s", formID, actor.UserID)
	return out, nil
}

/* =========================
   Attach PDF (worker)
========================= */

func (s *Service) AttachPDF(ctx context.Context, formID uuid.UUID, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrInvalidFieldValue.WithMessage("pdf url is empty")
	}
	n, err := s.Store.AttachPDF(ctx, formID, url, s.now())
	if err != nil {
		return fromStore(err, ErrAssessmentNotFound)
	}
	if n == 0 {
		form, err := s.Store.FindForm(ctx, formID)
		if err != nil {
			return fromStore(err, ErrAssessmentNotFound)
		}
		return ErrAssessmentStatusNotAllowed.WithDetails(map[string]any{"status": form.AssessmentFormStatus})
	}
	log.Printf("[AssessmentService] 📎 pdf attached form=%s", formID)
	return nil
}
