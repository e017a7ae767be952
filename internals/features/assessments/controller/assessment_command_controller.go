package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"trainingku_backend/internals/features/assessments/dto"
	helper "trainingku_backend/internals/helpers"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

/* ===============================
   Creation
=============================== */

// POST /assessments
func (ctl *AssessmentController) Create(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	var req dto.CreateAssessmentRequest
	if err := ctl.bind(c, &req); err != nil {
		return writeError(c, err)
	}
	in, err := req.ToInput(ctl.Loc)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "occurrence_date must be YYYY-MM-DD")
	}

	res, err := ctl.Service.CreateAssessments(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("[AssessmentController] ✅ created %d assessments by=%s", res.TotalCreated, actor.UserID)
	return helper.JsonCreated(c, "Assessments created", dto.FromCreateResult(res))
}

// POST /assessments/bulk
func (ctl *AssessmentController) CreateBulk(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	var req dto.BulkCreateAssessmentRequest
	if err := ctl.bind(c, &req); err != nil {
		return writeError(c, err)
	}
	in, err := req.ToInput(ctl.Loc)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "occurrence_date must be YYYY-MM-DD")
	}

	res, err := ctl.Service.CreateBulkAssessments(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "Assessments created", dto.FromBulkResult(res))
}

/* ===============================
   Section values
=============================== */

// POST /assessments/:id/sections/:section_id/values
func (ctl *AssessmentController) SaveValues(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	sectionID, err := parseUUIDParam(c, "section_id")
	if err != nil {
		return writeError(c, err)
	}
	var req dto.SectionValuesRequest
	if err := ctl.bind(c, &req); err != nil {
		return writeError(c, err)
	}

	snap, err := ctl.Service.SaveSectionValues(c.UserContext(), actor, formID, sectionID, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Section saved", snap)
}

// PATCH /assessments/:id/sections/:section_id/values
func (ctl *AssessmentController) UpdateValues(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	sectionID, err := parseUUIDParam(c, "section_id")
	if err != nil {
		return writeError(c, err)
	}
	var req dto.SectionValuesRequest
	if err := ctl.bind(c, &req); err != nil {
		return writeError(c, err)
	}

	snap, err := ctl.Service.UpdateSectionValues(c.UserContext(), actor, formID, sectionID, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "Section updated", snap)
}

/* ===============================
   Workflow
=============================== */

// POST /assessments/:id/confirm-participation
func (ctl *AssessmentController) ConfirmParticipation(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req dto.ConfirmParticipationRequest
	if err := ctl.bind(c, &req); err != nil {
		return writeError(c, err)
	}

	snap, err := ctl.Service.ConfirmParticipation(c.UserContext(), actor, formID, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Participation confirmed", snap)
}

// PATCH /assessments/:id/trainee-lock
func (ctl *AssessmentController) ToggleTraineeLock(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	snap, err := ctl.Service.ToggleTraineeLock(c.UserContext(), actor, formID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "Trainee lock toggled", snap)
}

// POST /assessments/:id/submit
func (ctl *AssessmentController) Submit(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	snap, err := ctl.Service.Submit(c.UserContext(), actor, formID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Assessment submitted", snap)
}

/* ===============================
   Review
=============================== */

// reviewBody: body approve boleh kosong.
func (ctl *AssessmentController) reviewBody(c *fiber.Ctx) (dto.ReviewRequest, error) {
	var req dto.ReviewRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := ctl.bind(c, &req); err != nil {
		return req, err
	}
	return req, nil
}

// POST /assessments/:id/approve
func (ctl *AssessmentController) Approve(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	req, err := ctl.reviewBody(c)
	if err != nil {
		return writeError(c, err)
	}
	snap, err := ctl.Service.Approve(c.UserContext(), actor, formID, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Assessment approved", snap)
}

// POST /assessments/:id/reject
func (ctl *AssessmentController) Reject(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	req, err := ctl.reviewBody(c)
	if err != nil {
		return writeError(c, err)
	}
	snap, err := ctl.Service.Reject(c.UserContext(), actor, formID, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Assessment rejected", snap)
}
