// file: internals/features/assessments/controller/assessment_controller.go
package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"trainingku_backend/internals/features/assessments/service"
	helper "trainingku_backend/internals/helpers"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

/*
========================================================

	Controller

========================================================
*/
type AssessmentController struct {
	Service   *service.Service
	Validator *validator.Validate
	Loc       *time.Location
}

func NewAssessmentController(svc *service.Service) *AssessmentController {
	loc := time.UTC
	if svc != nil && svc.Loc != nil {
		loc = svc.Loc
	}
	return &AssessmentController{
		Service:   svc,
		Validator: validator.New(),
		Loc:       loc,
	}
}

/* ========================================================
   Helpers
======================================================== */

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" is not a valid UUID")
	}
	return id, nil
}

// statusOfKind memetakan AppError.Kind ke HTTP status.
func statusOfKind(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return fiber.StatusUnprocessableEntity
	case service.KindConflict:
		return fiber.StatusConflict
	case service.KindForbidden:
		return fiber.StatusForbidden
	case service.KindNotFound:
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// writeError: satu pintu keluar error untuk semua handler assessment.
func writeError(c *fiber.Ctx, err error) error {
	if ae, ok := service.AsAppError(err); ok {
		status := statusOfKind(ae.Kind)
		if status >= 500 {
			log.Printf("[AssessmentController] ❌ %s %s: %v", c.Method(), c.OriginalURL(), err)
			return helper.JsonErrorWithDetails(c, status, ae.Code, ae.Message, nil)
		}
		return helper.JsonErrorWithDetails(c, status, ae.Code, ae.Message, ae.Details)
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return helper.JsonValidationError(c, err)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return helper.JsonError(c, fe.Code, fe.Message)
	}
	log.Printf("[AssessmentController] ❌ %s %s: %v", c.Method(), c.OriginalURL(), err)
	return helper.JsonError(c, fiber.StatusInternalServerError, "internal error")
}

// bind: parse body, normalisasi, lalu validasi struct.
func (ctl *AssessmentController) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if n, ok := out.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	return ctl.Validator.Struct(out)
}

// actorAndID: aktor dari token + :id assessment.
func actorAndID(c *fiber.Ctx) (helperAuth.Actor, uuid.UUID, error) {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helperAuth.Actor{}, uuid.Nil, err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helperAuth.Actor{}, uuid.Nil, err
	}
	return actor, id, nil
}
