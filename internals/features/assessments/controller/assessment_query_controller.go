package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"trainingku_backend/internals/features/assessments/dto"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/service"
	helper "trainingku_backend/internals/helpers"
	helperAuth "trainingku_backend/internals/helpers/auth"
	"trainingku_backend/internals/helpers/dbtime"
)

/* ===============================
   Query parsing
=============================== */

func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" is not a valid UUID")
	}
	return &id, nil
}

func queryDate(c *fiber.Ctx, name string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := dbtime.ParseDate(raw, loc)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return &d, nil
}

// ?status=DRAFT,SUBMITTED
func queryFormStatuses(c *fiber.Ctx) ([]amodel.FormStatus, error) {
	raw := strings.TrimSpace(c.Query("status"))
	if raw == "" {
		return nil, nil
	}
	var out []amodel.FormStatus
	for _, part := range strings.Split(raw, ",") {
		st, ok := amodel.ParseFormStatus(strings.ToUpper(strings.TrimSpace(part)))
		if !ok {
			return nil, fiber.NewError(fiber.StatusBadRequest, "unknown status: "+part)
		}
		out = append(out, st)
	}
	return out, nil
}

// scopeFilters: subject_id, course_id, template_id, from, to (dipakai list form & event).
type scopeFilters struct {
	SubjectID, CourseID, TemplateID *uuid.UUID
	From, To                        *time.Time
}

func (ctl *AssessmentController) parseScopeFilters(c *fiber.Ctx) (scopeFilters, error) {
	var f scopeFilters
	var err error
	if f.SubjectID, err = queryUUID(c, "subject_id"); err != nil {
		return f, err
	}
	if f.CourseID, err = queryUUID(c, "course_id"); err != nil {
		return f, err
	}
	if f.TemplateID, err = queryUUID(c, "template_id"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(c, "from", ctl.Loc); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "to", ctl.Loc); err != nil {
		return f, err
	}
	return f, nil
}

/* ===============================
   Handlers
=============================== */

// GET /assessments?status=&subject_id=&course_id=&template_id=&trainee_id=&from=&to=&q=&page=&per_page=&sort_by=&order=
func (ctl *AssessmentController) List(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)

	scope, err := ctl.parseScopeFilters(c)
	if err != nil {
		return writeError(c, err)
	}
	statuses, err := queryFormStatuses(c)
	if err != nil {
		return writeError(c, err)
	}
	traineeID, err := queryUUID(c, "trainee_id")
	if err != nil {
		return writeError(c, err)
	}

	rows, total, err := ctl.Service.ListAssessments(c.UserContext(), actor, service.ListQuery{
		Statuses:       statuses,
		TemplateID:     scope.TemplateID,
		SubjectID:      scope.SubjectID,
		CourseID:       scope.CourseID,
		TraineeID:      traineeID,
		OccurrenceFrom: scope.From,
		OccurrenceTo:   scope.To,
		Search:         c.Query("q"),
		Limit:          p.Limit(),
		Offset:         p.Offset(),
		SortBy:         p.SortBy,
		SortOrder:      p.SortOrder,
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildMeta(total, p))
}

// GET /assessments/:id
func (ctl *AssessmentController) Detail(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	detail, err := ctl.Service.GetAssessment(c.UserContext(), actor, formID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromDetail(detail))
}

// GET /assessments/:id/sections
func (ctl *AssessmentController) Sections(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := ctl.Service.ListSections(c.UserContext(), actor, formID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

// GET /assessments/:id/trainee-sections
func (ctl *AssessmentController) TraineeSections(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := ctl.Service.ListTraineeSections(c.UserContext(), actor, formID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

// GET /assessments/:id/sections/:section_id/fields
func (ctl *AssessmentController) SectionFields(c *fiber.Ctx) error {
	actor, formID, err := actorAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	sectionID, err := parseUUIDParam(c, "section_id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := ctl.Service.GetSectionFields(c.UserContext(), actor, formID, sectionID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}
