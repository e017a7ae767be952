package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"trainingku_backend/internals/features/assessments/dto"
	amodel "trainingku_backend/internals/features/assessments/model"
	"trainingku_backend/internals/features/assessments/service"
	helper "trainingku_backend/internals/helpers"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

// ?status=ON_GOING,FINISHED
func queryEventStatuses(c *fiber.Ctx) ([]amodel.EventStatus, error) {
	raw := strings.TrimSpace(c.Query("status"))
	if raw == "" {
		return nil, nil
	}
	var out []amodel.EventStatus
	for _, part := range strings.Split(raw, ",") {
		switch st := amodel.EventStatus(strings.ToUpper(strings.TrimSpace(part))); st {
		case amodel.EventNotStarted, amodel.EventOnGoing, amodel.EventFinished:
			out = append(out, st)
		default:
			return nil, fiber.NewError(fiber.StatusBadRequest, "unknown event status: "+part)
		}
	}
	return out, nil
}

func (ctl *AssessmentController) parseEventQuery(c *fiber.Ctx, p helper.Params) (service.EventQuery, error) {
	scope, err := ctl.parseScopeFilters(c)
	if err != nil {
		return service.EventQuery{}, err
	}
	statuses, err := queryEventStatuses(c)
	if err != nil {
		return service.EventQuery{}, err
	}
	return service.EventQuery{
		Statuses:       statuses,
		SubjectID:      scope.SubjectID,
		CourseID:       scope.CourseID,
		TemplateID:     scope.TemplateID,
		OccurrenceFrom: scope.From,
		OccurrenceTo:   scope.To,
		Search:         c.Query("q"),
		Limit:          p.Limit(),
		Offset:         p.Offset(),
	}, nil
}

// GET /assessments/events
func (ctl *AssessmentController) Events(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	p := helper.ParseFiber(c, "occurrence_date", "desc", helper.DefaultOpts)
	q, err := ctl.parseEventQuery(c, p)
	if err != nil {
		return writeError(c, err)
	}
	rows, total, err := ctl.Service.ListEvents(c.UserContext(), actor, q)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromEventSummaries(rows), helper.BuildMeta(total, p))
}

// GET /assessments/events/department
func (ctl *AssessmentController) DepartmentEvents(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	p := helper.ParseFiber(c, "occurrence_date", "desc", helper.DefaultOpts)
	q, err := ctl.parseEventQuery(c, p)
	if err != nil {
		return writeError(c, err)
	}
	rows, total, err := ctl.Service.ListDepartmentEvents(c.UserContext(), actor, q)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromDepartmentEvents(rows), helper.BuildMeta(total, p))
}

// GET /assessments/events/forms?template_id=&subject_id=|course_id=&occurrence_date=
func (ctl *AssessmentController) EventForms(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	req, err := eventKeyFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	req.Normalize()
	if err := ctl.Validator.Struct(req); err != nil {
		return writeError(c, err)
	}
	key, err := req.ToKey()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "occurrence_date must be YYYY-MM-DD")
	}

	p := helper.ParseFiber(c, "name", "asc", helper.DefaultOpts)
	rows, total, err := ctl.Service.ListEventForms(c.UserContext(), actor, key, p.Limit(), p.Offset())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildMeta(total, p))
}

func eventKeyFromQuery(c *fiber.Ctx) (dto.EventKeyRequest, error) {
	var req dto.EventKeyRequest
	tpl, err := queryUUID(c, "template_id")
	if err != nil {
		return req, err
	}
	if tpl != nil {
		req.TemplateID = *tpl
	}
	if req.SubjectID, err = queryUUID(c, "subject_id"); err != nil {
		return req, err
	}
	if req.CourseID, err = queryUUID(c, "course_id"); err != nil {
		return req, err
	}
	req.OccurrenceDate = c.Query("occurrence_date")
	return req, nil
}

// bindEventKey: body {template_id, subject_id|course_id, occurrence_date}.
func (ctl *AssessmentController) bindEventKey(c *fiber.Ctx) (amodel.EventKey, error) {
	var req dto.EventKeyRequest
	if err := ctl.bind(c, &req); err != nil {
		return amodel.EventKey{}, err
	}
	key, err := req.ToKey()
	if err != nil {
		return amodel.EventKey{}, fiber.NewError(fiber.StatusBadRequest, "occurrence_date must be YYYY-MM-DD")
	}
	return key, nil
}

// POST /assessments/events/start
func (ctl *AssessmentController) StartEvent(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	key, err := ctl.bindEventKey(c)
	if err != nil {
		return writeError(c, err)
	}
	n, err := ctl.Service.StartEventAs(c.UserContext(), actor, key)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Event started", dto.FromEventCount(key, n))
}

// POST /assessments/events/archive
func (ctl *AssessmentController) ArchiveEvent(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return writeError(c, err)
	}
	key, err := ctl.bindEventKey(c)
	if err != nil {
		return writeError(c, err)
	}
	n, err := ctl.Service.ArchiveEvent(c.UserContext(), actor, key)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Event archived", dto.FromEventCount(key, n))
}
