package route

import (
	"github.com/gofiber/fiber/v2"

	"trainingku_backend/internals/constants"
	"trainingku_backend/internals/features/assessments/controller"
	"trainingku_backend/internals/middlewares"
	authMiddleware "trainingku_backend/internals/middlewares/auth"
)

// AssessmentUserRoutes: semua user login (trainee, trainer, manajemen).
// Hak akses per form/section diputuskan di service.
func AssessmentUserRoutes(r fiber.Router, ctl *controller.AssessmentController) {
	g := r.Group("/assessments")

	// events harus didaftarkan sebelum /:id
	g.Get("/events", ctl.Events)
	g.Get("/events/forms", ctl.EventForms)

	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Detail)
	g.Get("/:id/sections", ctl.Sections)
	g.Get("/:id/trainee-sections", ctl.TraineeSections)
	g.Get("/:id/sections/:section_id/fields", ctl.SectionFields)

	g.Post("/:id/sections/:section_id/values", ctl.SaveValues)
	g.Patch("/:id/sections/:section_id/values", ctl.UpdateValues)
	g.Post("/:id/confirm-participation", ctl.ConfirmParticipation)
	g.Patch("/:id/trainee-lock", ctl.ToggleTraineeLock)
	g.Post("/:id/submit", ctl.Submit)
	g.Post("/:id/approve", ctl.Approve)
	g.Post("/:id/reject", ctl.Reject)
}

// AssessmentCreatorRoutes: pembuatan form dan operasi per event.
func AssessmentCreatorRoutes(r fiber.Router, ctl *controller.AssessmentController) {
	guard := authMiddleware.OnlyRoles(constants.RoleErrorCreator("assessment creation"), constants.CreatorRoles...)
	g := r.Group("/assessments")

	// guard dipasang per route, bukan di Group
	g.Post("/", guard, ctl.Create)
	g.Post("/bulk", guard, middlewares.BulkCreateRateLimiter(), ctl.CreateBulk)
	g.Post("/events/start", guard, ctl.StartEvent)
	g.Post("/events/archive", guard, ctl.ArchiveEvent)
}

// AssessmentManagerRoutes: tampilan level departemen.
func AssessmentManagerRoutes(r fiber.Router, ctl *controller.AssessmentController) {
	guard := authMiddleware.OnlyRoles(constants.RoleErrorManager("department events"), constants.ManagerRoles...)
	r.Get("/assessments/events/department", guard, ctl.DepartmentEvents)
}
