package details

import (
	"github.com/gofiber/fiber/v2"

	assessmentController "trainingku_backend/internals/features/assessments/controller"
	assessmentRoutes "trainingku_backend/internals/features/assessments/route"
	"trainingku_backend/internals/features/assessments/service"
)

// AssessmentRoutes dipasang di bawah group /api yang sudah melewati AuthMiddleware.
func AssessmentRoutes(api fiber.Router, svc *service.Service) {
	ctl := assessmentController.NewAssessmentController(svc)

	assessmentRoutes.AssessmentManagerRoutes(api, ctl)
	assessmentRoutes.AssessmentCreatorRoutes(api, ctl)
	assessmentRoutes.AssessmentUserRoutes(api, ctl)
}
