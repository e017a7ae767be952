// file: internals/route/index.go
package routes

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"trainingku_backend/internals/configs"
	"trainingku_backend/internals/features/assessments/service"
	dmodel "trainingku_backend/internals/features/directory/model"
	authMiddleware "trainingku_backend/internals/middlewares/auth"
	routeDetails "trainingku_backend/internals/route/details"
)

var startTime time.Time

var errUserNotActive = errors.New("user is not active")

// userActiveCheck: token valid tetapi user sudah nonaktif → 403.
func userActiveCheck(dir service.Directory) func(ctx context.Context, userID uuid.UUID) error {
	return func(ctx context.Context, userID uuid.UUID) error {
		users, err := dir.FindUsers(ctx, []uuid.UUID{userID})
		if err != nil {
			return err
		}
		if len(users) == 0 || users[0].UserStatus != dmodel.UserStatusActive {
			return errUserNotActive
		}
		return nil
	}
}

func SetupRoutes(app *fiber.App, svc *service.Service) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app)

	// ===================== PRIVATE (JWT) =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	api := app.Group("/api",
		authMiddleware.AuthMiddleware(authMiddleware.AuthOpts{
			Secret:              configs.JWTSecret,
			AllowCookieFallback: true,
			UserActive:          userActiveCheck(svc.Directory),
		}),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Assessment routes...")
	routeDetails.AssessmentRoutes(api, svc)
}
