// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helperAuth "trainingku_backend/internals/helpers/auth"
)

type AuthOpts struct {
	Secret              string
	AllowCookieFallback bool // pakai cookie access_token jika tidak ada Bearer
	ExpirySkew          time.Duration

	// UserActive opsional: nil = tidak cek status user ke DB
	UserActive func(ctx context.Context, userID uuid.UUID) error
}

// AuthMiddleware memverifikasi JWT (HMAC) lalu mengisi locals user_id, userRole, user_name.
func AuthMiddleware(o AuthOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		log.Println("[ERROR] JWT_SECRET kosong, semua request terautentikasi akan ditolak")
	}
	if o.ExpirySkew <= 0 {
		o.ExpirySkew = 30 * time.Second
	}

	return func(c *fiber.Ctx) error {
		if secret == "" {
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		// 1) Ambil Authorization (atau cookie)
		tokenString, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		// 2) Parse + verifikasi algoritma (exp dicek manual dengan skew)
		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		}); err != nil {
			log.Println("[ERROR] Gagal parse token:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		// 3) Validasi exp
		if err := validateTokenExpiry(claims, o.ExpirySkew); err != nil {
			log.Println("[ERROR] Exp validation:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		// 4) user_id + role
		userID, err := extractUserID(claims)
		if err != nil {
			log.Println("[ERROR] user_id:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}
		role := strings.ToUpper(strClaim(claims, "role"))
		if role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Role not found")
		}

		if o.UserActive != nil {
			if err := o.UserActive(c.UserContext(), userID); err != nil {
				log.Println("[ERROR] user active check:", err)
				return fiber.NewError(fiber.StatusForbidden, "Account is not active")
			}
		}

		c.Locals(helperAuth.LocUserID, userID.String())
		c.Locals(helperAuth.LocUserRole, role)
		if name := strClaim(claims, "user_name"); name != "" {
			c.Locals(helperAuth.LocUserName, name)
		}
		return c.Next()
	}
}
