package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"trainingku_backend/internals/constants"
)

// Nama locals yang diisi middleware AuthJWT
const (
	LocUserID   = "user_id"
	LocUserRole = "userRole"
	LocUserName = "user_name"
)

// Actor adalah identitas terautentikasi {userId, roleName} yang dibawa ke service layer.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) Is(role string) bool { return a.Role == role }

func (a Actor) IsManager() bool {
	switch a.Role {
	case constants.RoleAdministrator, constants.RoleAcademicDepartment:
		return true
	}
	return false
}

// GetUserIDFromToken ambil user_id dari c.Locals.
// Return 401 kalau belum login, 400 kalau formatnya tidak valid.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	var raw string
	switch t := c.Locals(LocUserID).(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User is not signed in")
		}
		return t, nil
	case string:
		raw = strings.TrimSpace(t)
	case []byte:
		raw = strings.TrimSpace(string(t))
	}
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User is not signed in")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "User ID in token is invalid")
	}
	return id, nil
}

// GetActor membaca user_id + role dari locals; role wajib salah satu role yang dikenal.
func GetActor(c *fiber.Ctx) (Actor, error) {
	id, err := GetUserIDFromToken(c)
	if err != nil {
		return Actor{}, err
	}
	role, _ := c.Locals(LocUserRole).(string)
	role = strings.ToUpper(strings.TrimSpace(role))
	if !constants.IsKnownRole(role) {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "Role in token is not recognized")
	}
	return Actor{UserID: id, Role: role}, nil
}
