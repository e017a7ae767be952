package model

import (
	"strings"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// UserModel dibaca dari modul users; assessment tidak pernah menulis ke tabel ini.
type UserModel struct {
	UserID                uuid.UUID  `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	UserEID               string     `gorm:"type:varchar(64);not null;column:user_eid" json:"user_eid"`
	UserFirstName         string     `gorm:"type:varchar(100);not null;column:user_first_name" json:"user_first_name"`
	UserLastName          string     `gorm:"type:varchar(100);column:user_last_name" json:"user_last_name"`
	UserEmail             string     `gorm:"type:varchar(255);not null;column:user_email" json:"user_email"`
	UserStatus            UserStatus `gorm:"type:varchar(16);not null;column:user_status" json:"user_status"`
	UserRoleName          string     `gorm:"type:varchar(32);not null;column:user_role_name" json:"user_role_name"`
	UserDepartmentID      *uuid.UUID `gorm:"type:uuid;column:user_department_id" json:"user_department_id,omitempty"`
	UserSignatureImageURL *string    `gorm:"type:text;column:user_signature_image_url" json:"user_signature_image_url,omitempty"`
}

func (UserModel) TableName() string { return "users" }

func (u UserModel) FullName() string {
	return strings.TrimSpace(u.UserFirstName + " " + u.UserLastName)
}
