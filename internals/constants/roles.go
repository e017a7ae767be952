package constants

import "fmt"

// Main roles (claim "role" di JWT)
const (
	RoleTrainer            = "TRAINER"
	RoleTrainee            = "TRAINEE"
	RoleDepartmentHead     = "DEPARTMENT_HEAD"
	RoleAdministrator      = "ADMINISTRATOR"
	RoleAcademicDepartment = "ACADEMIC_DEPARTMENT"
)

// Roles a trainer can hold inside one subject/course (instructor assignment).
const (
	AssessmentRoleExaminer = "EXAMINER"
	AssessmentRoleReviewer = "ASSESSMENT_REVIEWER"
)

// Template pesan error role
const (
	ErrOnlyCreatorsCanAccess  = "❌ Only academic staff, department heads or trainers may access %s."
	ErrOnlyManagersCanAccess  = "❌ Only administrators, academic staff or department heads may access %s."
	ErrOnlyDeptHeadCanAccess  = "❌ Only department heads may access %s."
	ErrOnlyAuthenticatedUsers = "❌ Only signed-in users may access %s."
)

func RoleErrorCreator(feature string) string {
	return fmt.Sprintf(ErrOnlyCreatorsCanAccess, feature)
}

func RoleErrorManager(feature string) string {
	return fmt.Sprintf(ErrOnlyManagersCanAccess, feature)
}

func RoleErrorDeptHead(feature string) string {
	return fmt.Sprintf(ErrOnlyDeptHeadCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleTrainer,
		RoleTrainee,
		RoleDepartmentHead,
		RoleAdministrator,
		RoleAcademicDepartment,
	}

	CreatorRoles = []string{
		RoleTrainer,
		RoleDepartmentHead,
		RoleAdministrator,
		RoleAcademicDepartment,
	}

	ManagerRoles = []string{
		RoleDepartmentHead,
		RoleAdministrator,
		RoleAcademicDepartment,
	}

	DepartmentHeadOnly = []string{
		RoleDepartmentHead,
	}
)

func IsKnownRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
