// file: internals/features/assessments/permission/permission.go
package permission

import (
	"github.com/google/uuid"

	"trainingku_backend/internals/constants"
	amodel "trainingku_backend/internals/features/assessments/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

/* =========================================================
   Section Permission Resolver

   Murni (tanpa I/O). Input = siapa aktornya terhadap form ini +
   properti section; output = {view, assess, save, update}.
   Aturan dasar ada di tabel `rules` di bawah: menambah role atau
   jenis section cukup menambah baris, bukan menambah if/else.
========================================================= */

// Input adalah semua yang dibutuhkan resolver, sudah di-resolve oleh pemanggil.
type Input struct {
	ActorID   uuid.UUID
	ActorRole string // main role (JWT)

	// role aktor di subject/course form ini (EXAMINER / ASSESSMENT_REVIEWER); nil = tidak ditugaskan
	ActorAssessmentRole *string

	// DEPARTMENT_HEAD dari department subject/course form ini
	ActorInDepartment bool

	EditBy        tmodel.EditBy
	RoleInSubject *string

	AssessedByID  *uuid.UUID
	SectionStatus amodel.SectionStatus

	TraineeID       uuid.UUID
	IsTraineeLocked bool
	FormStatus      amodel.FormStatus
}

type Access struct {
	CanView   bool `json:"can_view"`
	CanAssess bool `json:"can_assess"`
	CanSave   bool `json:"can_save"`
	CanUpdate bool `json:"can_update"`
}

// ActorKind: klasifikasi aktor relatif terhadap satu form.
type ActorKind string

const (
	KindTraineeSelf       ActorKind = "TRAINEE_SELF"
	KindTraineeOther      ActorKind = "TRAINEE_OTHER"
	KindReviewer          ActorKind = "REVIEWER"
	KindTrainerAssigned   ActorKind = "TRAINER_ASSIGNED"
	KindTrainerUnassigned ActorKind = "TRAINER_UNASSIGNED"
	KindDepartmentHead    ActorKind = "DEPARTMENT_HEAD"
	KindManager           ActorKind = "MANAGER"
	KindOther             ActorKind = "OTHER"
)

func Classify(in Input) ActorKind {
	switch in.ActorRole {
	case constants.RoleTrainee:
		if in.ActorID == in.TraineeID {
			return KindTraineeSelf
		}
		return KindTraineeOther
	case constants.RoleTrainer:
		switch {
		case in.ActorAssessmentRole == nil:
			return KindTrainerUnassigned
		case *in.ActorAssessmentRole == constants.AssessmentRoleReviewer:
			return KindReviewer
		default:
			return KindTrainerAssigned
		}
	case constants.RoleDepartmentHead:
		if in.ActorInDepartment {
			return KindDepartmentHead
		}
		return KindOther
	case constants.RoleAdministrator, constants.RoleAcademicDepartment:
		return KindManager
	}
	return KindOther
}

/* =========================
   Decision table
========================= */

type cond int

const (
	never cond = iota
	always
	whenRoleMatches // ActorAssessmentRole == RoleInSubject
	whenUnlocked    // !IsTraineeLocked
)

type grant struct {
	view   cond
	assess cond
}

type roleScope int

const (
	scopeAny      roleScope = iota // roleInSubject == nil
	scopeSpecific                  // roleInSubject == R
)

type ruleKey struct {
	editBy tmodel.EditBy
	scope  roleScope
}

var (
	viewOnly = grant{view: always, assess: never}
	denied   = grant{view: never, assess: never}
)

var traineeSection = map[ActorKind]grant{
	KindTraineeSelf:     {view: always, assess: whenUnlocked},
	KindReviewer:        viewOnly,
	KindTrainerAssigned: viewOnly,
	KindDepartmentHead:  viewOnly,
	KindManager:         viewOnly,
}

var rules = map[ruleKey]map[ActorKind]grant{
	{tmodel.EditByTrainer, scopeAny}: {
		KindReviewer:        {view: always, assess: always},
		KindTrainerAssigned: {view: always, assess: always},
		KindDepartmentHead:  viewOnly,
		KindManager:         viewOnly,
	},
	{tmodel.EditByTrainer, scopeSpecific}: {
		KindReviewer:        {view: always, assess: whenRoleMatches},
		KindTrainerAssigned: {view: always, assess: whenRoleMatches},
		KindDepartmentHead:  viewOnly,
		KindManager:         viewOnly,
	},
	{tmodel.EditByTrainee, scopeAny}:      traineeSection,
	{tmodel.EditByTrainee, scopeSpecific}: traineeSection,
}

func (c cond) holds(in Input) bool {
	switch c {
	case always:
		return true
	case whenRoleMatches:
		return in.ActorAssessmentRole != nil && in.RoleInSubject != nil &&
			*in.ActorAssessmentRole == *in.RoleInSubject
	case whenUnlocked:
		return !in.IsTraineeLocked
	}
	return false
}

func lookup(in Input) grant {
	key := ruleKey{editBy: in.EditBy, scope: scopeAny}
	if in.RoleInSubject != nil && *in.RoleInSubject != "" {
		key.scope = scopeSpecific
	}
	byKind, ok := rules[key]
	if !ok {
		return denied
	}
	g, ok := byKind[Classify(in)]
	if !ok {
		return denied
	}
	return g
}

// Resolve menghitung hak aktor atas satu section.
func Resolve(in Input) Access {
	g := lookup(in)
	a := Access{
		CanView:   g.view.holds(in),
		CanAssess: g.assess.holds(in),
	}
	if !a.CanView {
		a.CanAssess = false
	}

	// department head tidak pernah menulis
	if in.ActorRole == constants.RoleDepartmentHead {
		return a
	}

	claimed := in.AssessedByID != nil
	a.CanSave = a.CanAssess && !claimed && in.FormStatus.In(amodel.SaveableStatuses...)
	a.CanUpdate = claimed && *in.AssessedByID == in.ActorID &&
		in.SectionStatus == amodel.SectionDraft &&
		in.FormStatus.Editable()
	return a
}

// FieldWritable: field dengan roleRequired hanya boleh diisi aktor dengan role-in-assessment yang sama.
func FieldWritable(actorAssessmentRole *string, roleRequired *string) bool {
	if roleRequired == nil || *roleRequired == "" {
		return true
	}
	return actorAssessmentRole != nil && *actorAssessmentRole == *roleRequired
}

// ListedInGeneralView: section trainee yang hanya berisi SIGNATURE_DRAW disembunyikan
// dari listing umum (diisi lewat confirm participation).
func ListedInGeneralView(s *tmodel.SectionStructure) bool {
	return !s.IsTraineeSignatureOnly()
}
