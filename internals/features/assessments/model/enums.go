package model

// FormStatus: status level form (lihat lifecycle untuk transisi).
type FormStatus string

const (
	FormNotStarted       FormStatus = "NOT_STARTED"
	FormOnGoing          FormStatus = "ON_GOING"
	FormDraft            FormStatus = "DRAFT"
	FormSignaturePending FormStatus = "SIGNATURE_PENDING"
	FormReadyToSubmit    FormStatus = "READY_TO_SUBMIT"
	FormSubmitted        FormStatus = "SUBMITTED"
	FormApproved         FormStatus = "APPROVED"
	FormRejected         FormStatus = "REJECTED"
	FormCancelled        FormStatus = "CANCELLED"
)

var AllFormStatuses = []FormStatus{
	FormNotStarted, FormOnGoing, FormDraft, FormSignaturePending,
	FormReadyToSubmit, FormSubmitted, FormApproved, FormRejected, FormCancelled,
}

func ParseFormStatus(s string) (FormStatus, bool) {
	for _, st := range AllFormStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Status yang masih boleh menerima update values dari assessor aslinya.
var EditableStatuses = []FormStatus{FormDraft, FormSignaturePending, FormReadyToSubmit, FormRejected}

// Status yang menerima save pertama (claim).
var SaveableStatuses = []FormStatus{FormOnGoing, FormDraft}

// Status yang tidak pernah terlihat di level department.
var DepartmentHiddenStatuses = []FormStatus{FormNotStarted, FormOnGoing}

func (s FormStatus) In(set ...FormStatus) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

func (s FormStatus) Editable() bool { return s.In(EditableStatuses...) }

func (s FormStatus) Terminal() bool { return s.In(FormApproved, FormCancelled) }

type SectionStatus string

const (
	SectionRequiredAssessment SectionStatus = "REQUIRED_ASSESSMENT"
	SectionDraft              SectionStatus = "DRAFT"
)

type ResultText string

const (
	ResultPass          ResultText = "PASS"
	ResultFail          ResultText = "FAIL"
	ResultNotApplicable ResultText = "NOT_APPLICABLE"
)

// EventStatus: status sintetis dari sekumpulan form (tidak disimpan).
type EventStatus string

const (
	EventNotStarted EventStatus = "NOT_STARTED"
	EventOnGoing    EventStatus = "ON_GOING"
	EventFinished   EventStatus = "FINISHED"
)

// Event yang tidak pernah terlihat di level department. Status event tetap dihitung dari semua anggota.
var DepartmentHiddenEventStatuses = []EventStatus{EventNotStarted}
