// file: internals/features/assessments/service/errors.go
package service

import (
	"errors"
	"fmt"

	"trainingku_backend/internals/features/assessments/repository"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindConflict   Kind = "CONFLICT"
	KindForbidden  Kind = "FORBIDDEN"
	KindNotFound   Kind = "NOT_FOUND"
	KindInternal   Kind = "INTERNAL"
)

// AppError adalah error bisnis yang dibawa sampai controller.
// errors.Is membandingkan Code, sehingga sentinel di bawah bisa dipakai langsung di test/handler.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	return &cp
}

func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func newErr(kind Kind, code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg}
}

// Creation (validation)
var (
	ErrTemplateNotFound           = newErr(KindValidation, "TEMPLATE_NOT_FOUND", "template not found or not published")
	ErrTemplateDepartmentMismatch = newErr(KindValidation, "TEMPLATE_DEPARTMENT_MISMATCH", "template department does not match subject/course department")
	ErrTemplateStructureEmpty     = newErr(KindValidation, "TEMPLATE_STRUCTURE_EMPTY", "template has no assessable sections or a section has no fields")
	ErrSubjectXorCourse           = newErr(KindValidation, "SUBJECT_XOR_COURSE", "exactly one of subject_id or course_id is required")
	ErrSubjectOrCourseNotFound    = newErr(KindValidation, "SUBJECT_OR_COURSE_NOT_FOUND", "subject or course not found")
	ErrSubjectOrCourseNotActive   = newErr(KindValidation, "SUBJECT_OR_COURSE_NOT_ACTIVE", "subject or course is not in an assessable state")
	ErrOccurrenceDateBeforeStart  = newErr(KindValidation, "OCCURRENCE_DATE_BEFORE_START", "occurrence date is before the subject/course start date")
	ErrOccurrenceDateAfterEnd     = newErr(KindValidation, "OCCURRENCE_DATE_AFTER_END", "occurrence date is after the subject/course end date")
	ErrOccurrenceDateInPast       = newErr(KindValidation, "OCCURRENCE_DATE_IN_PAST", "occurrence date is in the past")
	ErrOccurrenceDateNotReached   = newErr(KindValidation, "OCCURRENCE_DATE_NOT_REACHED", "occurrence date has not arrived yet")
	ErrOccurrenceDateNotToday     = newErr(KindValidation, "OCCURRENCE_DATE_NOT_TODAY", "trainee lock can only be toggled on the occurrence date")
	ErrTraineesRequired           = newErr(KindValidation, "TRAINEES_REQUIRED", "at least one trainee is required")
	ErrTraineeNotFound            = newErr(KindValidation, "TRAINEE_NOT_FOUND", "some trainees were not found")
	ErrTraineeNotActive           = newErr(KindValidation, "TRAINEE_NOT_ACTIVE", "some trainees are not active")
	ErrTraineeInvalidRole         = newErr(KindValidation, "TRAINEE_INVALID_ROLE", "some users are not trainees")
	ErrTraineeNotEnrolled         = newErr(KindValidation, "TRAINEE_NOT_ENROLLED", "some trainees are not enrolled")
	ErrAssessmentAlreadyExists    = newErr(KindValidation, "ASSESSMENT_ALREADY_EXISTS", "assessment already exists for some trainees")
	ErrCreationFailed             = newErr(KindInternal, "CREATION_FAILED", "failed to create assessments")
)

// Mutations
var (
	ErrSectionAlreadyAssessed     = newErr(KindConflict, "SECTION_ALREADY_ASSESSED", "section has already been assessed")
	ErrStatusConflict             = newErr(KindConflict, "STATUS_CONFLICT", "assessment status changed, refresh and retry")
	ErrOriginalAssessorOnly       = newErr(KindForbidden, "ORIGINAL_ASSESSOR_ONLY", "only the original assessor can update this section")
	ErrSectionDraftStatusOnly     = newErr(KindValidation, "SECTION_DRAFT_STATUS_ONLY", "section must be in DRAFT status")
	ErrAssessmentStatusNotAllowed = newErr(KindValidation, "ASSESSMENT_STATUS_NOT_ALLOWED", "operation not allowed in current assessment status")
	ErrSectionsIncomplete         = newErr(KindValidation, "SECTIONS_INCOMPLETE", "all sections must be completed before submitting")
	ErrSignatureSection           = newErr(KindValidation, "SIGNATURE_SECTION", "signature section is completed through participation confirmation")
	ErrInvalidFieldValue          = newErr(KindValidation, "INVALID_FIELD_VALUE", "some values are invalid for their field type")
	ErrCommentRequired            = newErr(KindValidation, "COMMENT_REQUIRED", "a comment is required when rejecting")
	ErrFieldRoleRequired          = newErr(KindForbidden, "FIELD_ROLE_REQUIRED", "some fields require a different assessment role")
	ErrForbidden                  = newErr(KindForbidden, "FORBIDDEN", "you are not allowed to perform this action")
)

// Not found
var (
	ErrAssessmentNotFound = newErr(KindNotFound, "ASSESSMENT_NOT_FOUND", "assessment not found")
	ErrSectionNotFound    = newErr(KindNotFound, "SECTION_NOT_FOUND", "section not found")
	ErrValueNotFound      = newErr(KindNotFound, "VALUE_NOT_FOUND", "value not found in this section")
	ErrInternal           = newErr(KindInternal, "INTERNAL", "internal error")
)

// AsAppError mengembalikan *AppError bila err (atau bungkusannya) adalah AppError.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// fromStore memetakan sentinel repository; notFound dipakai untuk ErrNotFound.
func fromStore(err error, notFound *AppError) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrConflict):
		return ErrStatusConflict.Wrap(err)
	}
	return ErrInternal.Wrap(err)
}

// IDList dipakai sebagai Details untuk error yang menyebut ID bermasalah.
type IDList struct {
	IDs []string `json:"ids"`
}
