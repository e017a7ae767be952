package dto

import (
	"strings"

	"github.com/google/uuid"

	"trainingku_backend/internals/features/assessments/service"
)

/* ==============================
   VALUES (POST/PATCH .../sections/:section_id/values)
============================== */

type ValueItem struct {
	ValueID     uuid.UUID `json:"value_id" validate:"required"`
	AnswerValue *string   `json:"answer_value" validate:"omitempty,max=10000"`
}

type SectionValuesRequest struct {
	Values []ValueItem `json:"values" validate:"required,min=1,dive"`
}

func (r SectionValuesRequest) ToInput() service.SectionValuesInput {
	in := service.SectionValuesInput{Values: make([]service.ValueInput, 0, len(r.Values))}
	for _, v := range r.Values {
		in.Values = append(in.Values, service.ValueInput{ValueID: v.ValueID, Answer: v.AnswerValue})
	}
	return in
}

/* ==============================
   WORKFLOW
============================== */

type ConfirmParticipationRequest struct {
	SignatureURL string `json:"signature_url" validate:"required,url,max=2048"`
}

func (r *ConfirmParticipationRequest) Normalize() {
	r.SignatureURL = strings.TrimSpace(r.SignatureURL)
}

func (r ConfirmParticipationRequest) ToInput() service.ConfirmInput {
	return service.ConfirmInput{SignatureURL: r.SignatureURL}
}

// ReviewRequest dipakai approve & reject; reject mewajibkan comment (dicek service).
type ReviewRequest struct {
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

func (r ReviewRequest) ToInput() service.ReviewInput {
	return service.ReviewInput{Comment: strings.TrimSpace(r.Comment)}
}
