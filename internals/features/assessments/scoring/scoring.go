// file: internals/features/assessments/scoring/scoring.go
package scoring

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	amodel "trainingku_backend/internals/features/assessments/model"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

/* =========================================================
   Approval scoring (pure)

   - SIGNATURE_IMG  → signature image assessor, fallback nama lengkap
   - FINAL_SCORE_NUM ada  → resultScore = angka; bila ada FINAL_SCORE_TEXT,
     resultText = PASS/FAIL terhadap passScore dan semua FINAL_SCORE_TEXT ditimpa
   - hanya FINAL_SCORE_TEXT → parse teks (default NOT_APPLICABLE)
   Urutan deterministik: (section order, field order, value id); nilai pertama yang terisi menang.
========================================================= */

const (
	RuleNone     = "NONE"
	RuleNumeric  = "NUMERIC_VS_PASS_SCORE"
	RuleScoreNum = "NUMERIC_ONLY"
	RuleText     = "TEXT_ONLY"
)

// Value adalah satu AssessmentValue beserta konteks template & assessor section-nya.
type Value struct {
	ValueID      uuid.UUID
	FieldType    tmodel.FieldType
	SectionOrder int
	FieldOrder   int
	Answer       *string
	Assessor     *dmodel.UserModel
}

type Result struct {
	Score *float64
	Text  *amodel.ResultText

	// value id → answer baru yang harus dipersist
	Overwrites map[uuid.UUID]string

	Details map[string]any
}

func Compute(values []Value, passScore *float64) Result {
	ordered := make([]Value, len(values))
	copy(ordered, values)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.SectionOrder != b.SectionOrder {
			return a.SectionOrder < b.SectionOrder
		}
		if a.FieldOrder != b.FieldOrder {
			return a.FieldOrder < b.FieldOrder
		}
		return a.ValueID.String() < b.ValueID.String()
	})

	res := Result{Overwrites: map[uuid.UUID]string{}, Details: map[string]any{}}

	var (
		numValue   *Value
		numScore   float64
		textValue  *Value
		textFields []uuid.UUID
	)
	for i := range ordered {
		v := &ordered[i]
		switch v.FieldType {
		case tmodel.FieldTypeSignatureImg:
			if sig := signatureFor(v.Assessor); sig != "" {
				res.Overwrites[v.ValueID] = sig
			}
		case tmodel.FieldTypeFinalScoreNum:
			if numValue != nil || isBlank(v.Answer) {
				continue
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(*v.Answer), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				numValue, numScore = v, f
			}
		case tmodel.FieldTypeFinalScoreText:
			textFields = append(textFields, v.ValueID)
			if textValue == nil && !isBlank(v.Answer) {
				textValue = v
			}
		}
	}

	if passScore != nil {
		res.Details["pass_score"] = *passScore
	}

	switch {
	case numValue != nil:
		score := numScore
		res.Score = &score
		res.Details["score_value_id"] = numValue.ValueID.String()
		res.Details["rule"] = RuleScoreNum
		if len(textFields) > 0 {
			text := amodel.ResultNotApplicable
			if passScore != nil {
				text = amodel.ResultFail
				if score >= *passScore {
					text = amodel.ResultPass
				}
			}
			res.Text = &text
			for _, id := range textFields {
				res.Overwrites[id] = string(text)
			}
			res.Details["rule"] = RuleNumeric
		}
	case len(textFields) > 0:
		text := amodel.ResultNotApplicable
		if textValue != nil {
			text = ParseResultText(*textValue.Answer)
			res.Details["text_value_id"] = textValue.ValueID.String()
		}
		res.Text = &text
		res.Details["rule"] = RuleText
	default:
		res.Details["rule"] = RuleNone
	}
	return res
}

// ParseResultText: case-insensitive PASS/FAIL/NOT_APPLICABLE, selain itu NOT_APPLICABLE.
func ParseResultText(raw string) amodel.ResultText {
	switch amodel.ResultText(strings.ToUpper(strings.TrimSpace(raw))) {
	case amodel.ResultPass:
		return amodel.ResultPass
	case amodel.ResultFail:
		return amodel.ResultFail
	}
	return amodel.ResultNotApplicable
}

func signatureFor(u *dmodel.UserModel) string {
	if u == nil {
		return ""
	}
	if u.UserSignatureImageURL != nil && strings.TrimSpace(*u.UserSignatureImageURL) != "" {
		return *u.UserSignatureImageURL
	}
	return u.FullName()
}

func isBlank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }
