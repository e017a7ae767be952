package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amodel "trainingku_backend/internals/features/assessments/model"
	dmodel "trainingku_backend/internals/features/directory/model"
	tmodel "trainingku_backend/internals/features/templates/model"
)

func str(s string) *string   { return &s }
func num(f float64) *float64 { return &f }

func TestNumericScoreOverwritesText(t *testing.T) {
	textID := uuid.New()
	values := []Value{
		{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, Answer: str("85")},
		{ValueID: textID, FieldType: tmodel.FieldTypeFinalScoreText, Answer: str("FAIL")},
	}
	res := Compute(values, num(80))
	require.NotNil(t, res.Score)
	assert.Equal(t, 85.0, *res.Score)
	require.NotNil(t, res.Text)
	assert.Equal(t, amodel.ResultPass, *res.Text)
	assert.Equal(t, "PASS", res.Overwrites[textID])
	assert.Equal(t, RuleNumeric, res.Details["rule"])
}

func TestNumericBelowPassScore(t *testing.T) {
	values := []Value{
		{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, Answer: str("79.5")},
		{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreText},
	}
	res := Compute(values, num(80))
	assert.Equal(t, amodel.ResultFail, *res.Text)
}

func TestNumericWithoutPassScoreIsNotApplicable(t *testing.T) {
	values := []Value{
		{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, Answer: str("90")},
		{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreText},
	}
	res := Compute(values, nil)
	assert.Equal(t, amodel.ResultNotApplicable, *res.Text)
}

func TestNumericOnlyLeavesTextNil(t *testing.T) {
	res := Compute([]Value{{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, Answer: str("70")}}, num(60))
	assert.Equal(t, 70.0, *res.Score)
	assert.Nil(t, res.Text)
	assert.Equal(t, RuleScoreNum, res.Details["rule"])
}

func TestTextOnly(t *testing.T) {
	res := Compute([]Value{{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreText, Answer: str(" pass ")}}, num(80))
	assert.Nil(t, res.Score)
	assert.Equal(t, amodel.ResultPass, *res.Text)

	res = Compute([]Value{{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreText, Answer: str("maybe")}}, nil)
	assert.Equal(t, amodel.ResultNotApplicable, *res.Text)

	res = Compute([]Value{{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreText}}, nil)
	assert.Equal(t, amodel.ResultNotApplicable, *res.Text)
}

func TestDeterministicOrdering(t *testing.T) {
	early := Value{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, SectionOrder: 1, FieldOrder: 5, Answer: str("60")}
	late := Value{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, SectionOrder: 2, FieldOrder: 1, Answer: str("95")}

	a := Compute([]Value{late, early}, num(70))
	b := Compute([]Value{early, late}, num(70))
	assert.Equal(t, 60.0, *a.Score)
	assert.Equal(t, *a.Score, *b.Score)
	assert.Equal(t, early.ValueID.String(), a.Details["score_value_id"])
}

func TestEmptyNumericFallsBackToText(t *testing.T) {
	values := []Value{
		{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, Answer: str("  ")},
		{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreText, Answer: str("fail")},
	}
	res := Compute(values, num(50))
	assert.Nil(t, res.Score)
	assert.Equal(t, amodel.ResultFail, *res.Text)
}

func TestNonFiniteNumericIsIgnored(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		values := []Value{
			{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreNum, Answer: str(raw)},
			{ValueID: uuid.New(), FieldType: tmodel.FieldTypeFinalScoreText, Answer: str("fail")},
		}
		res := Compute(values, num(50))
		assert.Nil(t, res.Score, raw)
		require.NotNil(t, res.Text, raw)
		assert.Equal(t, amodel.ResultFail, *res.Text, raw)
	}
}

func TestSignatureImageFallback(t *testing.T) {
	withImg := &dmodel.UserModel{UserFirstName: "Ani", UserLastName: "Putri", UserSignatureImageURL: str("https://cdn/sig.png")}
	noImg := &dmodel.UserModel{UserFirstName: "Budi", UserLastName: "Santoso"}

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	res := Compute([]Value{
		{ValueID: a, FieldType: tmodel.FieldTypeSignatureImg, Assessor: withImg},
		{ValueID: b, FieldType: tmodel.FieldTypeSignatureImg, Assessor: noImg},
		{ValueID: c, FieldType: tmodel.FieldTypeSignatureImg},
	}, nil)
	assert.Equal(t, "https://cdn/sig.png", res.Overwrites[a])
	assert.Equal(t, "Budi Santoso", res.Overwrites[b])
	_, ok := res.Overwrites[c]
	assert.False(t, ok)
	assert.Nil(t, res.Score)
	assert.Nil(t, res.Text)
}
