package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *RowValidator {
	t.Helper()

	v, err := NewCreateCardValidator()
	require.NoError(t, err)

	return v
}

func validCandidate() map[string]interface{} {
	return map[string]interface{}{
		"firstName":  "John",
		"lastName":   "Doe",
		"cardNumber": "1111-2222-3333-4444",
		"points":     10,
	}
}

func TestValidate_ValidCandidate(t *testing.T) {
	v := newValidator(t)

	result := v.Validate(validCandidate())

	assert.True(t, result.Valid)
	assert.Empty(t, result.ErrorMessage)
}

func TestValidate_PointsOptional(t *testing.T) {
	v := newValidator(t)

	candidate := validCandidate()
	delete(candidate, "points")

	result := v.Validate(candidate)

	assert.True(t, result.Valid)
}

func TestValidate_MalformedCardNumber(t *testing.T) {
	v := newValidator(t)

	cases := []string{
		"1111-2222-3333-444",
		"1111222233334444",
		"aaaa-bbbb-cccc-dddd",
		"",
	}

	for _, cardNumber := range cases {
		candidate := validCandidate()
		candidate["cardNumber"] = cardNumber

		result := v.Validate(candidate)

		assert.False(t, result.Valid, "card number %q should be rejected", cardNumber)
		assert.Contains(t, result.ErrorMessage, "cardNumber")
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	v := newValidator(t)

	candidate := validCandidate()
	delete(candidate, "lastName")

	result := v.Validate(candidate)

	assert.False(t, result.Valid)
	assert.Contains(t, result.ErrorMessage, "lastName")
}

func TestValidate_NegativePoints(t *testing.T) {
	v := newValidator(t)

	candidate := validCandidate()
	candidate["points"] = -5

	result := v.Validate(candidate)

	assert.False(t, result.Valid)
	assert.Contains(t, result.ErrorMessage, "points")
}

func TestValidate_PointsNotAnInteger(t *testing.T) {
	v := newValidator(t)

	candidate := validCandidate()
	candidate["points"] = "abc"

	result := v.Validate(candidate)

	assert.False(t, result.Valid)
	assert.Contains(t, result.ErrorMessage, "points")
}

func TestValidate_AdditionalPropertyRejected(t *testing.T) {
	v := newValidator(t)

	candidate := validCandidate()
	candidate["nickname"] = "JD"

	result := v.Validate(candidate)

	assert.False(t, result.Valid)
	assert.Contains(t, result.ErrorMessage, "nickname")
}

func TestValidate_Deterministic(t *testing.T) {
	v := newValidator(t)

	candidate := validCandidate()
	candidate["cardNumber"] = "bad"

	first := v.Validate(candidate)
	second := v.Validate(candidate)

	assert.Equal(t, first, second)
}
