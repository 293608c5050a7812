package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorsMessage(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("seq", "must be at least 1", 0))
	assert.Equal(t, "validation failed: seq must be at least 1", errs.Error())

	errs = append(errs, *NewValidationErrorWithRule("mode", "must be practice or exam", "attempt_mode", "timed"))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
	assert.Equal(t, []string{"seq", "mode"}, errs.Fields())

	single := NewValidationError("title", "is required", nil)
	assert.Equal(t, "validation error on field 'title': is required", single.Error())
}

type draftPayload struct {
	Mode    string            `validate:"required,oneof=practice exam"`
	Answer  string            `validate:"max=3"`
	Rubric  map[string]int    `validate:"len=4"`
	Options []string          `validate:"min=4"`
	Nested  draftPayloadInner
}

type draftPayloadInner struct {
	Seq int `validate:"min=1"`
}

func TestToValidationErrors(t *testing.T) {
	err := validator.New().Struct(draftPayload{
		Answer:  "toolong",
		Rubric:  map[string]int{"Grammar": 5},
		Options: []string{"a"},
		Nested:  draftPayloadInner{Seq: 0},
	})

	errs := ToValidationErrors(err)
	require.Len(t, errs, 5)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "is required", byField["Mode"].Message)
	assert.Equal(t, "required", byField["Mode"].Rule)
	assert.Equal(t, "must be at most 3 characters", byField["Answer"].Message)
	assert.Equal(t, "must be exactly 4 items", byField["Rubric"].Message)
	assert.Equal(t, "must be at least 4 items", byField["Options"].Message)
	assert.Equal(t, "must be at least 1", byField["Nested.Seq"].Message)
}

func TestToValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, ToValidationErrors(nil))
	assert.Empty(t, ToValidationErrors(fmt.Errorf("boom")))
}
