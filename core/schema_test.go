package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type loginParams struct {
	Username string  `json:"username"`
	Remember bool    `json:"remember,omitempty"`
	Redirect *string `json:"redirect"`
	Attempts int     `json:"attempts"`
	internal string
}

func TestSchemaFor(t *testing.T) {
	s := SchemaFor(loginParams{})
	assert.ElementsMatch(t, []string{"username", "attempts"}, s.Required)
	assert.Equal(t, "string", s.Types["username"])
	assert.Equal(t, "boolean", s.Types["remember"])
	assert.Equal(t, "string", s.Types["redirect"])
	assert.Equal(t, "integer", s.Types["attempts"])
	assert.NotContains(t, s.Types, "internal")

	assert.Empty(t, SchemaFor(42).Required)
	assert.Empty(t, SchemaFor(nil).Types)
}

func TestParamSchema_Validate(t *testing.T) {
	s := SchemaFor(&loginParams{})

	assert.NoError(t, s.Validate(Params{"username": "bob", "attempts": 3, "extra": []int{1}}))
	assert.NoError(t, s.Validate(Params{"username": "bob", "attempts": 3.0}))

	err := s.Validate(Params{"attempts": 1})
	assert.ErrorIs(t, err, ErrMissingRequiredParameter)

	err = s.Validate(Params{"username": 1, "attempts": 1})
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = s.Validate(Params{"username": "bob", "attempts": 1.5})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
