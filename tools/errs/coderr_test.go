package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeExtraction(t *testing.T) {
	assert.Equal(t, CodeNotFound, Code(ErrNotFound))
	assert.Equal(t, CodeValidation, Code(ErrValidation.WrapMsg("bad field", "field", "to")))
	assert.Equal(t, CodeInternal, Code(errors.New("plain")))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := ErrUnauthorized.WrapMsg("token rejected")
	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, CodeUnauthorized, Code(wrapped))
	assert.True(t, errors.Is(wrapped, ErrUnauthorized))
}

func TestMessageIsClientSafe(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("sql: connection refused")))
	assert.Contains(t, Message(ErrNotFound.WrapMsg("message not found")), "not found")
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	_ = ErrValidation.WithDetail("field x")
	assert.Empty(t, ErrValidation.Detail)
}

func TestKVFormatting(t *testing.T) {
	err := ErrNotFound.WrapMsg("message not found", "id", "abc")
	assert.Contains(t, err.Error(), "id=abc")
}
