package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", ErrYouBlocked)
	assert.ErrorIs(t, wrapped, ErrYouBlocked)
	assert.False(t, stderrors.Is(wrapped, ErrConversationNotFound))
	assert.Equal(t, CodeBlocked, CodeOf(wrapped))
}

func TestTransient(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Transient("insert message", cause)

	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert message: connection reset", err.Error())

	assert.Nil(t, Transient("noop", nil))
	assert.Equal(t, CodeNotFound, CodeOf(Transient("lookup", ErrMessageNotFound)))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeUnknown, CodeOf(stderrors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
}
