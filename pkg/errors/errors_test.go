package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Clone(ErrInvalidTransition, "item already completed"))
	appErr := FromError(err)
	assert.Equal(t, ErrInvalidTransition.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "item already completed", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.EqualError(t, appErr, "internal server error: boom")
}

func TestIsMatchesByCode(t *testing.T) {
	cloned := Clone(ErrNotFound, "revision item not found")
	assert.True(t, Is(cloned, ErrNotFound))
	assert.True(t, Is(fmt.Errorf("ctx: %w", cloned), ErrNotFound))
	assert.False(t, Is(cloned, ErrInvalidTransition))
	assert.False(t, Is(errors.New("plain"), ErrNotFound))
	assert.False(t, Is(nil, ErrNotFound))
}
