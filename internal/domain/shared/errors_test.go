package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsKind(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", ErrProfileNotFound)

	assert.True(t, errors.Is(wrapped, ErrProfileNotFound))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsRetryable(wrapped))
}

func TestConflictIsRetryable(t *testing.T) {
	cause := errors.New("40001")
	err := WrapError("storage", "Commit", ErrConcurrentUpdateConflict, "serialization failure", cause)

	assert.True(t, errors.Is(err, ErrConcurrentUpdateConflict))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsConflict(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, "storage.Commit: serialization failure: 40001", err.Error())
}

func TestValidateScore(t *testing.T) {
	assert.NoError(t, ValidateScore(0))
	assert.NoError(t, ValidateScore(100))
	assert.ErrorIs(t, ValidateScore(-0.1), ErrInvalidScore)
	assert.ErrorIs(t, ValidateScore(100.5), ErrInvalidScore)
	assert.True(t, IsValidation(ValidateScore(101)))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, Round2(100.0/3))
	assert.Equal(t, 66.67, Round2(200.0/3))
}
