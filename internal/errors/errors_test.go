package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesCategoryAndSeverity(t *testing.T) {
	err := New(ErrCodeChunkerFailure, "boom", nil)
	assert.Equal(t, CategoryModel, err.Category)
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.True(t, err.Recoverable)
}

func TestChunkerFailureIsRecoverable(t *testing.T) {
	err := ChunkerFailure("/repo/main.py", errors.New("parse error"))
	assert.True(t, IsRecoverable(err.Code))
	assert.False(t, IsFatal(err))
	assert.Equal(t, "/repo/main.py", err.Details["path"])
}

func TestStoreCorruptionIsFatal(t *testing.T) {
	err := StoreCorruption(errors.New("disk full"))
	assert.True(t, IsFatal(err))
	assert.False(t, IsRecoverable(err.Code))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := AlreadyIndexing("/repo")
	b := New(ErrCodeAlreadyIndexing, "different message", nil)
	assert.True(t, a.Is(b))
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestGetCodeAndCategoryOnPlainError(t *testing.T) {
	plain := errors.New("not a CodiiError")
	assert.Equal(t, "", GetCode(plain))
	assert.Equal(t, Category(""), GetCategory(plain))
}

func TestWithDetailAndSuggestionChaining(t *testing.T) {
	err := New(ErrCodeEmbedderFailure, "failed", nil).
		WithDetail("batch", "3").
		WithSuggestion("retry with a smaller batch size")
	assert.Equal(t, "3", err.Details["batch"])
	assert.Equal(t, "retry with a smaller batch size", err.Suggestion)
}
