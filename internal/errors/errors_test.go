package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := StructuralIngestion("table has 2 rows, need at least 3")
	wrapped := Wrap(base, "load failed")

	assert.Equal(t, CodeStructuralIngestion, GetCode(wrapped))
	assert.True(t, HasCode(wrapped, CodeStructuralIngestion))
	assert.Contains(t, wrapped.Error(), "load failed")
	assert.Contains(t, wrapped.Error(), "need at least 3")
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("boom"), "context")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", Transport("https://example.org/x.csv", fmt.Errorf("timeout")))
	assert.Equal(t, CodeTransport, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(NotLoaded(), "summary")
	assert.True(t, stderrors.Is(err, NotLoaded()))
	assert.False(t, stderrors.Is(err, InvalidInput("x")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, fmt.Errorf("record 9"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Contains(t, err.Error(), "record 9")
}

func TestWithCauseKeepsCodeAndSentinel(t *testing.T) {
	sentinel := stderrors.New("record not found")
	err := NotFound("record 4").WithCause(sentinel)

	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.True(t, stderrors.Is(err, sentinel))
	assert.Equal(t, "record 4 not found: record not found", err.Error())

	invalid := InvalidInput("category").WithCause(sentinel)
	assert.Equal(t, CodeInvalidInput, invalid.Code)
	assert.True(t, stderrors.Is(invalid, sentinel))
}
