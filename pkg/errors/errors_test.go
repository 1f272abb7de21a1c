package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeNotFound, "class a/B not found"),
			expected: "[NOT_FOUND] class a/B not found",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeMalformedClass, "decoding class", errors.New("bad magic")),
			expected: "[MALFORMED_CLASS] decoding class: bad magic",
		},
		{
			name:     "formatted message",
			err:      Newf(CodeParseError, "line %d: unknown record %q", 3, "XX:"),
			expected: `[PARSE_ERROR] line 3: unknown record "XX:"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeStorageError, "read failed", underlying)

	assert.Equal(t, underlying, err.Unwrap())
	assert.True(t, errors.Is(err, underlying))
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeNotFound, "error 1")
	err2 := New(CodeNotFound, "error 2")
	err3 := New(CodeUnsupported, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("chain: %w", Wrap(CodeNotFound, "missing", nil))

	tests := []struct {
		name     string
		check    func(error) bool
		err      error
		expected bool
	}{
		{"NotFoundDirect", IsNotFound, ErrNotFound, true},
		{"NotFoundWrapped", IsNotFound, wrapped, true},
		{"NotFoundOther", IsNotFound, ErrUnsupported, false},
		{"MalformedClass", IsMalformedClass, Wrap(CodeMalformedClass, "x", nil), true},
		{"Unsupported", IsUnsupported, ErrUnsupported, true},
		{"ParseError", IsParseError, ErrParseError, true},
		{"PlainError", IsParseError, errors.New("plain"), false},
		{"Nil", IsNotFound, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.check(tt.err))
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeLoadError, GetErrorCode(fmt.Errorf("wrap: %w", ErrLoadError)))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "source closed", GetErrorMessage(ErrClosed))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
