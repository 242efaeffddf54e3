package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{"parsing error type", ErrTypeParsing, "PARSING"},
		{"schema error type", ErrTypeSchema, "SCHEMA"},
		{"storage error type", ErrTypeStorage, "STORAGE"},
		{"validation error type", ErrTypeValidation, "VALIDATION"},
		{"not found error type", ErrTypeNotFound, "NOT_FOUND"},
		{"config error type", ErrTypeConfig, "CONFIG"},
		{"render error type", ErrTypeRender, "RENDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeSchema, Message: "missing column IVT"},
			wantMessage: "[SCHEMA] missing column IVT",
		},
		{
			name:        "error with cause",
			appError:    &AppError{Type: ErrTypeStorage, Message: "open source", Cause: errors.New("permission denied")},
			wantMessage: "[STORAGE] open source: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewParsingError("read header", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("load App Valid 1.csv: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewSchemaError("missing column", nil).
		WithContext("column", "idfa_ua_ratio").
		WithContext("file", "App Invalid 2.csv")

	assert.Equal(t, "idfa_ua_ratio", err.Context["column"])
	assert.Equal(t, "App Invalid 2.csv", err.Context["file"])
}

func TestAppError_WithContext_NilContext(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad threshold"}
	err.WithContext("value", 1.5)

	require.NotNil(t, err.Context)
	assert.Equal(t, 1.5, err.Context["value"])
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"parsing", NewParsingError("m", cause), ErrTypeParsing},
		{"schema", NewSchemaError("m", cause), ErrTypeSchema},
		{"storage", NewStorageError("m", cause), ErrTypeStorage},
		{"validation", NewValidationError("m", cause), ErrTypeValidation},
		{"config", NewConfigError("m", cause), ErrTypeConfig},
		{"render", NewRenderError("m", cause), ErrTypeRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, "m", tt.err.Message)
			assert.Equal(t, cause, tt.err.Cause)
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("config file")
	assert.Equal(t, ErrTypeNotFound, err.Type)
	assert.Equal(t, "config file not found", err.Message)
	assert.Nil(t, err.Cause)
}

func TestTypeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewSchemaError("missing column", nil))
	assert.Equal(t, ErrTypeSchema, TypeOf(err))

	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
