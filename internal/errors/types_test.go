package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteErrorError(t *testing.T) {
	err := NewIOError(ErrCodeWriteFailed, "failed to write file", fmt.Errorf("disk full")).
		WithPath("dist/index.html")

	assert.Equal(t, "[ERR_WRITE_FAILED] dist/index.html failed to write file: disk full", err.Error())
}

func TestSiteErrorIs(t *testing.T) {
	err := fmt.Errorf("build: %w", NewMissingSourceError(ErrCodeFileNotFound, "gone", nil))

	assert.True(t, errors.Is(err, &SiteError{Type: ErrorTypeMissingSource, Code: ErrCodeFileNotFound}))
	assert.False(t, errors.Is(err, &SiteError{Type: ErrorTypeIO, Code: ErrCodeFileNotFound}))
}

func TestWrapRead(t *testing.T) {
	testCases := []struct {
		name     string
		cause    error
		wantType ErrorType
		wantCode string
	}{
		{"missing", fs.ErrNotExist, ErrorTypeMissingSource, ErrCodeFileNotFound},
		{"permission", fs.ErrPermission, ErrorTypeIO, ErrCodePermissionDenied},
		{"other", fmt.Errorf("boom"), ErrorTypeIO, ErrCodeReadFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := WrapRead(tc.cause, "src/a.tmpl")
			require.NotNil(t, err)
			assert.Equal(t, tc.wantType, err.Type)
			assert.Equal(t, tc.wantCode, err.Code)
			assert.Equal(t, "src/a.tmpl", err.Path)
			assert.ErrorIs(t, err, tc.cause)
		})
	}

	assert.Nil(t, WrapRead(nil, "x"))
}

func TestClassificationHelpers(t *testing.T) {
	missing := WrapRead(fs.ErrNotExist, "a")
	ioErr := WrapWrite(fmt.Errorf("boom"), "b")

	assert.True(t, IsMissingSource(missing))
	assert.False(t, IsMissingSource(ioErr))
	assert.True(t, IsIOError(ioErr))
	assert.False(t, IsIOError(fmt.Errorf("plain")))
}

func TestGetErrorContext(t *testing.T) {
	ctx := GetErrorContext(WrapWrite(fmt.Errorf("boom"), "dist/a"))
	assert.Equal(t, "io", ctx["type"])
	assert.Equal(t, ErrCodeWriteFailed, ctx["code"])
	assert.Equal(t, "dist/a", ctx["path"])

	plain := GetErrorContext(fmt.Errorf("plain"))
	assert.Equal(t, "unknown", plain["type"])
}
