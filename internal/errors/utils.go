package errors

import (
	"errors"
	"io/fs"
)

// WrapRead classifies a failed read of path: a missing file becomes a
// MissingSource error, anything else an I/O error.
func WrapRead(err error, path string) *SiteError {
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return NewMissingSourceError(ErrCodeFileNotFound, "source file does not exist", err).WithPath(path)
	}

	if errors.Is(err, fs.ErrPermission) {
		return NewIOError(ErrCodePermissionDenied, "permission denied", err).WithPath(path)
	}

	return NewIOError(ErrCodeReadFailed, "failed to read file", err).WithPath(path)
}

// WrapWrite wraps a failed write, copy or mkdir of path as an I/O error.
func WrapWrite(err error, path string) *SiteError {
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrPermission) {
		return NewIOError(ErrCodePermissionDenied, "permission denied", err).WithPath(path)
	}

	return NewIOError(ErrCodeWriteFailed, "failed to write file", err).WithPath(path)
}

// GetErrorContext extracts structured logging fields from an error.
func GetErrorContext(err error) map[string]interface{} {
	var se *SiteError
	if errors.As(err, &se) {
		context := map[string]interface{}{
			"type": string(se.Type),
			"code": se.Code,
		}
		if se.Path != "" {
			context["path"] = se.Path
		}
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}
