package cli

import (
	"errors"

	gerrors "github.com/goliatone/go-errors"
	upload "github.com/goliatone/go-upload"
)

const (
	ExitSuccess      = 0
	ExitUnexpected   = 1
	ExitUploadFailed = 3
	ExitNoBackend    = 4
	ExitUsage        = 64
	ExitReadFiles    = 65
)

var (
	ErrUsage = gerrors.New("invalid usage", gerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode("INVALID_USAGE")

	ErrIncompleteUpload = gerrors.New("not every file was uploaded", gerrors.CategoryExternal).
				WithCode(502).
				WithTextCode("INCOMPLETE_UPLOAD")
)

// ExitCode maps an error returned by the command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage),
		errors.Is(err, upload.ErrBackendNotFound),
		gerrors.IsValidation(err):
		return ExitUsage
	case errors.Is(err, upload.ErrNoBackends):
		return ExitNoBackend
	case errors.Is(err, upload.ErrReadFile):
		return ExitReadFiles
	case errors.Is(err, upload.ErrNoBackendAccepted),
		errors.Is(err, ErrIncompleteUpload):
		return ExitUploadFailed
	default:
		return ExitUnexpected
	}
}
