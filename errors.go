package upload

import (
	gerrors "github.com/goliatone/go-errors"
)

var (
	ErrBackendNotFound = gerrors.New("requested backend not found", gerrors.CategoryBadInput).
				WithCode(400).
				WithTextCode("BACKEND_NOT_FOUND")

	ErrNoBackends = gerrors.New("no backend meets the requirements", gerrors.CategoryNotFound).
			WithCode(404).
			WithTextCode("NO_BACKENDS")

	ErrNoBackendAccepted = gerrors.New("no backend accepted the file", gerrors.CategoryExternal).
				WithCode(502).
				WithTextCode("UPLOAD_EXHAUSTED")

	ErrFileRejected = gerrors.New("file rejected by backend", gerrors.CategoryBadInput).
			WithCode(422).
			WithTextCode("FILE_REJECTED")

	ErrUnexpectedResponse = gerrors.New("unexpected response from backend", gerrors.CategoryExternal).
				WithCode(502).
				WithTextCode("UNEXPECTED_RESPONSE")

	ErrPermissionDenied = gerrors.New("permission denied", gerrors.CategoryAuthz).
				WithCode(403).
				WithTextCode("PERMISSION_DENIED")

	ErrInvalidPath = gerrors.New("invalid path", gerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode("INVALID_PATH")

	ErrReadFile = gerrors.New("failed to read file", gerrors.CategoryOperation).
			WithCode(500).
			WithTextCode("READ_FILE_FAILED")

	ErrCallbackFailed = gerrors.New("upload callback failed", gerrors.CategoryOperation).
				WithCode(500).
				WithTextCode("CALLBACK_FAILED")
)
