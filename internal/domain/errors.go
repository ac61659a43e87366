package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so errors.Is works
// against the sentinels below after WithError has copied them.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal error!",
		StatusCode: 500,
	}

	// ErrDecode is returned for malformed base64 input.
	ErrDecode = &AppError{
		Code:       "INVALID_BASE64",
		Message:    "Invalid base64 data",
		StatusCode: 400,
	}

	// ErrInvalidImage is returned when bytes cannot be decoded as a supported image.
	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	// ErrFormat covers malformed embedding bytes and missing request fields.
	ErrFormat = &AppError{
		Code:       "INVALID_FORMAT",
		Message:    "Invalid data!",
		StatusCode: 400,
	}

	ErrNoFaceFound = &AppError{
		Code:       "NO_FACE_FOUND",
		Message:    "Could not find any faces!",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, please provide image with single face",
		StatusCode: 422,
	}

	ErrIdentityNotFound = &AppError{
		Code:       "IDENTITY_NOT_FOUND",
		Message:    "Identity not found",
		StatusCode: 404,
	}

	ErrGalleryEmpty = &AppError{
		Code:       "GALLERY_EMPTY",
		Message:    "No identities enrolled",
		StatusCode: 422,
	}

	ErrProviderUnavailable = &AppError{
		Code:       "PROVIDER_UNAVAILABLE",
		Message:    "Face provider unavailable",
		StatusCode: 503,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
