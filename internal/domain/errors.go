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

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy carrying a caller-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Is matches AppErrors by code so wrapped copies compare equal to the sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Expected reports whether the error is a business outcome rather than a fault.
func (e *AppError) Expected() bool {
	switch e.Code {
	case ErrInvalidAadhaar.Code, ErrFaceDetectionFailed.Code, ErrFaceMismatch.Code, ErrInvalidRequest.Code:
		return true
	}
	return false
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrInvalidRequest = &AppError{
		Code:       "INVALID_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrImageAcquisition = &AppError{
		Code:       "IMAGE_ACQUISITION_FAILED",
		Message:    "Failed to download image",
		StatusCode: 400,
	}

	ErrInvalidAadhaar = &AppError{
		Code:       "INVALID_AADHAAR",
		Message:    "Invalid Aadhaar",
		StatusCode: 400,
	}

	ErrFaceDetectionFailed = &AppError{
		Code:       "FACE_DETECTION_FAILED",
		Message:    "Face detection failed",
		StatusCode: 400,
	}

	ErrFaceMismatch = &AppError{
		Code:       "FACE_MISMATCH",
		Message:    "Face does not match Aadhaar",
		StatusCode: 400,
	}

	ErrEmbeddingFailed = &AppError{
		Code:       "EMBEDDING_FAILED",
		Message:    "Face verification error",
		StatusCode: 400,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
