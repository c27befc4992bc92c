package modelserver

import "errors"

var (
	// ErrModelServerUnavailable indicates the model server cannot be reached or failed (5xx)
	ErrModelServerUnavailable = errors.New("model server unavailable")

	// ErrModelServerTimeout indicates the request exceeded the inference timeout
	ErrModelServerTimeout = errors.New("model server request timeout")

	// ErrRequestRejected indicates the model server refused the request (4xx)
	ErrRequestRejected = errors.New("model server rejected request")

	// ErrInvalidResponse indicates the model server answered with an unexpected payload
	ErrInvalidResponse = errors.New("invalid response from model server")

	// ErrInvalidImageFormat indicates the image could not be encoded for transport
	ErrInvalidImageFormat = errors.New("invalid image format")
)
