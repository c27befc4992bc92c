package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrNoFaceDetected indicates that no face was found in the source image of a comparison
	ErrNoFaceDetected = errors.New("no face detected in image")

	// ErrInvalidImage indicates that the image cannot be sent to Rekognition
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrModelNotConfigured indicates that region detection was requested without a Custom Labels model
	ErrModelNotConfigured = errors.New("rekognition custom labels model not configured")

	// ErrModelNotFound indicates that the Custom Labels project version does not exist
	ErrModelNotFound = errors.New("rekognition custom labels model not found")

	// ErrModelNotRunning indicates that the Custom Labels project version exists but is not started
	ErrModelNotRunning = errors.New("rekognition custom labels model not running")
)
