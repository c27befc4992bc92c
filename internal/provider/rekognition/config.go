package rekognition

// Config holds configuration for AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// ProjectVersionARN is the Custom Labels model trained on the card field
	// classes. Region detection is unavailable while it is empty.
	ProjectVersionARN string

	// SimilarityThreshold is the CompareFaces similarity (0-100) at or above
	// which two faces count as the same person
	SimilarityThreshold float64

	// MinConfidence filters Custom Labels detections (0-100)
	MinConfidence float64
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:              "us-east-1",
		SimilarityThreshold: 80,
		MinConfidence:       50,
	}
}
