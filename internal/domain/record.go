package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExtractedRecord holds the fields read from an Aadhaar card
type ExtractedRecord struct {
	IsValid     bool   `json:"is_valid"`
	Identifier  string `json:"aadhaar_number"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dob"`
}

// Stage marks how far a verification got before it terminated
type Stage string

const (
	StageStart           Stage = "START"
	StageFieldsExtracted Stage = "FIELDS_EXTRACTED"
	StageUserFaceLocated Stage = "USER_FACE_LOCATED"
	StageFaceCompared    Stage = "FACE_COMPARED"
	StageDone            Stage = "DONE"
)

// VerificationResult is the terminal output of an Aadhaar verification
type VerificationResult struct {
	ID        uuid.UUID        `json:"-"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Data      *ExtractedRecord `json:"data,omitempty"`
	Stage     Stage            `json:"-"`
	LatencyMs int64            `json:"-"`
	CreatedAt time.Time        `json:"-"`
}
