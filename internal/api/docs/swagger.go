package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ExtractedRecordData is the record read off a valid card
type ExtractedRecordData struct {
	IsValid       bool   `json:"is_valid" example:"true"`
	AadhaarNumber string `json:"aadhaar_number" example:"234567890124"`
	Name          string `json:"name" example:"Asha Rao"`
	Gender        string `json:"gender" example:"Female"`
	DOB           string `json:"dob" example:"01/01/1990"`
}

// ValidateAadhaarResponse represents a successful card validation
type ValidateAadhaarResponse struct {
	Success bool                `json:"success" example:"true"`
	Message string              `json:"message" example:"Aadhaar validated"`
	Data    ExtractedRecordData `json:"data"`
}

// ValidateAadhaarError represents a rejected or failed card validation
type ValidateAadhaarError struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"Invalid Aadhaar"`
}

// AnalysisSummaryData is the verdict of a comparison. Key features are
// [region, score] pairs, the score being a number.
type AnalysisSummaryData struct {
	Conclusion           string     `json:"conclusion" example:"Potential match"`
	ConfidenceLevel      string     `json:"confidence_level" example:"Medium"`
	KeyMatchingFeatures  [][]string `json:"key_matching_features"`
	KeyDifferingFeatures [][]string `json:"key_differing_features"`
}

// CompareFacesResponse represents the explainable comparison report.
// region_matches maps region name to score; heatmaps are row-major grids in [0, 1];
// landmarks are 68 [x, y] pairs or null.
type CompareFacesResponse struct {
	MatchPercentage float64             `json:"match_percentage" example:"78.66"`
	RegionMatches   map[string]float64  `json:"region_matches"`
	Image1Heatmap   [][]float64         `json:"image1_heatmap"`
	Image2Heatmap   [][]float64         `json:"image2_heatmap"`
	Landmarks1      [][]int             `json:"landmarks1"`
	Landmarks2      [][]int             `json:"landmarks2"`
	AnalysisSummary AnalysisSummaryData `json:"analysis_summary"`
}

// ErrorResponse represents the plain error envelope
type ErrorResponse struct {
	Error string `json:"error" example:"Both image URLs are required"`
}

// HealthResponse represents the liveness and readiness probes
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "idverify API",
		Version:     "v1.0.0",
		Description: "Aadhaar card validation and explainable face comparison",
		Host:        "localhost:5000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /validate-aadhaar
		endpoint.New(
			endpoint.POST,
			"/validate-aadhaar",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Validate an Aadhaar card against a face photo"),
			endpoint.WithDescription(`Body: {"aadhaar_url": "...", "user_face_url": "..."}. Reads the card fields, checks the Verhoeff checksum of the number and matches the card face against the user photo.`),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ValidateAadhaarResponse{}, "200", "Aadhaar validated"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ValidateAadhaarError{Error: "Both Aadhaar and face images are required"}, "400", "Missing image URL"),
				response.New(ValidateAadhaarError{Error: "Invalid Aadhaar"}, "400", "Card rejected"),
				response.New(ValidateAadhaarError{Error: "Face detection failed"}, "400", "No face found"),
				response.New(ValidateAadhaarError{Error: "Face does not match Aadhaar"}, "400", "Face mismatch"),
				response.New(ErrorResponse{Error: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
			}),
		),

		// GET /compare-faces
		endpoint.New(
			endpoint.GET,
			"/compare-faces",
			endpoint.WithTags("Comparison"),
			endpoint.WithSummary("Compare two face images"),
			endpoint.WithDescription("Returns the match percentage, per-region landmark similarity, Grad-CAM heatmaps and a summary verdict"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("image1_url", parameter.Query, parameter.WithDescription("URL of the first face image")),
				parameter.StrParam("image2_url", parameter.Query, parameter.WithDescription("URL of the second face image")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CompareFacesResponse{}, "200", "Comparison report"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Both image URLs are required"}, "400", "Missing image URL"),
				response.New(ErrorResponse{Error: "Error downloading images: status 404"}, "400", "Image acquisition failed"),
				response.New(ErrorResponse{Error: "Face verification error: no face detected"}, "400", "Embedding failed"),
				response.New(ErrorResponse{Error: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Error: "unexpected error"}, "500", "Internal Server Error"),
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Service is ready"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
