package modelserver

// ImageRequest carries a base64 JPEG for the single-image endpoints
type ImageRequest struct {
	Image string `json:"image"`
}

// Detection is one YOLO box in pixel coordinates [x1, y1, x2, y2]
type Detection struct {
	Label      string     `json:"label"`
	Box        [4]float64 `json:"box"`
	Confidence float64    `json:"confidence"`
}

// RegionsResponse represents the response from POST /detect/regions
type RegionsResponse struct {
	Detections []Detection `json:"detections"`
}

// OCRResponse represents the response from POST /ocr
type OCRResponse struct {
	Texts []string `json:"texts"`
}

// LandmarksResponse represents the response from POST /landmarks,
// one list of [x, y] points per detected face
type LandmarksResponse struct {
	Faces [][][2]int `json:"faces"`
}

// ClassifyRequest asks for a forward pass captured at Layer
type ClassifyRequest struct {
	Image string `json:"image"`
	Layer string `json:"layer"`
}

// ClassifyResponse carries the layer activations [H][W][C] and class probabilities
type ClassifyResponse struct {
	Activations   [][][]float64 `json:"activations"`
	Probabilities []float64     `json:"probabilities"`
}

// GradientsRequest asks for d(score[Class]) / d(activations of Layer)
type GradientsRequest struct {
	Image string `json:"image"`
	Layer string `json:"layer"`
	Class int    `json:"class"`
}

// GradientsResponse carries the gradient volume [H][W][C]
type GradientsResponse struct {
	Gradients [][][]float64 `json:"gradients"`
}
