package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// RegisterResponse represents the response for a successful enrollment
type RegisterResponse struct {
	EnrollmentID string `json:"enrollment_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name         string `json:"name" example:"alice"`
	Replaced     bool   `json:"replaced" example:"false"`
	TotalFaces   int    `json:"total_faces" example:"12"`
	Message      string `json:"message" example:"Face registered for today! Name: alice"`
	CreatedAt    string `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// ReenterResponse represents the response for a recognition attempt
type ReenterResponse struct {
	RecognitionID string  `json:"recognition_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Recognized    bool    `json:"recognized" example:"true"`
	Name          string  `json:"name,omitempty" example:"alice"`
	Distance      float64 `json:"distance,omitempty" example:"0.42"`
	Threshold     float64 `json:"threshold" example:"0.9"`
	Message       string  `json:"message" example:"Face recognized. Welcome back alice"`
	LatencyMs     int64   `json:"latency_ms" example:"85"`
}

// CountResponse represents the number of enrolled faces
type CountResponse struct {
	Count int `json:"count" example:"12"`
}

// HealthResponse represents liveness and readiness responses
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Version string            `json:"version,omitempty" example:"1.0.0"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var internalError = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Reentry Face Recognition API",
		Version:     "v1.0.0",
		Description: "Face enrollment and re-identification for venue re-entry",
		Host:        "localhost:3000",
		Path:        "/",
	})

	imageParam := parameter.FileParam("image", parameter.WithRequired(), parameter.WithDescription("Face image (jpeg, png, webp, bmp or gif, max 10MB). faceImage is accepted as an alias"))

	endpoints := []*endpoint.EndPoint{
		// POST /v1/register - Enroll a face
		endpoint.New(
			endpoint.POST,
			"/v1/register",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enroll a face under a name"),
			endpoint.WithDescription("Extracts the first face in the image and stores it under name. An existing name is overwritten in place."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Form, parameter.WithRequired(), parameter.WithDescription("Identity to enroll")),
				imageParam,
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RegisterResponse{}, "201", "Face enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Missing image"),
				response.New(ErrorResponse{Code: "INVALID_IDENTITY", Message: "A non-empty name is required for enrollment"}, "422", "Empty name"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected"}, "422", "No face"),
				response.New(ErrorResponse{Code: "MODEL_UNAVAILABLE", Message: "Face detection or embedding model is unavailable"}, "503", "Service Unavailable"),
				internalError,
			}),
		),

		// POST /v1/reenter - Recognize a face
		endpoint.New(
			endpoint.POST,
			"/v1/reenter",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Recognize a previously enrolled face"),
			endpoint.WithDescription("Compares the first face in the image with every enrolled face. A face is recognized when its distance is below the threshold."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(imageParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReenterResponse{}, "200", "Recognition completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected"}, "422", "No face"),
				response.New(ErrorResponse{Code: "MODEL_UNAVAILABLE", Message: "Face detection or embedding model is unavailable"}, "503", "Service Unavailable"),
				internalError,
			}),
		),

		// GET /v1/faces/count
		endpoint.New(
			endpoint.GET,
			"/v1/faces/count",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Count enrolled faces"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CountResponse{}, "200", "OK"),
			}),
		),

		// DELETE /v1/faces
		endpoint.New(
			endpoint.DELETE,
			"/v1/faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Remove every enrolled face"),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Face database cleared"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "STORAGE_ERROR", Message: "Face database could not be persisted"}, "500", "Storage error"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "OK"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Checks the face models and the database, when configured"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{}, "503", "Not ready"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
