package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB

	formName  = "name"
	formImage = "image"
	// legacyFormImage is the field name used by the HTML upload forms
	legacyFormImage = "faceImage"
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/gif":  true,
}

// FaceService interface for the service
type FaceService interface {
	Enroll(ctx context.Context, identity string, image []byte) (*domain.Enrollment, error)
	Recognize(ctx context.Context, image []byte) (*domain.MatchResult, error)
	Count() int
	ClearAll(ctx context.Context) error
}

// FaceHandler handles face-related requests
type FaceHandler struct {
	service FaceService
	logger  *slog.Logger
}

// NewFaceHandler creates a new FaceHandler instance
func NewFaceHandler(service FaceService, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterResponse response for register endpoint
type RegisterResponse struct {
	EnrollmentID string `json:"enrollment_id"`
	Name         string `json:"name"`
	Replaced     bool   `json:"replaced"`
	TotalFaces   int    `json:"total_faces"`
	Message      string `json:"message"`
	CreatedAt    string `json:"created_at"`
}

// ReenterResponse response for reenter endpoint
type ReenterResponse struct {
	RecognitionID string   `json:"recognition_id"`
	Recognized    bool     `json:"recognized"`
	Name          string   `json:"name,omitempty"`
	Distance      *float64 `json:"distance,omitempty"`
	Threshold     float64  `json:"threshold"`
	Message       string   `json:"message"`
	LatencyMs     int64    `json:"latency_ms"`
}

// CountResponse response for count endpoint
type CountResponse struct {
	Count int `json:"count"`
}

// Register POST /v1/register - enroll a face under a name
func (h *FaceHandler) Register(c *fiber.Ctx) error {
	name := c.FormValue(formName)

	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	enrollment, err := h.service.Enroll(c.UserContext(), name, imageBytes)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		EnrollmentID: enrollment.ID.String(),
		Name:         enrollment.Identity,
		Replaced:     enrollment.Replaced,
		TotalFaces:   enrollment.TotalFaces,
		Message:      "Face registered for today! Name: " + enrollment.Identity,
		CreatedAt:    enrollment.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Reenter POST /v1/reenter - recognize a previously enrolled face
func (h *FaceHandler) Reenter(c *fiber.Ctx) error {
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return err
	}

	result, err := h.service.Recognize(c.UserContext(), imageBytes)
	if err != nil {
		return err
	}

	resp := ReenterResponse{
		RecognitionID: result.ID.String(),
		Recognized:    result.Matched,
		Threshold:     result.Threshold,
		Message:       "Face not recognized for today.",
		LatencyMs:     result.LatencyMs,
	}
	if result.Matched {
		distance := result.Distance
		resp.Name = result.Identity
		resp.Distance = &distance
		resp.Message = "Face recognized. Welcome back " + result.Identity
	}

	return c.JSON(resp)
}

// Count GET /v1/faces/count - number of enrolled faces
func (h *FaceHandler) Count(c *fiber.Ctx) error {
	return c.JSON(CountResponse{Count: h.service.Count()})
}

// Clear DELETE /v1/faces - remove every enrolled face
func (h *FaceHandler) Clear(c *fiber.Ctx) error {
	if err := h.service.ClearAll(c.UserContext()); err != nil {
		return err
	}

	h.logger.Info("face database cleared via api", slog.String("ip", c.IP()))
	return c.SendStatus(fiber.StatusNoContent)
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	file, err := formImageFile(c)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(errors.New("image is empty"))
	}
	if file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(errors.New("image exceeds 10MB"))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	// Sniff the bytes; browsers send application/octet-stream for some formats
	if contentType := http.DetectContentType(imageBytes); !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + contentType))
	}

	return imageBytes, nil
}

func formImageFile(c *fiber.Ctx) (*multipart.FileHeader, error) {
	file, err := c.FormFile(formImage)
	if err == nil {
		return file, nil
	}
	if legacy, legacyErr := c.FormFile(legacyFormImage); legacyErr == nil {
		return legacy, nil
	}
	return nil, err
}
