package provider

import (
	"context"
	"image"
)

// Detector localiza faces numa imagem
type Detector interface {
	// DetectFaces retorna as faces na ordem reportada pelo modelo.
	// Nenhuma face não é erro: retorna slice vazio.
	DetectFaces(ctx context.Context, image []byte, opts DetectOptions) ([]DetectedFace, error)
}

// Embedder extrai o embedding de uma imagem de face
type Embedder interface {
	// Embed retorna o vetor de uma única face.
	// Retorna domain.ErrNoFaceDetected quando o modelo não encontra face.
	Embed(ctx context.Context, image []byte, opts EmbedOptions) ([]float32, error)
}

// HealthChecker is implemented by providers backed by a remote service.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// DetectOptions tunes a single detection pass
type DetectOptions struct {
	// Lenient relaxes detection parameters for the second pass
	Lenient bool
}

// EmbedOptions tunes a single embedding call
type EmbedOptions struct {
	// SkipDetection tells the embedder the image is already a face crop
	SkipDetection bool
	Lenient       bool
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`

	// Embedding is filled by detectors that compute it in the same call
	Embedding []float32 `json:"-"`
}

// BoundingBox represents the face area in pixels
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the box has no area
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Rect converts the box to an image rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}
