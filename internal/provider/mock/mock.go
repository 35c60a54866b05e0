package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
	"github.com/saturnino-fabrica-de-software/reentry/internal/imaging"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider"
)

const DefaultDimension = 128

// Provider implementa Detector e Embedder para testes e desenvolvimento.
// Imagens de cor única não têm face; qualquer outra tem uma face central.
type Provider struct {
	dimension int
}

// New cria uma nova instância do MockProvider
func New(dimension int) *Provider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Provider{dimension: dimension}
}

// DetectFaces simula detecção de faces
func (p *Provider) DetectFaces(ctx context.Context, data []byte, _ provider.DetectOptions) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	if uniform(img) {
		return []provider.DetectedFace{}, nil
	}

	b := img.Bounds()
	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      b.Min.X + b.Dx()/10,
				Y:      b.Min.Y + b.Dy()/10,
				Width:  b.Dx() * 8 / 10,
				Height: b.Dy() * 8 / 10,
			},
			Confidence: 0.99,
		},
	}, nil
}

// Embed gera embedding determinístico baseado no hash da imagem
func (p *Provider) Embed(ctx context.Context, data []byte, _ provider.EmbedOptions) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.ErrInvalidImage
	}
	return generateEmbedding(data, p.dimension), nil
}

// Check always succeeds
func (p *Provider) Check(context.Context) error {
	return nil
}

// generateEmbedding expands sha256 of the input into a unit vector
func generateEmbedding(data []byte, dimension int) []float32 {
	hash := sha256.Sum256(data)
	seed := binary.BigEndian.Uint64(hash[:8])

	embedding := make([]float32, dimension)
	norm := 0.0
	for i := range embedding {
		// splitmix64
		seed += 0x9e3779b97f4a7c15
		z := seed
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31

		v := float64(z)/float64(math.MaxUint64)*2 - 1
		embedding[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}
	for i := range embedding {
		embedding[i] = float32(float64(embedding[i]) / norm)
	}
	return embedding
}

func uniform(img image.Image) bool {
	b := img.Bounds()
	if b.Empty() {
		return true
	}

	first := color.RGBAModel.Convert(img.At(b.Min.X, b.Min.Y))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) != first {
				return false
			}
		}
	}
	return true
}

var (
	_ provider.Detector      = (*Provider)(nil)
	_ provider.Embedder      = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)
