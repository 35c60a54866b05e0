package deepface

import (
	"context"
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
	"github.com/saturnino-fabrica-de-software/reentry/internal/embedding"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider"
)

// Provider implements provider.Detector and provider.Embedder on top of
// the DeepFace /represent endpoint. Detection results carry the embedding
// computed in the same call.
type Provider struct {
	client *Client
	config Config
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
		config: config,
	}
}

// DetectFaces detects faces in the image
func (p *Provider) DetectFaces(ctx context.Context, image []byte, opts provider.DetectOptions) ([]provider.DetectedFace, error) {
	resp, err := p.client.Represent(ctx, image, p.detector(opts.Lenient))
	if err != nil {
		if isNoFaceError(err) {
			return []provider.DetectedFace{}, nil
		}
		return nil, unavailable("detect faces", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      result.FacialArea.X,
				Y:      result.FacialArea.Y,
				Width:  result.FacialArea.W,
				Height: result.FacialArea.H,
			},
			Confidence: result.FaceConfidence,
			Embedding:  embedding.FromFloat64(result.Embedding),
		})
	}

	return faces, nil
}

// Embed extracts the embedding of the first face in image
func (p *Provider) Embed(ctx context.Context, image []byte, opts provider.EmbedOptions) ([]float32, error) {
	detector := p.detector(opts.Lenient)
	if opts.SkipDetection {
		detector = skipDetector
	}

	resp, err := p.client.Represent(ctx, image, detector)
	if err != nil {
		if isNoFaceError(err) {
			return nil, domain.ErrNoFaceDetected.WithError(err)
		}
		return nil, unavailable("embed face", err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Embedding) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	return embedding.FromFloat64(resp.Results[0].Embedding), nil
}

// Check verifies the API is reachable
func (p *Provider) Check(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return unavailable("deepface health check", err)
	}
	return nil
}

func (p *Provider) detector(lenient bool) string {
	if lenient && p.config.FallbackDetector != "" {
		return p.config.FallbackDetector
	}
	return p.config.Detector
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.ErrModelUnavailable.WithError(fmt.Errorf("%s: %w", op, err))
}

var (
	_ provider.Detector      = (*Provider)(nil)
	_ provider.Embedder      = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)
