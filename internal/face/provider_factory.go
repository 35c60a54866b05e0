package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/reentry/internal/config"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider/rekognition"
)

// NewPipeline wires the configured detector and embedder.
//
// Environment variables:
//   - DETECTOR: "deepface", "rekognition" or "mock" (default: "deepface")
//   - EMBEDDER: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL / DEEPFACE_MODEL / DEEPFACE_DETECTOR: DeepFace API settings
//   - AWS_REGION plus the AWS SDK credential chain for Rekognition
//
// When DeepFace is both detector and embedder a single /represent call per
// pass does both; otherwise the first face is cropped before embedding.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*provider.Pipeline, error) {
	var df *deepface.Provider
	deepFace := func() *deepface.Provider {
		if df == nil {
			df = deepface.NewProvider(deepFaceConfig(cfg))
		}
		return df
	}

	var detector provider.Detector
	switch cfg.Detector {
	case config.ProviderDeepFace:
		detector = deepFace()
	case config.ProviderRekognition:
		rekogConfig := rekognition.DefaultConfig()
		rekogConfig.Region = cfg.AWSRegion

		prov, err := rekognition.NewProvider(ctx, rekogConfig)
		if err != nil {
			return nil, fmt.Errorf("create rekognition detector: %w", err)
		}
		detector = prov
	case config.ProviderMock:
		detector = mock.New(cfg.EmbeddingDimension)
	default:
		return nil, fmt.Errorf("unknown detector: %s (supported: %s, %s, %s)",
			cfg.Detector, config.ProviderDeepFace, config.ProviderRekognition, config.ProviderMock)
	}

	var embedder provider.Embedder
	switch cfg.Embedder {
	case config.ProviderDeepFace:
		embedder = deepFace()
	case config.ProviderMock:
		embedder = mock.New(cfg.EmbeddingDimension)
	default:
		return nil, fmt.Errorf("unknown embedder: %s (supported: %s, %s)",
			cfg.Embedder, config.ProviderDeepFace, config.ProviderMock)
	}

	var opts []provider.PipelineOption
	if cfg.CropFaces() {
		opts = append(opts, provider.WithCrop(cfg.FaceInputSize))
	}

	logger.Info("face pipeline configured",
		"detector", cfg.Detector,
		"embedder", cfg.Embedder,
		"crop", cfg.CropFaces(),
	)

	return provider.NewPipeline(detector, embedder, logger, opts...), nil
}

func deepFaceConfig(cfg *config.Config) deepface.Config {
	c := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		c.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		c.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		c.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceFallbackDetector != "" {
		c.FallbackDetector = cfg.DeepFaceFallbackDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		c.Timeout = cfg.DeepFaceTimeout
	}
	return c
}
