package provider

import (
	"context"
	"errors"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
	"github.com/saturnino-fabrica-de-software/reentry/internal/imaging"
)

const defaultInputSize = 96

// Pipeline turns raw image bytes into one face embedding:
// detect, retry leniently, keep the first face, optionally crop, embed.
type Pipeline struct {
	detector  Detector
	embedder  Embedder
	crop      bool
	inputSize int
	logger    *slog.Logger
}

type PipelineOption func(*Pipeline)

// WithCrop makes the pipeline crop the first face and scale it to size
// before embedding. Required when the embedder does not detect on its own.
func WithCrop(size int) PipelineOption {
	return func(p *Pipeline) {
		p.crop = true
		if size > 0 {
			p.inputSize = size
		}
	}
}

func NewPipeline(detector Detector, embedder Embedder, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		detector:  detector,
		embedder:  embedder,
		inputSize: defaultInputSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract returns the raw (unnormalized) embedding of the first face in image.
func (p *Pipeline) Extract(ctx context.Context, image []byte) (domain.Embedding, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	lenient := false
	faces, err := p.detector.DetectFaces(ctx, image, DetectOptions{})
	if err != nil {
		return nil, providerError(err)
	}

	if len(faces) == 0 {
		p.logger.Debug("no face with default detector parameters, retrying leniently")
		lenient = true
		faces, err = p.detector.DetectFaces(ctx, image, DetectOptions{Lenient: true})
		if err != nil {
			return nil, providerError(err)
		}
	}

	if len(faces) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	if len(faces) > 1 {
		p.logger.Info("multiple faces detected, using the first one", "faces", len(faces))
	}
	face := faces[0]

	if !p.crop && len(face.Embedding) > 0 {
		return domain.Embedding(face.Embedding).Clone(), nil
	}

	input := image
	opts := EmbedOptions{Lenient: lenient}
	if p.crop {
		input, err = imaging.CropFace(image, face.BoundingBox.Rect(), p.inputSize)
		if err != nil {
			return nil, domain.ErrInvalidImage.WithError(err)
		}
		opts.SkipDetection = true
	}

	vec, err := p.embedder.Embed(ctx, input, opts)
	if err != nil {
		return nil, providerError(err)
	}
	if len(vec) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	return domain.Embedding(vec), nil
}

// Check runs the health checks of both providers, when they have one.
func (p *Pipeline) Check(ctx context.Context) error {
	var errs []error
	if hc, ok := p.detector.(HealthChecker); ok {
		errs = append(errs, hc.Check(ctx))
	}
	if hc, ok := p.embedder.(HealthChecker); ok && any(p.embedder) != any(p.detector) {
		errs = append(errs, hc.Check(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		return domain.ErrModelUnavailable.WithError(err)
	}
	return nil
}

// providerError keeps domain errors and maps anything else to ModelUnavailable.
func providerError(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.ErrModelUnavailable.WithError(err)
}
