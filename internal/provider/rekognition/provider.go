package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
	"github.com/saturnino-fabrica-de-software/reentry/internal/imaging"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider"
)

// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
const maxImageSize = 5 * 1024 * 1024

// Provider implements provider.Detector using AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it is paired with another embedder.
type Provider struct {
	api    API
	config Config
}

// Ensure Provider implements provider.Detector interface at compile time
var _ provider.Detector = (*Provider)(nil)

// NewProvider creates a Rekognition detector from the default AWS credential chain
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithAPI(client, cfg), nil
}

// NewProviderWithAPI creates a detector with a custom API implementation
func NewProviderWithAPI(api API, cfg Config) *Provider {
	return &Provider{api: api, config: cfg}
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return domain.ErrInvalidImage
	}
	if len(image) > maxImageSize {
		return domain.ErrInvalidImage.WithError(
			fmt.Errorf("image too large (%d bytes, maximum %d)", len(image), maxImageSize))
	}
	return nil
}

// DetectFaces detects faces in an image using AWS Rekognition DetectFaces API.
// Boxes come back as ratios of the image size and are converted to pixels.
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, image []byte, opts provider.DetectOptions) ([]provider.DetectedFace, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}

	width, height, err := imaging.Size(image)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	output, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, mapError(err)
	}

	minConfidence := p.config.minConfidence(opts.Lenient)

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		confidence := aws.ToFloat32(detail.Confidence)
		if confidence < minConfidence {
			continue
		}

		box := toPixels(detail.BoundingBox, width, height)
		if box.Empty() {
			continue
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: box,
			Confidence:  float64(confidence) / 100,
		})
	}

	return faces, nil
}

func toPixels(bb *types.BoundingBox, width, height int) provider.BoundingBox {
	left := float64(aws.ToFloat32(bb.Left)) * float64(width)
	top := float64(aws.ToFloat32(bb.Top)) * float64(height)
	w := float64(aws.ToFloat32(bb.Width)) * float64(width)
	h := float64(aws.ToFloat32(bb.Height)) * float64(height)

	return provider.BoundingBox{
		X:      int(math.Round(left)),
		Y:      int(math.Round(top)),
		Width:  int(math.Round(w)),
		Height: int(math.Round(h)),
	}
}
