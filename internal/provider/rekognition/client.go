package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

const (
	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
)

// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
var ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

// API is the part of the Rekognition client the detector needs
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewClient creates a Rekognition client using the AWS default credential chain
func NewClient(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return rekognition.NewFromConfig(awsCfg), nil
}

// mapError translates AWS errors to domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeInvalidParameter, errCodeInvalidImageFormat, errCodeImageTooLarge:
			return domain.ErrInvalidImage.WithError(err)
		case errCodeAccessDenied:
			return domain.ErrModelUnavailable.WithError(fmt.Errorf("%w: %v", ErrInvalidCredentials, err))
		}
	}

	return domain.ErrModelUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
}
