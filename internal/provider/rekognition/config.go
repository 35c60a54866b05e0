package rekognition

// Config holds configuration for AWS Rekognition detector
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// MinConfidence drops detections below this confidence (0-100)
	MinConfidence float32

	// LenientMinConfidence is used on the second, lenient detection pass
	LenientMinConfidence float32
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:               "us-east-1",
		MinConfidence:        90,
		LenientMinConfidence: 50,
	}
}

func (c Config) minConfidence(lenient bool) float32 {
	if lenient {
		return c.LenientMinConfidence
	}
	return c.MinConfidence
}
