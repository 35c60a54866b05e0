package service

import (
	"errors"
	"log/slog"
	"math"
	"strconv"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
	"github.com/saturnino-fabrica-de-software/reentry/internal/embedding"
)

// DefaultThreshold is the distance boundary for the 128-d OpenFace embeddings.
const DefaultThreshold = 0.9

// Match is the closest stored identity under the threshold
type Match struct {
	Identity string
	Distance float64
}

// MatchEngine finds the nearest stored embedding under a fixed threshold.
// The threshold is set once per process and never per call.
type MatchEngine struct {
	threshold float64
	logger    *slog.Logger
}

func NewMatchEngine(threshold float64, logger *slog.Logger) *MatchEngine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &MatchEngine{
		threshold: threshold,
		logger:    logger,
	}
}

func (m *MatchEngine) Threshold() float64 {
	return m.threshold
}

// Recognize scans entries in order. A candidate replaces the current best only
// when its distance is strictly below both the threshold and the best so far,
// so among exact ties the earliest entry wins.
func (m *MatchEngine) Recognize(query domain.Embedding, entries []domain.Entry) (Match, bool, error) {
	bestIdentity := ""
	bestDistance := math.Inf(1)
	closest := math.Inf(1)

	for _, e := range entries {
		d, err := embedding.Distance(query, e.Embedding)
		if err != nil {
			if errors.Is(err, embedding.ErrShapeMismatch) {
				return Match{}, false, domain.ErrShapeMismatch.WithError(err)
			}
			return Match{}, false, err
		}

		m.logger.Debug("candidate distance", slog.String("identity", e.Identity), slog.Float64("distance", d))

		if d < closest {
			closest = d
		}
		if d < m.threshold && d < bestDistance {
			bestDistance = d
			bestIdentity = e.Identity
		}
	}

	if bestIdentity == "" {
		best := "N/A"
		if !math.IsInf(closest, 1) {
			best = formatDistance(closest)
		}
		m.logger.Info("no match",
			slog.Int("candidates", len(entries)),
			slog.String("best_distance", best),
			slog.Float64("threshold", m.threshold),
		)
		return Match{}, false, nil
	}

	m.logger.Info("match found",
		slog.String("identity", bestIdentity),
		slog.Float64("distance", bestDistance),
		slog.Int("candidates", len(entries)),
	)
	return Match{Identity: bestIdentity, Distance: bestDistance}, true, nil
}

func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', 4, 64)
}
