package domain

import (
	"time"

	"github.com/google/uuid"
)

// Embedding representa o vetor de características de uma face, sempre L2-normalizado
// antes de ser armazenado ou comparado
type Embedding []float32

// Clone returns a copy that shares no memory with e.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Entry representa uma identidade cadastrada e seu embedding
type Entry struct {
	Identity  string    `json:"identity"`
	Embedding Embedding `json:"embedding"`
}

// Enrollment representa o resultado de um cadastro
type Enrollment struct {
	ID         uuid.UUID `json:"enrollment_id"`
	Identity   string    `json:"identity"`
	Replaced   bool      `json:"replaced"`
	Dimension  int       `json:"dimension"`
	TotalFaces int       `json:"total_faces"`
	CreatedAt  time.Time `json:"created_at"`
}

// MatchResult is the outcome of one recognition request. When Matched is false
// Identity is empty and Distance carries no meaning.
type MatchResult struct {
	ID         uuid.UUID `json:"recognition_id"`
	Matched    bool      `json:"matched"`
	Identity   string    `json:"identity,omitempty"`
	Distance   float64   `json:"distance"`
	Threshold  float64   `json:"threshold"`
	Candidates int       `json:"candidates"`
	LatencyMs  int64     `json:"latency_ms"`
}

// NoMatch builds the result returned when no stored face is close enough.
func NoMatch(threshold float64, candidates int) *MatchResult {
	return &MatchResult{
		ID:         uuid.New(),
		Threshold:  threshold,
		Candidates: candidates,
	}
}
