package solve

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/crosscheck"
	"github.com/copyleftdev/lplab/internal/lp/graphical"
	"github.com/copyleftdev/lplab/internal/lp/sensitivity"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
)

// namespace is the UUIDv5 namespace of problem fingerprints.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/copyleftdev/lplab/problem"))

// Fingerprint returns a stable identifier for p: the UUIDv5 of its canonical
// JSON definition. Problems that differ only in spelling (operator aliases,
// omitted names, short coefficient vectors) share a fingerprint.
func Fingerprint(p *lp.Problem) (string, error) {
	data, err := json.Marshal(p.Definition())
	if err != nil {
		return "", fmt.Errorf("failed to encode problem: %w", err)
	}
	return uuid.NewSHA1(namespace, data).String(), nil
}

// Report gathers every result of one solve.
type Report struct {
	ID      string
	Problem *lp.Problem

	Simplex     *simplex.Solution
	Sensitivity *sensitivity.Result
	Graphical   *graphical.Solution

	// GraphicalCheck and ReferenceCheck are nil when cross-checking is off.
	GraphicalCheck *crosscheck.Comparison
	ReferenceCheck *crosscheck.Comparison

	Duration time.Duration
}
