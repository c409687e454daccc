// Package model persists and loads the fraud classifier artifact. The
// artifact bundles the fitted forest with the frozen category encoding it
// was trained against, so serving always reproduces training-time codes.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/feature"
	"github.com/samarth3301/payment-simulator/internal/forest"
)

// ArtifactVersion identifies the serialization format.
const ArtifactVersion = 1

// Artifact is the single persisted unit: classifier plus encoding.
// Immutable once written; retraining replaces the file wholesale.
type Artifact struct {
	Version   int               `json:"version"`
	TrainedAt time.Time         `json:"trainedAt"`
	Params    forest.Params     `json:"params"`
	Encoding  *feature.Encoding `json:"encoding"`
	Forest    *forest.Forest    `json:"forest"`
}

// Save writes the artifact as JSON, creating any missing parent
// directories. Write failures are returned as-is; the training job treats
// them as fatal.
func Save(a *Artifact, path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Load reads an artifact from disk. A missing file yields
// domain.ErrModelNotFound; bytes that do not decode into a servable
// classifier yield domain.ErrModelCorrupt.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	var a Artifact
	if err := json.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelCorrupt, err)
	}

	if a.Forest == nil || !a.Forest.Valid(domain.NumFeatures) || a.Encoding == nil {
		return nil, fmt.Errorf("%w: artifact is missing forest or encoding", domain.ErrModelCorrupt)
	}

	return &a, nil
}
