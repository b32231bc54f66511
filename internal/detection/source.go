// Package detection produces cart snapshots from the camera pipeline or from
// a snapshot file.
package detection

import (
	"context"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// Source samples the contents of the cart. A failed sample returns an error
// and no snapshot; callers must not treat it as an empty cart.
type Source interface {
	Sample(ctx context.Context) (cart.Snapshot, error)
}

// Prediction is one detected object.
type Prediction struct {
	Class      string  `json:"class" yaml:"class"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Inference is the response document of the hosted model.
type Inference struct {
	Predictions []Prediction `json:"predictions" yaml:"predictions"`
}

// Snapshot counts predictions per class.
func (inf Inference) Snapshot() cart.Snapshot {
	classes := make([]string, 0, len(inf.Predictions))
	for _, p := range inf.Predictions {
		classes = append(classes, p.Class)
	}
	return cart.FromClasses(classes)
}

// New builds the source selected by cfg.Mode.
func New(cfg config.DetectionConfig) (Source, error) {
	switch cfg.Mode {
	case config.DetectionHTTP:
		return NewHTTPSource(cfg, nil), nil
	case config.DetectionFile:
		return NewFileSource(cfg.SnapshotFile), nil
	default:
		return nil, errors.ConfigError("unsupported detection mode").WithContext("mode", string(cfg.Mode)).Build()
	}
}
