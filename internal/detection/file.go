package detection

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// FileSource rereads a snapshot document on every sample. The document may be
// a class->count mapping, a list of class labels, or an inference response
// with a predictions list. YAML and JSON are both accepted.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

func (s *FileSource) Sample(ctx context.Context) (cart.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDetection, "snapshot file unreadable").
			WithContext("path", s.path).
			Retryable().
			Build()
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDetection, "invalid snapshot file").
			WithContext("path", s.path).
			Build()
	}
	return snap, nil
}

// ParseSnapshot decodes any of the supported snapshot document shapes.
// An empty document is an empty snapshot.
func ParseSnapshot(data []byte) (cart.Snapshot, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return cart.Snapshot{}, nil
	}
	root := node.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		var classes []string
		if err := root.Decode(&classes); err != nil {
			return nil, err
		}
		return cart.FromClasses(classes), nil
	case yaml.MappingNode:
		var inf struct {
			Predictions *[]Prediction `yaml:"predictions"`
		}
		if err := root.Decode(&inf); err == nil && inf.Predictions != nil {
			return Inference{Predictions: *inf.Predictions}.Snapshot(), nil
		}
		var counts map[string]int
		if err := root.Decode(&counts); err != nil {
			return nil, err
		}
		return cart.Snapshot(counts), nil
	default:
		return nil, errors.ValidationError("snapshot must be a mapping or a list").Build()
	}
}
