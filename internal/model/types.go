package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Metadata describes how class indices map to display labels.
type Metadata struct {
	Classes []string `json:"classes"`
}

// Label returns the display label for class index i, falling back to the index itself.
func (m Metadata) Label(i int) string {
	if i >= 0 && i < len(m.Classes) {
		return m.Classes[i]
	}
	return strconv.Itoa(i)
}

// DigitMetadata labels the ten digit classes "0" through "9".
func DigitMetadata() Metadata {
	classes := make([]string, 10)
	for i := range classes {
		classes[i] = strconv.Itoa(i)
	}
	return Metadata{Classes: classes}
}

// LoadMetadata reads a label sidecar. An empty path yields DigitMetadata.
func LoadMetadata(path string) (Metadata, error) {
	if path == "" {
		return DigitMetadata(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(metadata.Classes) == 0 {
		return Metadata{}, fmt.Errorf("metadata %s declares no classes", path)
	}
	return metadata, nil
}

// Tensor is a float32 input fed to a session under one input name.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Value is one output produced by a session. Data holds the engine's native
// element slice ([]float32, []float64, []int64, ...) and is not guaranteed to be float32.
type Value struct {
	Shape []int64
	Data  any
}

// Session is a loaded, ready-to-run network.
type Session interface {
	// InputNames lists the model's declared inputs in order.
	InputNames() []string
	// OutputNames lists the model's declared outputs in order.
	OutputNames() []string
	// Run feeds one tensor per input name and returns every declared output by name.
	Run(ctx context.Context, feeds map[string]Tensor) (map[string]Value, error)
	Close() error
}

// Loader opens a session from a model resource.
type Loader func(ctx context.Context, path string) (Session, error)
