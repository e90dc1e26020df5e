package inference

import "github.com/Brownie44l1/sketchpad/internal/model"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseResult:
		return "result"
	default:
		return "idle"
	}
}

// State is the inference state shown to the user. The zero value is idle with no result.
// Only PhaseResult carries an output.
type State struct {
	phase  Phase
	output []float32
	err    error
}

// Idle is the no-result state. err records why the last request produced nothing, if it failed.
func Idle(err error) State { return State{phase: PhaseIdle, err: err} }

func Loading() State { return State{phase: PhaseLoading} }

func Result(output []float32) State { return State{phase: PhaseResult, output: output} }

func (s State) Phase() Phase { return s.phase }
func (s State) Err() error   { return s.err }

// Output returns a copy of the result vector, or nil outside PhaseResult.
func (s State) Output() []float32 {
	if s.phase != PhaseResult {
		return nil
	}
	return append([]float32(nil), s.output...)
}

// Projection is the read-only view handed to the presentation layer.
type Projection struct {
	Loading        bool   `json:"loading"`
	PredictedClass *int   `json:"predicted_class"`
	Label          string `json:"label,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Project builds the presentation view. While anything is loading no result is exposed.
func (s State) Project(modelLoading bool, metadata model.Metadata) Projection {
	p := Projection{Loading: modelLoading || s.phase == PhaseLoading}
	if s.err != nil {
		p.Error = s.err.Error()
	}
	if p.Loading || s.phase != PhaseResult {
		return p
	}
	if pred, ok := Decide(s.output, metadata); ok {
		class := pred.Class
		p.PredictedClass = &class
		p.Label = pred.Label
	}
	return p
}
