package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Brownie44l1/sketchpad/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSession struct {
	inputs  []string
	outputs []string
	result  map[string]model.Value
	err     error
	block   bool
	feeds   map[string]model.Tensor
}

func (m *mockSession) InputNames() []string  { return m.inputs }
func (m *mockSession) OutputNames() []string { return m.outputs }
func (m *mockSession) Close() error          { return nil }

func (m *mockSession) Run(ctx context.Context, feeds map[string]model.Tensor) (map[string]model.Value, error) {
	m.feeds = feeds
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.result, m.err
}

type mockProvider struct {
	session model.Session
	err     error
}

func (p *mockProvider) Handle() (model.Handle, error) {
	if p.err != nil {
		return model.Handle{}, p.err
	}
	return model.NewHandle(p.session), nil
}

var testShape = []int64{1, 1, 28, 28}

func newTestOrchestrator(timeout time.Duration, opts ...Option) *Orchestrator {
	return NewOrchestrator(clockwork.NewRealClock(), timeout, opts...)
}

func scoresSession(shape []int64, scores []float32) *mockSession {
	return &mockSession{inputs: []string{"in"}, outputs: []string{"out"},
		result: map[string]model.Value{"out": {Shape: shape, Data: scores}}}
}

func TestInfer_UsesFirstDeclaredNames(t *testing.T) {
	session := &mockSession{
		inputs:  []string{"Input3", "unused"},
		outputs: []string{"Plus214_Output_0", "aux"},
		result: map[string]model.Value{
			"Plus214_Output_0": {Shape: []int64{1, 10}, Data: []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
			"aux":              {Data: []float32{100}},
		},
	}
	input := make([]float32, 784)

	scores, err := newTestOrchestrator(0).Infer(context.Background(), &mockProvider{session: session}, input, testShape)

	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, scores)
	require.Contains(t, session.feeds, "Input3")
	assert.Len(t, session.feeds, 1)
	assert.Equal(t, testShape, session.feeds["Input3"].Shape)
	assert.Len(t, session.feeds["Input3"].Data, 784)
}

func TestInfer_NotReady(t *testing.T) {
	o := newTestOrchestrator(0)

	_, err := o.Infer(context.Background(), nil, nil, testShape)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = o.Infer(context.Background(), &mockProvider{err: model.ErrNotLoaded}, nil, testShape)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, model.ErrNotLoaded)

	_, err = o.Infer(context.Background(), &mockProvider{err: model.ErrLoad}, nil, testShape)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.NotErrorIs(t, err, ErrExecution)
}

func TestInfer_ExecutionErrors(t *testing.T) {
	tests := []struct {
		name    string
		session *mockSession
	}{
		{
			name:    "engine failure",
			session: &mockSession{inputs: []string{"in"}, outputs: []string{"out"}, err: errors.New("kernel crashed")},
		},
		{
			name: "output missing",
			session: &mockSession{inputs: []string{"in"}, outputs: []string{"out"},
				result: map[string]model.Value{"other": {Data: []float32{1}}}},
		},
		{
			name: "wrong element type",
			session: &mockSession{inputs: []string{"in"}, outputs: []string{"out"},
				result: map[string]model.Value{"out": {Data: []float64{0.1, 0.9}}}},
		},
		{
			name: "empty vector",
			session: &mockSession{inputs: []string{"in"}, outputs: []string{"out"},
				result: map[string]model.Value{"out": {Data: []float32{}}}},
		},
		{
			name:    "no declared names",
			session: &mockSession{},
		},
		{
			name:    "shape disagrees with data",
			session: scoresSession([]int64{7, 7}, make([]float32, 10)),
		},
		{
			name:    "dynamic dimension left in shape",
			session: scoresSession([]int64{-1, 10}, make([]float32, 10)),
		},
		{
			name:    "fewer scores than classes",
			session: scoresSession([]int64{1, 3}, []float32{0.2, 0.9, 0.1}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := newTestOrchestrator(0, WithClasses(10)).Infer(context.Background(), &mockProvider{session: tt.session}, make([]float32, 784), testShape)

			assert.Nil(t, scores)
			assert.ErrorIs(t, err, ErrExecution)
			assert.NotErrorIs(t, err, ErrNotReady)
		})
	}
}

func TestInfer_ClassCountIsOptional(t *testing.T) {
	session := scoresSession([]int64{1, 3}, []float32{0.2, 0.9, 0.1})

	scores, err := newTestOrchestrator(0).Infer(context.Background(), &mockProvider{session: session}, nil, testShape)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.2, 0.9, 0.1}, scores)

	_, err = newTestOrchestrator(0, WithClasses(10)).Infer(context.Background(), &mockProvider{session: session}, nil, testShape)
	assert.ErrorIs(t, err, ErrExecution)
	assert.ErrorContains(t, err, "want one per class (10)")
}

func TestInfer_Timeout(t *testing.T) {
	session := &mockSession{inputs: []string{"in"}, outputs: []string{"out"}, block: true}

	_, err := newTestOrchestrator(10*time.Millisecond).Infer(context.Background(), &mockProvider{session: session}, nil, testShape)

	assert.ErrorIs(t, err, ErrExecution)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   int
	}{
		{"clear winner", []float32{0.1, 0.9, 0.3}, 1},
		{"tie goes to first", []float32{0.5, 0.5, 0}, 0},
		{"last element", []float32{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, 9},
		{"negative logits", []float32{-3.2, -0.4, -0.4, -7}, 1},
		{"single", []float32{-1}, 0},
		{"empty", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Argmax(tt.scores))
		})
	}
}

func TestDecide(t *testing.T) {
	pred, ok := Decide([]float32{0.1, 0.9, 0.3}, model.DigitMetadata())
	require.True(t, ok)
	assert.Equal(t, Prediction{Class: 1, Label: "1", Score: 0.9}, pred)

	_, ok = Decide(nil, model.DigitMetadata())
	assert.False(t, ok)
}
