package inference

import "github.com/Brownie44l1/sketchpad/internal/model"

// Prediction is the decision taken from one output vector.
type Prediction struct {
	Class int     `json:"class"`
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Argmax returns the index of the largest score. Ties go to the lowest index.
// An empty slice yields -1.
func Argmax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}
	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores[1:] {
		if val > maxVal {
			maxVal = val
			maxIdx = i + 1
		}
	}
	return maxIdx
}

// Decide interprets raw scores. Scores are not normalized; only their order matters.
func Decide(scores []float32, metadata model.Metadata) (Prediction, bool) {
	class := Argmax(scores)
	if class < 0 {
		return Prediction{}, false
	}
	return Prediction{
		Class: class,
		Label: metadata.Label(class),
		Score: scores[class],
	}, true
}
