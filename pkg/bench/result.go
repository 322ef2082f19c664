package bench

import (
	"time"

	"github.com/matzehuels/spatialbench/pkg/buildinfo"
	"github.com/matzehuels/spatialbench/pkg/pipeline"
)

// ItemResult is the outcome for one record.
type ItemResult struct {
	Index   int    `json:"index" bson:"index"`
	ImgName string `json:"img_name" bson:"img_name"`
	Answer  string `json:"ans" bson:"ans"`
	GT      string `json:"gt" bson:"gt"`
	Correct bool   `json:"correct" bson:"correct"`
	Cached  bool   `json:"cached,omitempty" bson:"cached,omitempty"`
	// Error holds the model failure when Answer was scored as empty.
	Error string `json:"error,omitempty" bson:"error,omitempty"`
}

// Result is a complete benchmark run.
type Result struct {
	ID        string        `json:"id" bson:"_id"`
	Name      string        `json:"name" bson:"name"`
	Setting   string        `json:"setting" bson:"setting"`
	Provider  string        `json:"provider" bson:"provider"`
	Model     string        `json:"model" bson:"model"`
	StartedAt time.Time     `json:"started_at" bson:"started_at"`
	Duration  time.Duration `json:"duration_ns" bson:"duration_ns"`
	// Build identifies the binary that produced the result.
	Build buildinfo.Info `json:"build" bson:"build"`

	Items []ItemResult `json:"items" bson:"items"`

	Total    int     `json:"total" bson:"total"`
	Correct  int     `json:"correct" bson:"correct"`
	Errors   int     `json:"errors" bson:"errors"`
	Cached   int     `json:"cached" bson:"cached"`
	Accuracy float64 `json:"accuracy" bson:"accuracy"`
}

// ResultName returns the canonical result name, e.g.
// "testResult_2507131536_rel_sybVp_nP".
func ResultName(s Setting, now time.Time) string {
	return "testResult_" + pipeline.Stamp(now) + "_" + s.String()
}

// tally recomputes the summary counters from Items.
func (r *Result) tally() {
	r.Total = len(r.Items)
	r.Correct, r.Errors, r.Cached = 0, 0, 0
	for _, it := range r.Items {
		if it.Correct {
			r.Correct++
		}
		if it.Error != "" {
			r.Errors++
		}
		if it.Cached {
			r.Cached++
		}
	}
	r.Accuracy = 0
	if r.Total > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Total)
	}
}
