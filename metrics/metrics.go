package metrics

import (
	"encoding/json"
	"time"
)

// RunEvent is one structured record of pipeline progress: a stage of
// one date's processing, or a run-level event when Date is empty.
type RunEvent struct {
	Time        string        `json:"time"`
	Date        string        `json:"date,omitempty"`
	Stage       string        `json:"stage"`
	Band        string        `json:"band,omitempty"`
	ItemIDs     []string      `json:"item_ids,omitempty"`
	NonzeroPct  float64       `json:"nonzero_pixels,omitempty"`
	ValidPct    float64       `json:"valid_pixels,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	OutputPath  string        `json:"output_path,omitempty"`
	SourceCount int           `json:"source_count,omitempty"`
}

// Stages emitted by the orchestrator.
const (
	StageSearch    = "search"
	StageEvaluate  = "evaluate"
	StageRejected  = "rejected"
	StageAccepted  = "accepted"
	StageSaved     = "saved"
	StageFailed    = "failed"
	StageThumbnail = "thumbnail"
	StageManifest  = "manifest"
)

// NewRunEvent stamps an event for a date and stage.
func NewRunEvent(date, stage string) *RunEvent {
	return &RunEvent{
		Time:  time.Now().UTC().Format(time.RFC3339),
		Date:  date,
		Stage: stage,
	}
}

func (e *RunEvent) ToJSON() (string, error) {
	out, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
