// Package jobs wires background tasks processed by the Asynq worker.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPresetCompaction removes duplicate-label custom presets per user.
	TaskPresetCompaction = "preferences:compact"
)

// PresetCompactionPayload configures a compaction run.
type PresetCompactionPayload struct {
	// DryRun only reports what would be deleted.
	DryRun bool `json:"dry_run"`
}

// NewPresetCompactionTask constructs an Asynq task.
func NewPresetCompactionTask(payload PresetCompactionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPresetCompaction, data), nil
}
