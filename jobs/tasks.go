package jobs

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProposalGenerate rolls an itinerary's pricing ledger up into proposals.
	TaskProposalGenerate = "proposals:generate"
)

// ProposalGeneratePayload identifies the itinerary to roll up.
type ProposalGeneratePayload struct {
	ItineraryID int64 `json:"itineraryId"`
}

// NewProposalGenerateTask constructs an Asynq task with a fresh task id.
// Generation is not retried because a partially saved run would be merged
// twice under the append policy.
func NewProposalGenerateTask(itineraryID int64) (*asynq.Task, error) {
	if itineraryID <= 0 {
		return nil, errors.New("proposal task: itinerary id must be positive")
	}
	data, err := json.Marshal(ProposalGeneratePayload{ItineraryID: itineraryID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProposalGenerate, data,
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(0),
		asynq.Queue(QueueDefault),
	), nil
}
