package main

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/tripdesk/tripdesk/jobs"
)

// queueCLI wraps manual management helpers for the Asynq queue.
type queueCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

func newQueueCLI(redisAddr string) (*queueCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &queueCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *queueCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// queueStats summarises the current queue state.
type queueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

func (c *queueCLI) Stats() (queueStats, error) {
	if c == nil || c.inspector == nil {
		return queueStats{}, errors.New("queue cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return queueStats{}, err
	}
	stats := queueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

func (c *queueCLI) Generate(ctx context.Context, itineraryID int64) (string, error) {
	return c.client.EnqueueProposalGeneration(ctx, itineraryID)
}

func (c *queueCLI) Task(id string) (*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("queue cli: inspector not configured")
	}
	return c.inspector.GetTaskInfo(jobs.QueueDefault, id)
}
