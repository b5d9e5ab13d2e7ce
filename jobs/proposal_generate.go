package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tripdesk/tripdesk/internal/jobs"
	"github.com/tripdesk/tripdesk/internal/workspace"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ProposalService is the workspace surface the job drives.
type ProposalService interface {
	GenerateProposals(ctx context.Context, id int64) (workspace.GenerateResult, error)
	Evict(id int64)
}

// ProposalGenerationJob runs queued proposal rollups.
type ProposalGenerationJob struct {
	Service ProposalService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewProposalGenerationJob wires dependencies for the generation handler.
func NewProposalGenerationJob(service ProposalService, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProposalGenerationJob {
	return &ProposalGenerationJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes TaskProposalGenerate tasks.
func (j *ProposalGenerationJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("proposal generation: handler not configured")
	}
	var payload ProposalGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ItineraryID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskProposalGenerate)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("itinerary_id", payload.ItineraryID))
	// Always reload from the store: the API process owns edits.
	defer j.Service.Evict(payload.ItineraryID)

	result, err := j.Service.GenerateProposals(ctx, payload.ItineraryID)
	if err != nil {
		resultErr = err
		logger.Error("generate proposals", slog.Any("error", err))
		return resultErr
	}
	if len(result.Generated) == 0 {
		j.metrics().Skipped(TaskProposalGenerate, "no_pricing_data")
		logger.Info("proposal generation produced nothing", slog.String("message", result.Message))
		return resultErr
	}
	logger.Info("generated proposals", slog.Int("generated", len(result.Generated)), slog.Int("stored", result.Stored))
	return resultErr
}

func (j *ProposalGenerationJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskProposalGenerate))
	}
	return slog.Default().With(slog.String("job", TaskProposalGenerate))
}

func (j *ProposalGenerationJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
