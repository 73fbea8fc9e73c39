// internal/workers/friction/calculate-export-friction/handler.go
package calculateexportfriction

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/common/logger"
	"export-friction/internal/common/metrics"
	"export-friction/internal/friction"
)

const (
	TaskType = "calculate-export-friction"
)

// Calculator is satisfied by *friction.Service.
type Calculator interface {
	Calculate(ctx context.Context, origin string, req friction.Request) (*friction.Calculation, error)
}

type Handler struct {
	config       *Config
	calculator   Calculator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, calculator Calculator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		calculator:   calculator,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidParameterError("variables", err.Error()))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute scores the pair named by input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	productID := strings.TrimSpace(input.ProductID)
	countryID := strings.TrimSpace(input.CountryID)
	if productID == "" {
		return nil, apperrors.NewInvalidParameterError("productId", "productId is required")
	}
	if countryID == "" {
		return nil, apperrors.NewInvalidParameterError("countryId", "countryId is required")
	}

	calc, err := h.calculator.Calculate(ctx, "worker", friction.Request{
		ProductID:  productID,
		CountryID:  countryID,
		Parameters: input.rawParameters(),
	})
	if err != nil {
		return nil, err
	}

	res := calc.Result.Rounded()
	return &Output{
		OperationalFriction:  res.OperationalFriction,
		RelationalFriction:   res.RelationalFriction,
		FrictionIndex:        res.FrictionIndex,
		Confidence:           res.Confidence,
		Color:                string(res.Color),
		Tip:                  res.Tip,
		TipVariant:           string(res.TipVariant),
		DominantFactor:       string(res.DominantFactor),
		ParameterAdjustments: calc.Adjustments,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
