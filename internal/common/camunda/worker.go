// internal/common/camunda/worker.go
package camunda

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"export-friction/internal/common/config"
	"export-friction/internal/common/logger"
)

const defaultMaxJobsActive = 16

// Worker is an open job subscription for one task type.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. The worker polls until Stop.
func NewWorker(client zbc.Client, taskType string, cfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) *Worker {
	maxJobs := cfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = defaultMaxJobsActive
	}

	step := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		Name("export-friction").
		MaxJobsActive(maxJobs)
	if timeout := config.GetDuration(cfg.Timeout); timeout > 0 {
		step = step.Timeout(timeout)
	}

	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	log.Info("worker started", map[string]interface{}{"maxJobsActive": maxJobs})

	return &Worker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
}

// Stop closes the subscription and waits for in-flight jobs. The Zeebe client
// stays open; its owner closes it.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
