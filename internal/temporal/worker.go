package temporal

import (
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/cobaltwave/deepresearch/internal/activities"
	"github.com/cobaltwave/deepresearch/internal/logadapter"
	"github.com/cobaltwave/deepresearch/internal/workflows"
)

// TaskQueue is the Temporal task queue the research worker polls.
const TaskQueue = "research-loop"

// WorkerConfig bundles what NewWorker needs to connect and register.
type WorkerConfig struct {
	HostPort  string // e.g. "localhost:7233"
	Namespace string
	Logger    *zap.Logger
}

// NewWorker dials Temporal and returns a worker with ResearchWorkflow and
// every Activities method registered against TaskQueue, ready for Run.
func NewWorker(cfg WorkerConfig, acts *activities.Activities) (worker.Worker, client.Client, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    logadapter.NewZapAdapter(logger),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial temporal: %w", err)
	}

	w := worker.New(c, TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ResearchWorkflow)
	w.RegisterActivity(acts)

	return w, c, nil
}
