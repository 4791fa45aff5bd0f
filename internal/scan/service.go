package scan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bioscanq/scanq/internal/metrics"
	"github.com/bioscanq/scanq/pkg/config"
	"github.com/bioscanq/scanq/pkg/domain"
)

// Service composes the Builder and Runner into the synchronous scan path.
type Service struct {
	builder *Builder
	runner  *Runner
	logger  *slog.Logger
}

func NewService(cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		builder: NewBuilder(cfg),
		runner:  NewRunner(),
		logger:  logger,
	}
}

// Run stages, executes, and cleans up a single scan. The scratch directory is
// removed on every path, including timeouts and staging failures.
func (s *Service) Run(ctx context.Context, req Request) (domain.ExecutionOutcome, error) {
	spec, cleanup, err := s.builder.Build(req)
	if err != nil {
		return domain.ExecutionOutcome{}, err
	}
	defer cleanup()

	start := time.Now()
	outcome := s.runner.Run(ctx, spec)
	elapsed := time.Since(start)

	label := strings.ToLower(string(outcome.Kind))
	metrics.ScanDurationSeconds.WithLabelValues(label).Observe(elapsed.Seconds())
	s.logger.Info("scan finished",
		"outcome", label,
		"exit_code", outcome.ExitCode,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return outcome, nil
}

// Timeout exposes the configured scan budget for error reporting.
func (s *Service) Timeout() time.Duration { return s.builder.timeout }
