// Package health aggregates readiness probes for the pipeline's
// dependencies.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Status is the aggregate health verdict.
type Status string

const (
	// StatusHealthy means all dependencies answered.
	StatusHealthy Status = "healthy"

	// StatusDegraded means optional dependencies failed; classification
	// still works, possibly without LLM escalation.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means a required dependency failed.
	StatusUnhealthy Status = "unhealthy"
)

// Check is one dependency probe.
type Check struct {
	// Name identifies the dependency in the health payload.
	Name string

	// Required marks dependencies whose failure makes the whole
	// service unhealthy rather than degraded.
	Required bool

	// Probe returns an error when the dependency is down.
	Probe func(ctx context.Context) error
}

// CheckResult is one probe's outcome.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report is the aggregate health payload.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Checker runs dependency probes with a shared timeout.
type Checker struct {
	checks  []Check
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker creates a checker over the given probes.
func NewChecker(checks []Check, timeout time.Duration, logger *zap.Logger) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{checks: checks, timeout: timeout, logger: logger}
}

// Check probes every dependency and aggregates the verdict. A failed
// required probe yields unhealthy; a failed optional probe degrades.
func (c *Checker) Check(ctx context.Context) *Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report := &Report{
		Status: StatusHealthy,
		Checks: make(map[string]CheckResult, len(c.checks)),
	}

	for _, check := range c.checks {
		err := check.Probe(ctx)
		if err == nil {
			report.Checks[check.Name] = CheckResult{Status: StatusHealthy}
			continue
		}

		c.logger.Warn("health probe failed",
			zap.String("check", check.Name),
			zap.Bool("required", check.Required),
			zap.Error(err),
		)

		if check.Required {
			report.Checks[check.Name] = CheckResult{Status: StatusUnhealthy, Message: err.Error()}
			report.Status = StatusUnhealthy
		} else {
			report.Checks[check.Name] = CheckResult{Status: StatusDegraded, Message: err.Error()}
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}

	return report
}
