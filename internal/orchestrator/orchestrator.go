// Package orchestrator runs the full complaint pipeline: classify the
// text, route it to the responsible service, and draft the appeal
// letter.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/appeal"
	"github.com/lvivdigital/zvernennia/internal/classify"
	"github.com/lvivdigital/zvernennia/internal/events"
	"github.com/lvivdigital/zvernennia/internal/resolver"
)

const tracerName = "zvernennia.orchestrator"

// Solution is the assembled answer for one complaint.
type Solution struct {
	// ID identifies the complaint across logs and events.
	ID string `json:"id"`

	// Text is the complaint as classified, after transcription for
	// voice complaints.
	Text string `json:"text"`

	Classification *classify.Result     `json:"classification"`
	Resolution     *resolver.Resolution `json:"resolution"`

	// Letter is nil for irrelevant complaints.
	Letter *appeal.Letter `json:"letter,omitempty"`
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	classifier classify.Classifier
	resolver   *resolver.Resolver
	drafter    *appeal.Drafter
	publisher  events.Publisher
	logger     *zap.Logger
	tracer     trace.Tracer
}

// New creates an orchestrator. publisher may be nil; events are then
// discarded.
func New(
	classifier classify.Classifier,
	res *resolver.Resolver,
	drafter *appeal.Drafter,
	publisher events.Publisher,
	logger *zap.Logger,
) *Orchestrator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		classifier: classifier,
		resolver:   res,
		drafter:    drafter,
		publisher:  publisher,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Solve runs the full pipeline for one complaint text.
//
// Irrelevant texts stop after classification: they get no routing and
// no letter. A failed letter draft degrades the solution rather than
// failing it, since classification and routing already carry value.
func (o *Orchestrator) Solve(ctx context.Context, text string) (*Solution, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, classify.ErrEmptyText
	}

	id := uuid.NewString()
	ctx, span := o.tracer.Start(ctx, "orchestrator.solve",
		trace.WithAttributes(attribute.String("complaint.id", id)))
	defer span.End()

	start := time.Now()

	classification, err := o.classifier.Classify(ctx, text)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("classifying complaint: %w", err)
	}
	span.SetAttributes(
		attribute.String("complaint.category", classification.CategoryID),
		attribute.Float64("complaint.confidence", classification.Confidence),
		attribute.Bool("complaint.urgent", classification.IsUrgent),
	)

	solution := &Solution{
		ID:             id,
		Text:           text,
		Classification: classification,
	}

	if !classification.IsRelevant {
		o.logger.Info("complaint not relevant, skipping routing",
			zap.String("complaint_id", id),
		)
		return solution, nil
	}

	resolution, err := o.resolver.Resolve(ctx, text, classification.CategoryID, classification.IsUrgent)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("routing complaint: %w", err)
	}
	solution.Resolution = resolution
	span.SetAttributes(attribute.String("complaint.service", resolution.ServiceName))

	letter, err := o.drafter.Draft(ctx, appeal.Request{
		Complaint:    text,
		ServiceName:  resolution.ServiceName,
		CategoryName: classification.CategoryName,
		Address:      formatAddress(resolution.Address),
	})
	if err != nil {
		span.RecordError(err)
		o.logger.Warn("appeal letter draft failed, returning solution without letter",
			zap.String("complaint_id", id),
			zap.Error(err),
		)
	} else {
		solution.Letter = letter
	}

	o.publishClassified(ctx, solution)

	o.logger.Info("complaint solved",
		zap.String("complaint_id", id),
		zap.String("category", classification.CategoryID),
		zap.String("service", resolution.ServiceName),
		zap.Bool("is_urgent", classification.IsUrgent),
		zap.Bool("has_letter", solution.Letter != nil),
		zap.Duration("duration", time.Since(start)),
	)

	return solution, nil
}

// publishClassified emits the lifecycle event. Publishing failures are
// logged, never surfaced to the citizen.
func (o *Orchestrator) publishClassified(ctx context.Context, s *Solution) {
	event := events.ClassifiedEvent{
		ID:         s.ID,
		CategoryID: s.Classification.CategoryID,
		Confidence: s.Classification.Confidence,
		IsUrgent:   s.Classification.IsUrgent,
		Timestamp:  time.Now().UTC(),
	}
	if s.Resolution != nil {
		event.ServiceName = s.Resolution.ServiceName
	}

	if err := o.publisher.PublishClassified(ctx, event); err != nil {
		o.logger.Warn("publishing classified event failed",
			zap.String("complaint_id", s.ID),
			zap.Error(err),
		)
	}
}

func formatAddress(addr *resolver.Address) string {
	if addr == nil {
		return ""
	}
	if addr.Number == "" {
		return fmt.Sprintf("вулиця %s", addr.Street)
	}
	return fmt.Sprintf("вулиця %s, %s", addr.Street, addr.Number)
}
