package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/render"
)

// ClimogramBuilder produces a climogram for a validated request.
type ClimogramBuilder interface {
	Build(ctx context.Context, req domain.ClimogramRequest) (domain.Climogram, error)
}

// ClimogramTransformer implements Transformer: it turns a raw request message
// into a rendered climogram document.
type ClimogramTransformer struct {
	builder ClimogramBuilder
	logger  *slog.Logger
}

// NewTransformer creates a ClimogramTransformer.
func NewTransformer(builder ClimogramBuilder, logger *slog.Logger) *ClimogramTransformer {
	return &ClimogramTransformer{
		builder: builder,
		logger:  logger,
	}
}

func (t *ClimogramTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	doc, err := t.BuildDocument(ctx, req)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	return SerializeDocument(doc)
}

// BuildDocument builds and renders the climogram for req.
func (t *ClimogramTransformer) BuildDocument(ctx context.Context, req domain.ClimogramRequest) (render.Document, error) {
	cg, err := t.builder.Build(ctx, req)
	if err != nil {
		return render.Document{}, fmt.Errorf("build climogram %s: %w", req.ID, err)
	}
	t.logger.Debug("climogram built",
		"request_id", req.ID,
		"region", req.Region.ID,
		"records", len(cg.Records),
		"dropped_years", len(cg.DroppedYears),
	)
	return render.Render(cg), nil
}

// SerializeDocument marshals doc into an output event keyed by request ID.
func SerializeDocument(doc render.Document) (domain.OutputEvent, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize climogram: %w", err)
	}
	cg := doc.Climogram
	return domain.OutputEvent{
		Key:   []byte(cg.RequestID),
		Value: data,
		Headers: map[string]string{
			"region_id":    cg.Region.ID,
			"generated_at": cg.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}
