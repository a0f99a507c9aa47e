package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var cleanupRun = func() {}

// spanRecord is one line of the --trace output.
type spanRecord struct {
	Name       string            `json:"name"`
	SpanID     string            `json:"span_id"`
	ParentID   string            `json:"parent_id,omitempty"`
	StartNS    int64             `json:"start_ns"`
	DurationMS float64           `json:"duration_ms"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Status     string            `json:"status,omitempty"`
}

// jsonlExporter writes finished spans as JSON lines.
type jsonlExporter struct {
	mu  sync.Mutex
	enc *json.Encoder
	out io.Closer
}

func (e *jsonlExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range spans {
		rec := spanRecord{
			Name:       s.Name(),
			SpanID:     s.SpanContext().SpanID().String(),
			StartNS:    s.StartTime().UnixNano(),
			DurationMS: float64(s.EndTime().Sub(s.StartTime()).Microseconds()) / 1000,
		}
		if p := s.Parent(); p.IsValid() {
			rec.ParentID = p.SpanID().String()
		}
		if attrs := s.Attributes(); len(attrs) > 0 {
			rec.Attributes = make(map[string]string, len(attrs))
			for _, kv := range attrs {
				rec.Attributes[string(kv.Key)] = kv.Value.Emit()
			}
		}
		if desc := s.Status().Description; desc != "" {
			rec.Status = desc
		}
		if err := e.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func (e *jsonlExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out.Close()
}

// setupTracing installs a tracer provider when --trace names a file and
// returns the function that flushes and closes it.
func setupTracing(cmd *cobra.Command) (func(), error) {
	path, err := cmd.Root().PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	if path == "" {
		return func() {}, nil
	}
	f, err := os.Create(path) // #nosec G304 -- path is provided by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	exp := &jsonlExporter{enc: json.NewEncoder(f), out: f}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	otel.SetTracerProvider(tp)
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "tyck: trace: %v\n", err)
		}
	}, nil
}
