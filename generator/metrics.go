package generator

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Service is the generation service contract implemented by Agent.
type Service interface {
	GenerateContent(ctx context.Context, kind InputType, value string) (TextContent, error)
	GenerateImagePromptFromText(ctx context.Context, text string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

var _ Service = (*Agent)(nil)

const (
	opContent = "content"
	opPrompt  = "image_prompt"
	opImage   = "image"
)

// InstrumentedService records prometheus metrics around every call.
type InstrumentedService struct {
	next     Service
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Instrument wraps next and registers its collectors on reg.
func Instrument(next Service, reg prometheus.Registerer) (*InstrumentedService, error) {
	if next == nil {
		return nil, errors.New("generation service is required")
	}
	s := &InstrumentedService{
		next: next,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccreator",
			Name:      "generation_requests_total",
			Help:      "Generation service calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ccreator",
			Name:      "generation_duration_seconds",
			Help:      "Generation service call latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"operation"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{s.requests, s.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *InstrumentedService) observe(op string, start time.Time, err error) {
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "success"
	switch {
	case errors.Is(err, ErrContentBlocked):
		outcome = "blocked"
	case err != nil:
		outcome = "error"
	}
	s.requests.WithLabelValues(op, outcome).Inc()
}

func (s *InstrumentedService) GenerateContent(ctx context.Context, kind InputType, value string) (TextContent, error) {
	start := time.Now()
	out, err := s.next.GenerateContent(ctx, kind, value)
	s.observe(opContent, start, err)
	return out, err
}

func (s *InstrumentedService) GenerateImagePromptFromText(ctx context.Context, text string) (string, error) {
	start := time.Now()
	out, err := s.next.GenerateImagePromptFromText(ctx, text)
	s.observe(opPrompt, start, err)
	return out, err
}

func (s *InstrumentedService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := s.next.GenerateImage(ctx, prompt)
	s.observe(opImage, start, err)
	return out, err
}
