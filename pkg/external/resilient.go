package external

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/symptom-triage-server/internal/domain"
)

// newLLMBreaker builds the circuit breaker shared by both LLM call paths.
// The trip condition tolerates sporadic timeouts but opens fast when the
// provider is down.
func newLLMBreaker(name string, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// ResilientExtractor wraps a symptom extractor with a circuit breaker so a
// failing LLM provider degrades to a fast error instead of piling up
// timed-out requests.
type ResilientExtractor struct {
	inner   domain.SymptomExtractor
	breaker *gobreaker.CircuitBreaker
}

// NewResilientExtractor wraps an extractor with a circuit breaker.
func NewResilientExtractor(inner domain.SymptomExtractor, logger *logrus.Logger) *ResilientExtractor {
	return &ResilientExtractor{
		inner:   inner,
		breaker: newLLMBreaker("symptom-extractor", logger),
	}
}

// extractionResult carries the extractor's pair through the breaker's
// single-value Execute contract.
type extractionResult struct {
	vector domain.SymptomVector
	found  bool
}

// ExtractSymptoms delegates through the circuit breaker.
func (r *ResilientExtractor) ExtractSymptoms(ctx context.Context, text string) (domain.SymptomVector, bool, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		vector, found, err := r.inner.ExtractSymptoms(ctx, text)
		if err != nil {
			return nil, err
		}
		return extractionResult{vector: vector, found: found}, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, false, fmt.Errorf("symptom extraction unavailable (circuit breaker open)")
		}
		return nil, false, err
	}

	res := result.(extractionResult)
	return res.vector, res.found, nil
}

// Stats returns the breaker's current counts.
func (r *ResilientExtractor) Stats() gobreaker.Counts {
	return r.breaker.Counts()
}

// ResilientExplainer wraps an explanation generator with a circuit breaker.
// Callers already treat explanation failure as a degraded step, so an open
// breaker simply surfaces as an error they log and skip.
type ResilientExplainer struct {
	inner   domain.ExplanationGenerator
	breaker *gobreaker.CircuitBreaker
}

// NewResilientExplainer wraps an explainer with a circuit breaker.
func NewResilientExplainer(inner domain.ExplanationGenerator, logger *logrus.Logger) *ResilientExplainer {
	return &ResilientExplainer{
		inner:   inner,
		breaker: newLLMBreaker("explanation-generator", logger),
	}
}

// explanationResult carries the explainer's pair through the breaker.
type explanationResult struct {
	patient string
	doctor  string
}

// GenerateExplanations delegates through the circuit breaker.
func (r *ResilientExplainer) GenerateExplanations(ctx context.Context, result *domain.DiagnosisResult) (string, string, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		patient, doctor, err := r.inner.GenerateExplanations(ctx, result)
		if err != nil {
			return nil, err
		}
		return explanationResult{patient: patient, doctor: doctor}, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", "", fmt.Errorf("explanation generation unavailable (circuit breaker open)")
		}
		return "", "", err
	}

	res := out.(explanationResult)
	return res.patient, res.doctor, nil
}

// Stats returns the breaker's current counts.
func (r *ResilientExplainer) Stats() gobreaker.Counts {
	return r.breaker.Counts()
}
