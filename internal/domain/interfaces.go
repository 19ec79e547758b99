package domain

import (
	"context"
)

// Predictor is the scoring engine's function-call contract: a pure mapping
// from one symptom vector (plus optional lab context, nil meaning "no lab
// data") to a ranked diagnosis. Safe for concurrent use.
type Predictor interface {
	Predict(vector SymptomVector, lab *LabContext) (*DiagnosisResult, error)
}

// LabInterpreter builds a per-request LabContext from raw lab marker
// readings. Pure; an empty input list yields the canonical empty context.
type LabInterpreter interface {
	ApplyLabContext(items []LabResultItem) *LabContext
}

// SymptomExtractor is the external text-to-vector collaborator: it parses
// free-text symptom descriptions into a catalog-aligned severity vector.
// found is false when the text contains no recognizable symptoms.
type SymptomExtractor interface {
	ExtractSymptoms(ctx context.Context, text string) (vector SymptomVector, found bool, err error)
}

// ExplanationGenerator is the external prose collaborator: it turns a
// diagnosis result into patient-facing and doctor-facing explanations.
type ExplanationGenerator interface {
	GenerateExplanations(ctx context.Context, result *DiagnosisResult) (patient string, doctor string, err error)
}

// ConfigManager provides access to application configuration.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	Validate() error
}
