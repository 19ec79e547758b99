// Package domain contains core business entities and types for the
// symptom-triage scoring engine: the deterministic mapping from a
// symptom-severity vector (plus optional lab-marker context) to a ranked set
// of candidate diseases with confidence scores.
package domain

import (
	"errors"
)

// Disease identifies one entry of the disease model table. Disease names are
// cross-referenced into every lookup table (weights, key symptoms, lexicon)
// at load time, so a typo surfaces as a construction error instead of a
// silent zero score.
type Disease string

const (
	Gastroenteritis Disease = "Gastroenteritis"
	Croup           Disease = "Croup"
	ScarletFever    Disease = "Scarlet Fever"
	Eczema          Disease = "Eczema"
	Asthma          Disease = "Asthma"
	Type1Diabetes   Disease = "Type 1 Diabetes"
	Bronchiolitis   Disease = "Bronchiolitis"
	Meningitis      Disease = "Meningitis"
	Influenza       Disease = "Influenza"
	Pneumonia       Disease = "Pneumonia"
	Chickenpox      Disease = "Chickenpox"
	Appendicitis    Disease = "Appendicitis"
	CommonCold      Disease = "Common Cold"

	// DiseaseUnknown is the canonical "undetermined" verdict returned when no
	// candidate clears the decision threshold. It is never a model table key.
	DiseaseUnknown Disease = "Unknown"
)

// Diseases returns the closed set of diseases known to the model table, in
// declaration order.
func Diseases() []Disease {
	return []Disease{
		Gastroenteritis, Croup, ScarletFever, Eczema, Asthma, Type1Diabetes,
		Bronchiolitis, Meningitis, Influenza, Pneumonia, Chickenpox,
		Appendicitis, CommonCold,
	}
}

// IsValid reports whether the disease belongs to the closed model set.
// DiseaseUnknown is deliberately excluded: it is a verdict, not a model entry.
func (d Disease) IsValid() bool {
	switch d {
	case Gastroenteritis, Croup, ScarletFever, Eczema, Asthma, Type1Diabetes,
		Bronchiolitis, Meningitis, Influenza, Pneumonia, Chickenpox,
		Appendicitis, CommonCold:
		return true
	default:
		return false
	}
}

// String returns the string representation of the disease name.
func (d Disease) String() string {
	return string(d)
}

// LabStatus is the abnormality flag attached to a lab marker reading by the
// upstream OCR/interpretation service.
type LabStatus string

const (
	LabStatusNormal LabStatus = "normal"
	LabStatusHigh   LabStatus = "high"
	LabStatusLow    LabStatus = "low"
	// LabStatusNone is the absent/empty status; readings carrying it are
	// treated as no-ops by the rule set.
	LabStatusNone LabStatus = ""
)

// IsValid reports whether the status is one the rule set understands.
func (s LabStatus) IsValid() bool {
	switch s {
	case LabStatusNormal, LabStatusHigh, LabStatusLow, LabStatusNone:
		return true
	default:
		return false
	}
}

// Abnormal reports whether the status can trigger lab marker rules.
func (s LabStatus) Abnormal() bool {
	return s == LabStatusHigh || s == LabStatusLow
}

// String returns the string representation of the lab status.
func (s LabStatus) String() string {
	return string(s)
}

// LabEffect labels the direction a matched lab rule pushed its diseases.
type LabEffect string

const (
	LabEffectBoost    LabEffect = "boost"
	LabEffectSuppress LabEffect = "suppress"
)

// Severity bounds for symptom vector entries. 0 means absent; the external
// extractor produces values in [1, MaxSeverity] for present symptoms.
const (
	SeverityAbsent = 0
	MaxSeverity    = 3
)

// Validation errors for triage data integrity.
var (
	ErrNotFound          = errors.New("not found")
	ErrVectorLength      = errors.New("symptom vector length does not match catalog")
	ErrModelTableInvalid = errors.New("invalid disease model table")
	ErrLabRuleInvalid    = errors.New("invalid lab marker rule")
	ErrUnknownDisease    = errors.New("unknown disease")
)
