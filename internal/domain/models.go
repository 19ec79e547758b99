package domain

import (
	"fmt"
)

// SymptomVector is an ordered severity sequence aligned to the symptom
// catalog: one entry per SymptomCode, each in [0, MaxSeverity], 0 meaning
// absent. It is produced externally per chat turn and treated as immutable
// once handed to the scoring engine.
type SymptomVector []int

// Validate checks the structural contract the engine depends on. Only the
// length is enforced here: severity range is owned by the extractor, and the
// engine must not re-validate it (see the external interface contract).
func (v SymptomVector) Validate() error {
	if len(v) != CatalogLength() {
		return fmt.Errorf("symptom vector validation: %w: got %d, want %d",
			ErrVectorLength, len(v), CatalogLength())
	}
	return nil
}

// TotalSeverity sums all entries. A total of zero is the "no symptoms at all"
// degenerate input resolving to the undetermined result.
func (v SymptomVector) TotalSeverity() int {
	total := 0
	for _, s := range v {
		total += s
	}
	return total
}

// SeverityOf returns the severity recorded for a symptom code, or 0 when the
// code is outside the catalog or the vector is short.
func (v SymptomVector) SeverityOf(code SymptomCode) int {
	idx := SymptomIndex(code)
	if idx < 0 || idx >= len(v) {
		return 0
	}
	return v[idx]
}

// DiseaseModel is one disease's static scoring model: a weight per catalog
// index plus a bias value.
//
// Bias is loaded and validated but NOT applied in the scoring formula. Both
// observed generations of the model data carry it without ever adding it to a
// score; it is kept as authored tuning headroom, not as an input.
type DiseaseModel struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// Validate enforces the load-time invariant: a weight vector misaligned with
// the catalog would silently corrupt every score, so it aborts construction.
func (m DiseaseModel) Validate() error {
	if len(m.Weights) != CatalogLength() {
		return fmt.Errorf("disease model validation: %w: %d weights, catalog has %d",
			ErrModelTableInvalid, len(m.Weights), CatalogLength())
	}
	for i, w := range m.Weights {
		if w < 0 {
			return fmt.Errorf("disease model validation: %w: negative weight %f at index %d",
				ErrModelTableInvalid, w, i)
		}
	}
	return nil
}

// KeySymptomRule marks a disease as having a pathognomonic sign: when any of
// the listed symptoms reaches MinSeverity the disease's raw score is boosted,
// otherwise dampened.
type KeySymptomRule struct {
	Codes       []SymptomCode `json:"codes"`
	MinSeverity int           `json:"min_severity"`
}

// Satisfied reports whether any listed symptom reaches the severity floor in
// the given vector.
func (r KeySymptomRule) Satisfied(v SymptomVector) bool {
	for _, code := range r.Codes {
		if v.SeverityOf(code) >= r.MinSeverity {
			return true
		}
	}
	return false
}

// DiseaseDelta is one (disease, signed score delta) pair in a lab rule's
// effect list. Effects are an ordered slice, not a map: the first-declared
// delta's sign labels the whole rule's influence record.
type DiseaseDelta struct {
	Disease Disease `json:"disease"`
	Delta   float64 `json:"delta"`
}

// LabMarkerRule maps lab markers matched by name aliases and abnormal
// direction to per-disease score deltas.
type LabMarkerRule struct {
	// Aliases are matched case-insensitively as substrings of the observed
	// marker name. The first alias also keys deduplication.
	Aliases []string `json:"aliases"`
	// Trigger is the abnormal direction that activates the rule.
	Trigger LabStatus `json:"trigger"`
	// DirectionLabel is the human-readable direction shown in influence
	// records, e.g. "Elevated".
	DirectionLabel string `json:"direction_label"`
	// Effects lists the per-disease deltas, in declaration order.
	Effects []DiseaseDelta `json:"effects"`
}

// Validate enforces rule well-formedness at load time.
func (r LabMarkerRule) Validate() error {
	if len(r.Aliases) == 0 {
		return fmt.Errorf("lab rule validation: %w: no aliases", ErrLabRuleInvalid)
	}
	if !r.Trigger.Abnormal() {
		return fmt.Errorf("lab rule validation: %w: trigger %q is not high/low",
			ErrLabRuleInvalid, r.Trigger)
	}
	if len(r.Effects) == 0 {
		return fmt.Errorf("lab rule validation: %w: no effects", ErrLabRuleInvalid)
	}
	for _, eff := range r.Effects {
		if !eff.Disease.IsValid() {
			return fmt.Errorf("lab rule validation: %w: %q", ErrUnknownDisease, eff.Disease)
		}
	}
	return nil
}

// LabResultItem is one lab marker reading as produced by the external
// OCR/interpretation service.
type LabResultItem struct {
	Name           string    `json:"name"`
	Value          string    `json:"value"`
	Unit           string    `json:"unit"`
	ReferenceRange string    `json:"reference_range"`
	Status         LabStatus `json:"status"`
}

// LabInfluence records one applied lab rule for display and audit: which
// marker, which direction, which diseases it shifted, and by how much.
//
// Effect reflects only the sign of the rule's first-declared delta. A rule
// mixing positive and negative deltas across diseases is labeled by its
// first entry.
type LabInfluence struct {
	MarkerName string    `json:"marker_name"`
	Status     LabStatus `json:"status"`
	Direction  string    `json:"direction"`
	Effect     LabEffect `json:"effect"`
	Diseases   []Disease `json:"diseases"`
	Delta      float64   `json:"delta"`
}

// Touches reports whether the influence affected any of the given diseases.
func (inf LabInfluence) Touches(diseases []Disease) bool {
	for _, d := range inf.Diseases {
		for _, top := range diseases {
			if d == top {
				return true
			}
		}
	}
	return false
}

// LabContext is the transient, per-request aggregation of lab marker rules:
// summed per-disease adjustments plus the ordered influence records. Built
// fresh each time lab data is available; never persisted by the engine.
type LabContext struct {
	Adjustments map[Disease]float64 `json:"adjustments"`
	Influences  []LabInfluence      `json:"influences"`
	HasData     bool                `json:"has_data"`
}

// EmptyLabContext returns the canonical "no lab data" context. The engine
// treats a nil context identically.
func EmptyLabContext() *LabContext {
	return &LabContext{
		Adjustments: map[Disease]float64{},
		Influences:  []LabInfluence{},
		HasData:     false,
	}
}

// DiseaseSlice is one ranked candidate in a diagnosis result. Score is the
// normalized confidence in [0, 1].
type DiseaseSlice struct {
	Name  Disease `json:"name"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// DiagnosisResult is the engine's output bundle, handed downstream for
// explanation generation, display, and optional persistence. The engine never
// mutates it after return.
type DiagnosisResult struct {
	DiseaseName    Disease        `json:"disease_name"`
	DiseaseLabel   string         `json:"disease_label"`
	Doctor         string         `json:"doctor"`
	Recommendation string         `json:"recommendation"`
	Slices         []DiseaseSlice `json:"slices"`

	PatientExplanation string `json:"patient_explanation,omitempty"`
	DoctorExplanation  string `json:"doctor_explanation,omitempty"`

	LabInfluences []LabInfluence `json:"lab_influences,omitempty"`
}

// Undetermined reports whether the result is the canonical fallback verdict.
func (r *DiagnosisResult) Undetermined() bool {
	return r.DiseaseName == DiseaseUnknown
}
