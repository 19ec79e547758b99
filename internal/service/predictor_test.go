package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-triage-server/internal/domain"
)

// vec builds a catalog-aligned vector from a sparse severity map.
func vec(severities map[domain.SymptomCode]int) domain.SymptomVector {
	v := make(domain.SymptomVector, domain.CatalogLength())
	for code, s := range severities {
		v[domain.SymptomIndex(code)] = s
	}
	return v
}

func newTestPredictor(t *testing.T) *PredictorService {
	t.Helper()
	table, err := NewModelTable(DefaultDiseaseModels(), testLogger())
	require.NoError(t, err)
	return NewPredictorService(
		testLogger(),
		table,
		DefaultKeySymptomRules(),
		domain.DefaultLexicon(),
		DefaultEngineConfig(),
	)
}

func TestPredictVectorLengthContract(t *testing.T) {
	p := newTestPredictor(t)

	_, err := p.Predict(make(domain.SymptomVector, 5), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVectorLength))
}

func TestPredictAllZeroVectorIsUndetermined(t *testing.T) {
	p := newTestPredictor(t)

	result, err := p.Predict(make(domain.SymptomVector, domain.CatalogLength()), nil)
	require.NoError(t, err)

	assert.True(t, result.Undetermined())
	assert.Equal(t, domain.DiseaseUnknown, result.DiseaseName)
	assert.Empty(t, result.Slices)
	assert.Equal(t, "General Practitioner", result.Doctor)
}

func TestPredictCroupScenario(t *testing.T) {
	p := newTestPredictor(t)

	// Barking cough with stridor is the textbook croup presentation. The
	// stridor key rule boosts the raw score by 1.3.
	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.Stridor:             2,
		domain.Cough:               3,
		domain.RespiratoryDistress: 1,
	}), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.Croup, result.DiseaseName)
	assert.Equal(t, "Croup (Acute Laryngotracheitis)", result.DiseaseLabel)
	assert.Equal(t, "Pediatrician / Emergency (if choking)", result.Doctor)

	// score = 15*3 + 10*1 + 30*2 = 115, boosted to 149.5 over max 195.
	require.NotEmpty(t, result.Slices)
	assert.InDelta(t, 149.5/195.0, result.Slices[0].Score, 1e-9)

	// Pneumonia and bronchiolitis trail as respiratory alternatives.
	require.Len(t, result.Slices, 3)
	assert.Equal(t, domain.Pneumonia, result.Slices[1].Name)
	assert.Equal(t, domain.Bronchiolitis, result.Slices[2].Name)
}

func TestPredictMeningitisScenario(t *testing.T) {
	p := newTestPredictor(t)

	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.NeckStiffness: 3,
		domain.Fever:         2,
		domain.Headache:      2,
	}), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.Meningitis, result.DiseaseName)
	// score = 50*3 + 12*2 + 15*2 = 204 over max 315.
	assert.InDelta(t, 204.0/315.0, result.Slices[0].Score, 1e-9)
}

func TestPredictKeySymptomDampenBelowThreshold(t *testing.T) {
	p := newTestPredictor(t)

	// Mild abdominal pain alone: the appendicitis key rule requires severity
	// 2, so its score is dampened by 0.6 and nothing clears the threshold.
	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.AbdominalPain: 1,
	}), nil)
	require.NoError(t, err)

	assert.True(t, result.Undetermined())
}

func TestPredictKeySymptomBoostCrossesThreshold(t *testing.T) {
	p := newTestPredictor(t)

	// Severe abdominal pain satisfies the key rule: 20*2*1.3 = 52 over 99.
	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.AbdominalPain: 2,
	}), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.Appendicitis, result.DiseaseName)
	assert.InDelta(t, 52.0/99.0, result.Slices[0].Score, 1e-9)
}

func TestPredictZeroOverlapExclusion(t *testing.T) {
	p := newTestPredictor(t)

	// Only itching: exactly two diseases carry an itching weight. Every other
	// disease has zero symptom overlap and must not appear, lab data or not.
	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.Itching: 3,
	}), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.Eczema, result.DiseaseName)
	require.Len(t, result.Slices, 2)
	assert.Equal(t, domain.Chickenpox, result.Slices[1].Name)
}

func TestPredictBoundsAndSorting(t *testing.T) {
	p := newTestPredictor(t)

	// A broad symptom load touching many diseases.
	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.Fever:       3,
		domain.Cough:       3,
		domain.RunnyNose:   2,
		domain.SoreThroat:  2,
		domain.Headache:    1,
		domain.MuscleAches: 2,
	}), nil)
	require.NoError(t, err)
	require.False(t, result.Undetermined())

	assert.LessOrEqual(t, len(result.Slices), 3)
	for i, slice := range result.Slices {
		assert.GreaterOrEqual(t, slice.Score, 0.0)
		assert.LessOrEqual(t, slice.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Slices[i-1].Score, slice.Score, "slices must be sorted descending")
		}
	}
	assert.Equal(t, result.Slices[0].Name, result.DiseaseName)
}

func TestPredictLabAdjustmentRaisesScore(t *testing.T) {
	p := newTestPredictor(t)
	rules := newTestRuleSet(t)

	vector := vec(map[domain.SymptomCode]int{
		domain.Cough:               2,
		domain.Fever:               2,
		domain.RespiratoryDistress: 2,
	})

	baseline, err := p.Predict(vector, nil)
	require.NoError(t, err)

	lab := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "CRP", Status: domain.LabStatusHigh},
	})
	withLab, err := p.Predict(vector, lab)
	require.NoError(t, err)

	var basePneumonia, labPneumonia float64
	for _, s := range baseline.Slices {
		if s.Name == domain.Pneumonia {
			basePneumonia = s.Score
		}
	}
	for _, s := range withLab.Slices {
		if s.Name == domain.Pneumonia {
			labPneumonia = s.Score
		}
	}
	assert.Greater(t, labPneumonia, basePneumonia)
}

func TestPredictLabBoostClampedToOne(t *testing.T) {
	p := newTestPredictor(t)

	// Full-severity diabetes triad plus a large positive delta: the positive
	// delta raises the ceiling too, so the score stays at exactly 1.
	lab := &domain.LabContext{
		Adjustments: map[domain.Disease]float64{domain.Type1Diabetes: 50},
		Influences:  []domain.LabInfluence{},
		HasData:     true,
	}
	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.Polydipsia: 3,
		domain.Polyuria:   3,
		domain.WeightLoss: 3,
	}), lab)
	require.NoError(t, err)

	assert.Equal(t, domain.Type1Diabetes, result.DiseaseName)
	assert.InDelta(t, 1.0, result.Slices[0].Score, 1e-9)
}

func TestPredictNegativeLabDelta(t *testing.T) {
	p := newTestPredictor(t)

	vector := vec(map[domain.SymptomCode]int{
		domain.Itching: 3,
		domain.Rash:    2,
	})

	// A moderate suppression lowers only the score: eczema drops from 75/90
	// to 35/90 but keeps its slice.
	lab := &domain.LabContext{
		Adjustments: map[domain.Disease]float64{domain.Eczema: -40},
		Influences:  []domain.LabInfluence{},
		HasData:     true,
	}
	result, err := p.Predict(vector, lab)
	require.NoError(t, err)

	assert.Equal(t, domain.Chickenpox, result.DiseaseName)
	var eczemaScore float64
	for _, s := range result.Slices {
		if s.Name == domain.Eczema {
			eczemaScore = s.Score
		}
	}
	assert.InDelta(t, 35.0/90.0, eczemaScore, 1e-9)

	// An extreme suppression floors at zero instead of going negative.
	lab.Adjustments[domain.Eczema] = -1000
	result, err = p.Predict(vector, lab)
	require.NoError(t, err)
	for _, s := range result.Slices {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.NotEqual(t, domain.Eczema, s.Name, "a floored score ranks below every positive candidate")
	}
}

func TestPredictLabInfluenceFiltering(t *testing.T) {
	p := newTestPredictor(t)
	rules := newTestRuleSet(t)

	// Gastro presentation with an eosinophil reading: the eosinophil rule
	// touches only asthma, eczema, and bronchiolitis, none of which rank, so
	// the influence is dropped from the result.
	lab := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "Эозинофилы", Status: domain.LabStatusHigh},
	})
	require.True(t, lab.HasData)

	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.Diarrhea: 3,
		domain.Vomiting: 2,
	}), lab)
	require.NoError(t, err)

	assert.Equal(t, domain.Gastroenteritis, result.DiseaseName)
	assert.Empty(t, result.LabInfluences)
}

func TestPredictLabInfluenceKeptForTopCandidate(t *testing.T) {
	p := newTestPredictor(t)
	rules := newTestRuleSet(t)

	lab := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "CRP", Status: domain.LabStatusHigh},
	})
	result, err := p.Predict(vec(map[domain.SymptomCode]int{
		domain.Cough:               3,
		domain.Fever:               2,
		domain.RespiratoryDistress: 2,
	}), lab)
	require.NoError(t, err)
	require.False(t, result.Undetermined())

	require.Len(t, result.LabInfluences, 1)
	assert.Equal(t, domain.LabEffectBoost, result.LabInfluences[0].Effect)
}

func TestPredictIsPure(t *testing.T) {
	p := newTestPredictor(t)

	vector := vec(map[domain.SymptomCode]int{
		domain.Stridor: 2,
		domain.Cough:   3,
	})
	snapshot := make(domain.SymptomVector, len(vector))
	copy(snapshot, vector)

	first, err := p.Predict(vector, nil)
	require.NoError(t, err)
	second, err := p.Predict(vector, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same inputs must produce the same result")
	assert.Equal(t, snapshot, vector, "the engine must not mutate its input")
}

func TestPredictNilLabEqualsEmptyLab(t *testing.T) {
	p := newTestPredictor(t)

	vector := vec(map[domain.SymptomCode]int{domain.Stridor: 2, domain.Cough: 2})

	withNil, err := p.Predict(vector, nil)
	require.NoError(t, err)
	withEmpty, err := p.Predict(vector, domain.EmptyLabContext())
	require.NoError(t, err)

	assert.Equal(t, withNil, withEmpty)
}

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, 0.32, cfg.DecisionThreshold)
	assert.Equal(t, 1.3, cfg.KeySymptomBoost)
	assert.Equal(t, 0.6, cfg.KeySymptomDampen)
	assert.Equal(t, 3, cfg.MaxCandidates)
}
