package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymptomVectorValidate(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"catalog length", CatalogLength(), false},
		{"empty", 0, true},
		{"too short", CatalogLength() - 1, true},
		{"too long", CatalogLength() + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make(SymptomVector, tt.length)
			err := v.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrVectorLength))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSymptomVectorSeverityOf(t *testing.T) {
	v := make(SymptomVector, CatalogLength())
	v[SymptomIndex(Fever)] = 2
	v[SymptomIndex(Stridor)] = 3

	assert.Equal(t, 2, v.SeverityOf(Fever))
	assert.Equal(t, 3, v.SeverityOf(Stridor))
	assert.Equal(t, 0, v.SeverityOf(Cough))
	assert.Equal(t, 0, v.SeverityOf(SymptomCode("NOT_A_SYMPTOM")))
	assert.Equal(t, 5, v.TotalSeverity())
}

func TestSymptomCatalogOrder(t *testing.T) {
	catalog := SymptomCatalog()
	require.Len(t, catalog, 23)

	// The catalog is alphabetical and index-stable; weight tables depend on it.
	assert.Equal(t, AbdominalPain, catalog[0])
	assert.Equal(t, Wheezing, catalog[22])
	for i, code := range catalog {
		assert.Equal(t, i, SymptomIndex(code))
		assert.True(t, code.IsValid())
	}
	assert.Equal(t, -1, SymptomIndex(SymptomCode("BOGUS")))
}

func TestDiseaseModelValidate(t *testing.T) {
	valid := DiseaseModel{Bias: 1, Weights: make([]float64, CatalogLength())}
	assert.NoError(t, valid.Validate())

	short := DiseaseModel{Weights: make([]float64, 3)}
	err := short.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelTableInvalid))

	negative := DiseaseModel{Weights: make([]float64, CatalogLength())}
	negative.Weights[5] = -1
	err = negative.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelTableInvalid))
}

func TestKeySymptomRuleSatisfied(t *testing.T) {
	rule := KeySymptomRule{Codes: []SymptomCode{AbdominalPain}, MinSeverity: 2}

	v := make(SymptomVector, CatalogLength())
	assert.False(t, rule.Satisfied(v))

	v[SymptomIndex(AbdominalPain)] = 1
	assert.False(t, rule.Satisfied(v), "below the severity floor")

	v[SymptomIndex(AbdominalPain)] = 2
	assert.True(t, rule.Satisfied(v))

	multi := KeySymptomRule{Codes: []SymptomCode{Rash, Itching}, MinSeverity: 1}
	v2 := make(SymptomVector, CatalogLength())
	v2[SymptomIndex(Itching)] = 1
	assert.True(t, multi.Satisfied(v2), "any listed code suffices")
}

func TestLabMarkerRuleValidate(t *testing.T) {
	valid := LabMarkerRule{
		Aliases:        []string{"crp"},
		Trigger:        LabStatusHigh,
		DirectionLabel: "Elevated",
		Effects:        []DiseaseDelta{{Disease: Pneumonia, Delta: 5}},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		rule LabMarkerRule
	}{
		{"no aliases", LabMarkerRule{Trigger: LabStatusHigh, Effects: valid.Effects}},
		{"normal trigger", LabMarkerRule{Aliases: []string{"crp"}, Trigger: LabStatusNormal, Effects: valid.Effects}},
		{"no effects", LabMarkerRule{Aliases: []string{"crp"}, Trigger: LabStatusHigh}},
		{"unknown disease", LabMarkerRule{
			Aliases: []string{"crp"},
			Trigger: LabStatusHigh,
			Effects: []DiseaseDelta{{Disease: Disease("Dragon Pox"), Delta: 1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.rule.Validate())
		})
	}
}

func TestLabStatusAbnormal(t *testing.T) {
	assert.True(t, LabStatusHigh.Abnormal())
	assert.True(t, LabStatusLow.Abnormal())
	assert.False(t, LabStatusNormal.Abnormal())
	assert.False(t, LabStatusNone.Abnormal())
}

func TestLabInfluenceTouches(t *testing.T) {
	inf := LabInfluence{Diseases: []Disease{Pneumonia, Meningitis}}

	assert.True(t, inf.Touches([]Disease{Meningitis}))
	assert.True(t, inf.Touches([]Disease{Croup, Pneumonia}))
	assert.False(t, inf.Touches([]Disease{Croup, Asthma}))
	assert.False(t, inf.Touches(nil))
}

func TestDiseaseIsValid(t *testing.T) {
	for _, d := range Diseases() {
		assert.True(t, d.IsValid(), d.String())
	}
	assert.False(t, DiseaseUnknown.IsValid(), "the undetermined verdict is not a model entry")
	assert.False(t, Disease("Dragon Pox").IsValid())
	assert.Len(t, Diseases(), 13)
}

func TestLexiconFallbacks(t *testing.T) {
	lex := Lexicon{
		Labels:                map[Disease]string{Croup: "Croup (Acute Laryngotracheitis)"},
		Doctors:               map[Disease]string{},
		Recommendations:       map[Disease]string{},
		DefaultDoctor:         "General Practitioner",
		DefaultRecommendation: "See a doctor.",
	}

	assert.Equal(t, "Croup (Acute Laryngotracheitis)", lex.Label(Croup))
	assert.Equal(t, "Pneumonia", lex.Label(Pneumonia), "missing label falls back to the disease name")
	assert.Equal(t, "General Practitioner", lex.Doctor(Pneumonia))
	assert.Equal(t, "See a doctor.", lex.Recommendation(Pneumonia))
}

func TestDefaultLexiconCoversAllDiseases(t *testing.T) {
	lex := DefaultLexicon()
	for _, d := range Diseases() {
		assert.Contains(t, lex.Labels, d)
		assert.Contains(t, lex.Doctors, d)
		assert.Contains(t, lex.Recommendations, d)
	}
	assert.NotEmpty(t, lex.UndeterminedLabel)
	assert.NotEmpty(t, lex.UndeterminedRecommendation)
}
