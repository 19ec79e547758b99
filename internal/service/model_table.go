package service

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
)

// ModelTable is the static, read-only disease weight table. It is built once
// at process start, validated against the symptom catalog, and shared by all
// in-flight requests without coordination.
type ModelTable struct {
	models map[domain.Disease]domain.DiseaseModel
	order  []domain.Disease
}

// NewModelTable validates and freezes a disease model set. A weight vector
// whose length does not match the catalog is a fatal configuration error:
// construction fails instead of silently truncating or padding.
func NewModelTable(models map[domain.Disease]domain.DiseaseModel, logger *logrus.Logger) (*ModelTable, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("model table: %w: no diseases", domain.ErrModelTableInvalid)
	}

	order := make([]domain.Disease, 0, len(models))
	for disease, model := range models {
		if !disease.IsValid() {
			return nil, fmt.Errorf("model table: %w: %q", domain.ErrUnknownDisease, disease)
		}
		if err := model.Validate(); err != nil {
			return nil, fmt.Errorf("model table: disease %q: %w", disease, err)
		}
		order = append(order, disease)
	}

	// Deterministic iteration order for scoring and tie-breaking.
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	logger.WithFields(logrus.Fields{
		"diseases":       len(models),
		"catalog_length": domain.CatalogLength(),
	}).Info("Initialized disease model table")

	return &ModelTable{models: models, order: order}, nil
}

// Model returns the weight model for a disease.
func (t *ModelTable) Model(d domain.Disease) (domain.DiseaseModel, bool) {
	m, ok := t.models[d]
	return m, ok
}

// Diseases returns the table's diseases in deterministic (sorted) order.
func (t *ModelTable) Diseases() []domain.Disease {
	return t.order
}

// Len returns the number of diseases in the table.
func (t *ModelTable) Len() int {
	return len(t.models)
}

// symptomWeights expands a sparse symptom→weight map into a full weight
// vector aligned to the catalog. Symptoms not listed get weight 0.
func symptomWeights(weights map[domain.SymptomCode]float64) []float64 {
	vec := make([]float64, domain.CatalogLength())
	for code, w := range weights {
		if idx := domain.SymptomIndex(code); idx >= 0 {
			vec[idx] = w
		}
	}
	return vec
}

// DefaultDiseaseModels returns the hand-authored weight table for the 13
// supported pediatric conditions. Weights encode how strongly each symptom
// argues for each disease; bias is reserved and not applied by the engine.
func DefaultDiseaseModels() map[domain.Disease]domain.DiseaseModel {
	return map[domain.Disease]domain.DiseaseModel{
		domain.Gastroenteritis: {
			Bias: 20.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.AbdominalPain: 10.0,
				domain.Dehydration:   5.0,
				domain.Diarrhea:      20.0, // dominant sign
				domain.Fever:         3.0,
				domain.Nausea:        5.0,
				domain.Vomiting:      10.0,
			}),
		},
		domain.Croup: {
			Bias: 15.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Cough:               15.0, // barking cough
				domain.Fever:               5.0,
				domain.RespiratoryDistress: 10.0,
				domain.SoreThroat:          5.0,
				domain.Stridor:             30.0, // dominant sign
			}),
		},
		domain.ScarletFever: {
			Bias: 5.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Fever:      8.0,
				domain.Rash:       25.0, // dominant sign
				domain.SoreThroat: 12.0,
			}),
		},
		domain.Eczema: {
			Bias: 15.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Itching: 15.0,
				domain.Rash:    15.0,
			}),
		},
		domain.Asthma: {
			Bias: 15.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.ChestPain:           5.0,
				domain.Cough:               5.0,
				domain.RespiratoryDistress: 12.0,
				domain.Wheezing:            22.0, // dominant sign
			}),
		},
		domain.Type1Diabetes: {
			Bias: 20.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Polydipsia: 8.0,
				domain.Polyuria:   8.0,
				domain.WeightLoss: 10.0,
			}),
		},
		domain.Bronchiolitis: {
			Bias: 12.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Cough:               12.0,
				domain.Fever:               5.0,
				domain.RespiratoryDistress: 5.0,
				domain.RunnyNose:           5.0,
				domain.Wheezing:            12.0,
			}),
		},
		domain.Meningitis: {
			Bias: 5.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Fever:         12.0,
				domain.Headache:      15.0,
				domain.Nausea:        5.0,
				domain.NeckStiffness: 50.0, // critical weight
				domain.Photophobia:   10.0,
				domain.Rash:          5.0,
				domain.Vomiting:      8.0,
			}),
		},
		domain.Influenza: {
			Bias: 15.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Cough:       10.0,
				domain.Fever:       12.0,
				domain.Headache:    5.0,
				domain.MuscleAches: 10.0,
				domain.RunnyNose:   5.0,
				domain.Sneezing:    3.0,
				domain.SoreThroat:  5.0,
			}),
		},
		domain.Pneumonia: {
			Bias: 10.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.ChestPain:           3.0,
				domain.Cough:               12.0,
				domain.Fever:               10.0,
				domain.RespiratoryDistress: 15.0,
				domain.Wheezing:            5.0,
			}),
		},
		domain.Chickenpox: {
			Bias: 12.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Fever:   3.0,
				domain.Itching: 15.0,
				domain.Rash:    15.0,
			}),
		},
		domain.Appendicitis: {
			Bias: 15.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.AbdominalPain: 20.0, // dominant sign
				domain.Fever:         3.0,
				domain.Nausea:        5.0,
				domain.Vomiting:      5.0,
			}),
		},
		domain.CommonCold: {
			Bias: 15.0,
			Weights: symptomWeights(map[domain.SymptomCode]float64{
				domain.Cough:      5.0,
				domain.Fever:      3.0,
				domain.Headache:   3.0,
				domain.RunnyNose:  15.0, // dominant sign
				domain.Sneezing:   10.0,
				domain.SoreThroat: 12.0,
			}),
		},
	}
}
