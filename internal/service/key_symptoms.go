package service

import (
	"github.com/symptom-triage-server/internal/domain"
)

// DefaultKeySymptomRules returns the pathognomonic-sign table: the small
// subset of diseases whose confidence shifts strongly on one specific
// symptom. Diseases absent from this table are scored with multiplier 1.
func DefaultKeySymptomRules() map[domain.Disease]domain.KeySymptomRule {
	return map[domain.Disease]domain.KeySymptomRule{
		// Acute localized pain is the defining appendicitis presentation.
		domain.Appendicitis: {
			Codes:       []domain.SymptomCode{domain.AbdominalPain},
			MinSeverity: 2,
		},
		// Pronounced rash for the exanthematous diseases.
		domain.Chickenpox: {
			Codes:       []domain.SymptomCode{domain.Rash},
			MinSeverity: 2,
		},
		domain.ScarletFever: {
			Codes:       []domain.SymptomCode{domain.Rash},
			MinSeverity: 2,
		},
		// Any stridor at all strongly suggests croup.
		domain.Croup: {
			Codes:       []domain.SymptomCode{domain.Stridor},
			MinSeverity: 1,
		},
	}
}
