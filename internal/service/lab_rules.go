package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
)

// LabRuleSet is the static lab marker rule table. Rules match observed marker
// names by case-insensitive substring aliases and an abnormal direction, and
// translate matches into per-disease score deltas.
type LabRuleSet struct {
	rules  []domain.LabMarkerRule
	logger *logrus.Logger
}

// NewLabRuleSet validates and freezes a lab marker rule list.
func NewLabRuleSet(rules []domain.LabMarkerRule, logger *logrus.Logger) (*LabRuleSet, error) {
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("lab rule set: rule %d: %w", i, err)
		}
	}

	logger.WithField("rules", len(rules)).Info("Initialized lab marker rule set")

	return &LabRuleSet{rules: rules, logger: logger}, nil
}

// Rules returns the rule list in declaration order.
func (s *LabRuleSet) Rules() []domain.LabMarkerRule {
	return s.rules
}

// ApplyLabContext aggregates all matching rules over a list of lab readings
// into a per-request LabContext. Pure function over its inputs; unmatched or
// normal readings are silently skipped, and an empty input list is the
// explicit "no lab data" terminal case, not an error.
//
// Each rule applies at most once per call: two readings matching the same
// (first-alias, trigger) pair do not double-count the adjustment.
func (s *LabRuleSet) ApplyLabContext(items []domain.LabResultItem) *domain.LabContext {
	if len(items) == 0 {
		return domain.EmptyLabContext()
	}

	adjustments := map[domain.Disease]float64{}
	influences := []domain.LabInfluence{}
	seen := map[string]bool{} // "<first alias>:<trigger>"

	for _, item := range items {
		if !item.Status.Abnormal() {
			continue
		}

		for _, rule := range s.rules {
			if rule.Trigger != item.Status {
				continue
			}
			if !matchesAlias(item.Name, rule.Aliases) {
				continue
			}

			dedupeKey := rule.Aliases[0] + ":" + rule.Trigger.String()
			if seen[dedupeKey] {
				continue
			}
			seen[dedupeKey] = true

			affected := make([]domain.Disease, 0, len(rule.Effects))
			for _, eff := range rule.Effects {
				adjustments[eff.Disease] += eff.Delta
				affected = append(affected, eff.Disease)
			}

			// The first-declared delta labels the whole rule's effect, even
			// when later entries carry the opposite sign.
			firstDelta := rule.Effects[0].Delta
			effect := domain.LabEffectSuppress
			if firstDelta > 0 {
				effect = domain.LabEffectBoost
			}

			influences = append(influences, domain.LabInfluence{
				MarkerName: item.Name,
				Status:     item.Status,
				Direction:  rule.DirectionLabel,
				Effect:     effect,
				Diseases:   affected,
				Delta:      firstDelta,
			})
		}
	}

	return &domain.LabContext{
		Adjustments: adjustments,
		Influences:  influences,
		HasData:     len(influences) > 0,
	}
}

// matchesAlias reports whether any alias is a case-insensitive substring of
// the observed marker name.
func matchesAlias(markerName string, aliases []string) bool {
	normalized := strings.ToLower(markerName)
	for _, alias := range aliases {
		if strings.Contains(normalized, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

// DefaultLabRules returns the hand-authored lab marker rule table. Aliases
// cover the Russian and English marker names the upstream OCR service emits.
func DefaultLabRules() []domain.LabMarkerRule {
	return []domain.LabMarkerRule{
		// Inflammatory markers
		{
			Aliases:        []string{"лейкоцит", "wbc", "white blood", "белые кровяные"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Pneumonia, Delta: 5},
				{Disease: domain.Meningitis, Delta: 4},
				{Disease: domain.Appendicitis, Delta: 4},
				{Disease: domain.ScarletFever, Delta: 3},
				{Disease: domain.Influenza, Delta: 2},
			},
		},
		{
			Aliases:        []string{"лейкоцит", "wbc", "white blood"},
			Trigger:        domain.LabStatusLow,
			DirectionLabel: "Decreased",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Pneumonia, Delta: -3},
				{Disease: domain.Meningitis, Delta: -2},
			},
		},
		{
			Aliases:        []string{"соэ", "esr", "скорость оседания"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Pneumonia, Delta: 5},
				{Disease: domain.Meningitis, Delta: 4},
				{Disease: domain.ScarletFever, Delta: 4},
				{Disease: domain.Appendicitis, Delta: 3},
				{Disease: domain.Influenza, Delta: 2},
			},
		},
		{
			Aliases:        []string{"срб", "crp", "c-реактивный", "c реактивный"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Pneumonia, Delta: 5},
				{Disease: domain.Meningitis, Delta: 5},
				{Disease: domain.Appendicitis, Delta: 5},
				{Disease: domain.ScarletFever, Delta: 4},
			},
		},
		// Glucose / diabetes
		{
			Aliases:        []string{"глюкоз", "glucose", "сахар крови", "blood sugar"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Type1Diabetes, Delta: 7},
				{Disease: domain.Gastroenteritis, Delta: -2},
			},
		},
		{
			Aliases:        []string{"глюкоз", "glucose"},
			Trigger:        domain.LabStatusLow,
			DirectionLabel: "Decreased",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Type1Diabetes, Delta: 3},
			},
		},
		// Hemoglobin
		{
			Aliases:        []string{"гемоглоб", "hemoglobin", "haemoglobin", "hgb", "hb "},
			Trigger:        domain.LabStatusLow,
			DirectionLabel: "Decreased",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Influenza, Delta: -2},
				{Disease: domain.CommonCold, Delta: -2},
				{Disease: domain.Type1Diabetes, Delta: 2},
			},
		},
		// Platelets
		{
			Aliases:        []string{"тромбоцит", "platelet", "plt"},
			Trigger:        domain.LabStatusLow,
			DirectionLabel: "Decreased",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Meningitis, Delta: 3},
			},
		},
		// Eosinophils (allergy / asthma / eczema)
		{
			Aliases:        []string{"эозинофил", "eosinophil"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Asthma, Delta: 5},
				{Disease: domain.Eczema, Delta: 4},
				{Disease: domain.Bronchiolitis, Delta: 2},
			},
		},
		// IgE
		{
			Aliases:        []string{"иге", "ige", "immunoglobulin e"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Asthma, Delta: 4},
				{Disease: domain.Eczema, Delta: 5},
			},
		},
		// Procalcitonin
		{
			Aliases:        []string{"прокальцитонин", "procalcitonin", "pct"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Pneumonia, Delta: 6},
				{Disease: domain.Meningitis, Delta: 5},
				{Disease: domain.Appendicitis, Delta: 4},
				{Disease: domain.ScarletFever, Delta: 3},
			},
		},
		// Urine ketones
		{
			Aliases:        []string{"кетон", "ketone", "ацетон"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Type1Diabetes, Delta: 6},
			},
		},
		// Potassium
		{
			Aliases:        []string{"калий", "potassium", "k+"},
			Trigger:        domain.LabStatusLow,
			DirectionLabel: "Decreased",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Gastroenteritis, Delta: 3},
			},
		},
		// Cholesterol (mild general marker)
		{
			Aliases:        []string{"холестерин", "cholesterol"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Type1Diabetes, Delta: 2},
			},
		},
		// Bilirubin
		{
			Aliases:        []string{"билируб", "bilirubin"},
			Trigger:        domain.LabStatusHigh,
			DirectionLabel: "Elevated",
			Effects: []domain.DiseaseDelta{
				{Disease: domain.Gastroenteritis, Delta: 2},
			},
		},
	}
}
