package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-triage-server/internal/domain"
)

func newTestRuleSet(t *testing.T) *LabRuleSet {
	t.Helper()
	rules, err := NewLabRuleSet(DefaultLabRules(), testLogger())
	require.NoError(t, err)
	return rules
}

func TestNewLabRuleSetRejectsInvalidRules(t *testing.T) {
	bad := []domain.LabMarkerRule{
		{Aliases: []string{"crp"}, Trigger: domain.LabStatusNormal,
			Effects: []domain.DiseaseDelta{{Disease: domain.Pneumonia, Delta: 1}}},
	}
	_, err := NewLabRuleSet(bad, testLogger())
	assert.Error(t, err)
}

func TestApplyLabContextEmptyInput(t *testing.T) {
	rules := newTestRuleSet(t)

	ctx := rules.ApplyLabContext(nil)
	assert.False(t, ctx.HasData)
	assert.Empty(t, ctx.Adjustments)
	assert.Empty(t, ctx.Influences)

	ctx = rules.ApplyLabContext([]domain.LabResultItem{})
	assert.False(t, ctx.HasData)
}

func TestApplyLabContextSkipsNormalReadings(t *testing.T) {
	rules := newTestRuleSet(t)

	ctx := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "CRP", Status: domain.LabStatusNormal},
		{Name: "WBC", Status: domain.LabStatusNone},
	})

	assert.False(t, ctx.HasData)
	assert.Empty(t, ctx.Influences)
}

func TestApplyLabContextCRPElevated(t *testing.T) {
	rules := newTestRuleSet(t)

	// Cyrillic marker name matched case-insensitively by substring.
	ctx := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "СРБ (C-реактивный белок)", Value: "48", Unit: "mg/L", Status: domain.LabStatusHigh},
	})

	require.True(t, ctx.HasData)
	assert.Equal(t, 5.0, ctx.Adjustments[domain.Pneumonia])
	assert.Equal(t, 5.0, ctx.Adjustments[domain.Meningitis])
	assert.Equal(t, 5.0, ctx.Adjustments[domain.Appendicitis])
	assert.Equal(t, 4.0, ctx.Adjustments[domain.ScarletFever])

	require.Len(t, ctx.Influences, 1)
	inf := ctx.Influences[0]
	assert.Equal(t, "СРБ (C-реактивный белок)", inf.MarkerName)
	assert.Equal(t, "Elevated", inf.Direction)
	assert.Equal(t, domain.LabEffectBoost, inf.Effect)
	assert.Equal(t, 5.0, inf.Delta)
	assert.Contains(t, inf.Diseases, domain.Pneumonia)
}

func TestApplyLabContextEnglishAlias(t *testing.T) {
	rules := newTestRuleSet(t)

	ctx := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "C-Reactive Protein (CRP)", Status: domain.LabStatusHigh},
	})

	require.True(t, ctx.HasData)
	assert.Equal(t, 5.0, ctx.Adjustments[domain.Pneumonia])
}

func TestApplyLabContextDeduplicatesRules(t *testing.T) {
	rules := newTestRuleSet(t)

	// Two readings hitting the same (first alias, trigger) pair apply once.
	ctx := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "Лейкоциты", Status: domain.LabStatusHigh},
		{Name: "WBC count", Status: domain.LabStatusHigh},
	})

	assert.Equal(t, 5.0, ctx.Adjustments[domain.Pneumonia], "adjustment must not double-count")
	assert.Len(t, ctx.Influences, 1)
}

func TestApplyLabContextOppositeTriggersAreDistinct(t *testing.T) {
	rules := newTestRuleSet(t)

	// High and low WBC are separate rules with separate dedup keys.
	ctx := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "Глюкоза", Status: domain.LabStatusHigh},
		{Name: "Гемоглобин", Status: domain.LabStatusLow},
	})

	require.True(t, ctx.HasData)
	assert.Len(t, ctx.Influences, 2)
	// Glucose high boosts diabetes and suppresses gastroenteritis; both sum
	// into the adjustment map.
	assert.Equal(t, 7.0+2.0, ctx.Adjustments[domain.Type1Diabetes])
	assert.Equal(t, -2.0, ctx.Adjustments[domain.Gastroenteritis])
}

func TestApplyLabContextFirstEffectSignLabelsRule(t *testing.T) {
	rules := newTestRuleSet(t)

	// Glucose high: first effect is +7 for diabetes, so the influence reads
	// "boost" even though gastroenteritis is suppressed by the same rule.
	ctx := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "Glucose", Status: domain.LabStatusHigh},
	})

	require.Len(t, ctx.Influences, 1)
	assert.Equal(t, domain.LabEffectBoost, ctx.Influences[0].Effect)
	assert.Equal(t, 7.0, ctx.Influences[0].Delta)

	// Hemoglobin low: first effect is negative, so the label is "suppress".
	ctx = rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "Hemoglobin", Status: domain.LabStatusLow},
	})

	require.Len(t, ctx.Influences, 1)
	assert.Equal(t, domain.LabEffectSuppress, ctx.Influences[0].Effect)
	assert.Equal(t, "Decreased", ctx.Influences[0].Direction)
}

func TestApplyLabContextUnmatchedMarker(t *testing.T) {
	rules := newTestRuleSet(t)

	ctx := rules.ApplyLabContext([]domain.LabResultItem{
		{Name: "Vitamin D", Status: domain.LabStatusLow},
	})

	assert.False(t, ctx.HasData)
	assert.Empty(t, ctx.Adjustments)
}

func TestDefaultLabRulesAllValid(t *testing.T) {
	rules := DefaultLabRules()
	require.Len(t, rules, 14)
	for i, rule := range rules {
		assert.NoError(t, rule.Validate(), "rule %d", i)
	}
}
