package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gorent/internal/domain"
)

// TestClassifyStock_Boundaries verifica a classificação nas bordas do threshold.
func TestClassifyStock_Boundaries(t *testing.T) {
	cases := []struct {
		quantity int
		want     domain.StockAlertKind
		alerted  bool
	}{
		{0, domain.AlertOutOfStock, true},
		{-1, domain.AlertOutOfStock, true},
		{1, domain.AlertLowStock, true},
		{4, domain.AlertLowStock, true},
		{5, "", false}, // igual ao threshold é nominal
		{6, "", false},
	}

	for _, tc := range cases {
		kind, alerted := domain.ClassifyStock(tc.quantity, 5)
		assert.Equal(t, tc.alerted, alerted, "quantidade %d", tc.quantity)
		assert.Equal(t, tc.want, kind, "quantidade %d", tc.quantity)
	}
}

// TestDefaultReorderPolicy verifica os defaults da política de reposição.
func TestDefaultReorderPolicy(t *testing.T) {
	policy := domain.DefaultReorderPolicy("eq-1")

	assert.Equal(t, "eq-1", policy.EquipmentID)
	assert.Equal(t, 5, policy.Threshold)
	assert.Equal(t, 10, policy.ReorderQuantity)
	assert.False(t, policy.AutoReorder)
}
