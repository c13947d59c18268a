package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"gorent/internal/domain"
)

func statusPtr(s domain.EquipmentStatus) *domain.EquipmentStatus {
	return &s
}

// TestLedgerEntry_Delta verifica a derivação do delta a partir de before/after.
func TestLedgerEntry_Delta(t *testing.T) {
	entry := domain.LedgerEntry{QuantityBefore: 10, QuantityAfter: 4}
	assert.Equal(t, -6, entry.Delta())

	entry = domain.LedgerEntry{QuantityBefore: 4, QuantityAfter: 11}
	assert.Equal(t, 7, entry.Delta())
}

// TestReplayLedger_RebuildsQuantityAndStatus verifica que o replay das
// entradas reconstrói o estado final do equipamento.
func TestReplayLedger_RebuildsQuantityAndStatus(t *testing.T) {
	equipmentID := uuid.New().String()

	entries := []domain.LedgerEntry{
		{
			EquipmentID:    equipmentID,
			Action:         domain.ActionStockIn,
			QuantityBefore: 0,
			QuantityAfter:  10,
			StatusBefore:   domain.StatusAvailable,
		},
		{
			EquipmentID:    equipmentID,
			Action:         domain.ActionStockOut,
			QuantityBefore: 10,
			QuantityAfter:  4,
			StatusBefore:   domain.StatusAvailable,
		},
		{
			EquipmentID:    equipmentID,
			Action:         domain.ActionUpdate,
			QuantityBefore: 4,
			QuantityAfter:  4,
			StatusBefore:   domain.StatusAvailable,
			StatusAfter:    statusPtr(domain.StatusMaintenance),
		},
	}

	result := domain.ReplayLedger(equipmentID, entries)

	assert.Equal(t, equipmentID, result.EquipmentID)
	assert.Equal(t, 4, result.Quantity)
	assert.Equal(t, domain.StatusMaintenance, result.Status)
	assert.Equal(t, 3, result.Entries)
}

// TestReplayLedger_Empty verifica o replay de um equipamento sem histórico.
func TestReplayLedger_Empty(t *testing.T) {
	result := domain.ReplayLedger("x", nil)

	assert.Equal(t, 0, result.Quantity)
	assert.Equal(t, 0, result.Entries)
}

// TestResolveAction verifica a derivação da ação a partir do delta.
func TestResolveAction(t *testing.T) {
	up := 5
	down := -3

	assert.Equal(t, domain.ActionStockIn, domain.EquipmentMutation{QuantityDelta: &up}.ResolveAction())
	assert.Equal(t, domain.ActionStockOut, domain.EquipmentMutation{QuantityDelta: &down}.ResolveAction())
	assert.Equal(t, domain.ActionUpdate, domain.EquipmentMutation{NewStatus: statusPtr(domain.StatusInUse)}.ResolveAction())

	// Ação explícita sempre vence a derivada.
	assert.Equal(t, domain.ActionMaintenance,
		domain.EquipmentMutation{QuantityDelta: &up, Action: domain.ActionMaintenance}.ResolveAction())
}
