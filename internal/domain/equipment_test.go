package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gorent/internal/domain"
)

// TestStatusTransitions_Allowed verifica as transições permitidas da máquina de estados.
func TestStatusTransitions_Allowed(t *testing.T) {
	allowed := []struct {
		from domain.EquipmentStatus
		to   domain.EquipmentStatus
	}{
		{domain.StatusAvailable, domain.StatusInUse},
		{domain.StatusAvailable, domain.StatusMaintenance},
		{domain.StatusAvailable, domain.StatusDamaged},
		{domain.StatusAvailable, domain.StatusRetired},
		{domain.StatusAvailable, domain.StatusLost},
		{domain.StatusInUse, domain.StatusAvailable},
		{domain.StatusInUse, domain.StatusDamaged},
		{domain.StatusMaintenance, domain.StatusAvailable},
		{domain.StatusDamaged, domain.StatusAvailable},
		{domain.StatusDamaged, domain.StatusRetired},
	}

	for _, tc := range allowed {
		assert.NoError(t, domain.ValidateStatusTransition(tc.from, tc.to),
			"transição %s -> %s deveria ser permitida", tc.from, tc.to)
	}
}

// TestStatusTransitions_Rejected verifica transições ilegais.
func TestStatusTransitions_Rejected(t *testing.T) {
	rejected := []struct {
		from domain.EquipmentStatus
		to   domain.EquipmentStatus
	}{
		{domain.StatusInUse, domain.StatusMaintenance},
		{domain.StatusMaintenance, domain.StatusInUse},
		{domain.StatusMaintenance, domain.StatusDamaged},
		{domain.StatusDamaged, domain.StatusInUse},
	}

	for _, tc := range rejected {
		assert.Error(t, domain.ValidateStatusTransition(tc.from, tc.to),
			"transição %s -> %s deveria ser rejeitada", tc.from, tc.to)
	}
}

// TestStatusTransitions_TerminalStates verifica que retired e lost são terminais.
func TestStatusTransitions_TerminalStates(t *testing.T) {
	targets := []domain.EquipmentStatus{
		domain.StatusAvailable, domain.StatusInUse, domain.StatusMaintenance,
		domain.StatusDamaged,
	}

	for _, target := range targets {
		assert.Error(t, domain.ValidateStatusTransition(domain.StatusRetired, target))
		assert.Error(t, domain.ValidateStatusTransition(domain.StatusLost, target))
	}
}

// TestStatusTransitions_SameStatus verifica que a transição para o mesmo status é rejeitada.
func TestStatusTransitions_SameStatus(t *testing.T) {
	assert.Error(t, domain.ValidateStatusTransition(domain.StatusAvailable, domain.StatusAvailable))
}

// TestStatusTransitions_UnknownStatus verifica que valores fora do conjunto fechado são rejeitados.
func TestStatusTransitions_UnknownStatus(t *testing.T) {
	assert.Error(t, domain.ValidateStatusTransition(domain.StatusAvailable, domain.EquipmentStatus("broken")))
}

// TestConditionForSeverity verifica o rebaixamento de condição por severidade de dano.
func TestConditionForSeverity(t *testing.T) {
	assert.Equal(t, domain.ConditionPoor, domain.ConditionForSeverity(domain.SeverityCritical, domain.ConditionExcellent))
	assert.Equal(t, domain.ConditionFair, domain.ConditionForSeverity(domain.SeverityMajor, domain.ConditionExcellent))
}

// TestUpgradeOneStep verifica a melhora de um degrau após reparo, limitada a good.
func TestUpgradeOneStep(t *testing.T) {
	assert.Equal(t, domain.ConditionFair, domain.ConditionPoor.UpgradeOneStep())
	assert.Equal(t, domain.ConditionGood, domain.ConditionFair.UpgradeOneStep())
	assert.Equal(t, domain.ConditionGood, domain.ConditionGood.UpgradeOneStep())
	assert.Equal(t, domain.ConditionExcellent, domain.ConditionExcellent.UpgradeOneStep())
}
