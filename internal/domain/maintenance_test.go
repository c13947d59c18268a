package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gorent/internal/domain"
)

// TestDamageTransitions verifica a máquina de estados dos laudos de dano.
func TestDamageTransitions(t *testing.T) {
	assert.NoError(t, domain.ValidateDamageTransition(domain.DamageReported, domain.DamageInspected))
	assert.NoError(t, domain.ValidateDamageTransition(domain.DamageReported, domain.DamageRepairable))
	assert.NoError(t, domain.ValidateDamageTransition(domain.DamageInspected, domain.DamageUnrepairable))
	assert.NoError(t, domain.ValidateDamageTransition(domain.DamageRepairable, domain.DamageRepaired))
	assert.NoError(t, domain.ValidateDamageTransition(domain.DamageUnrepairable, domain.DamageReplaced))
	assert.NoError(t, domain.ValidateDamageTransition(domain.DamageUnrepairable, domain.DamageWrittenOff))

	// Um laudo reparável não pode ser baixado nem substituído.
	assert.Error(t, domain.ValidateDamageTransition(domain.DamageRepairable, domain.DamageWrittenOff))
	assert.Error(t, domain.ValidateDamageTransition(domain.DamageRepairable, domain.DamageReplaced))
	// Resoluções são terminais.
	assert.Error(t, domain.ValidateDamageTransition(domain.DamageRepaired, domain.DamageReported))
	assert.Error(t, domain.ValidateDamageTransition(domain.DamageWrittenOff, domain.DamageInspected))
}

// TestDamageStatus_IsResolution verifica quais status encerram o laudo.
func TestDamageStatus_IsResolution(t *testing.T) {
	assert.True(t, domain.DamageRepaired.IsResolution())
	assert.True(t, domain.DamageReplaced.IsResolution())
	assert.True(t, domain.DamageWrittenOff.IsResolution())

	assert.False(t, domain.DamageReported.IsResolution())
	assert.False(t, domain.DamageInspected.IsResolution())
	assert.False(t, domain.DamageRepairable.IsResolution())
}

// TestSeverity_TakesEquipmentOutOfService verifica o corte entre severidades.
func TestSeverity_TakesEquipmentOutOfService(t *testing.T) {
	assert.True(t, domain.SeverityMajor.TakesEquipmentOutOfService())
	assert.True(t, domain.SeverityCritical.TakesEquipmentOutOfService())

	assert.False(t, domain.SeverityMinor.TakesEquipmentOutOfService())
	assert.False(t, domain.SeverityModerate.TakesEquipmentOutOfService())
}

// TestMaintenanceTransitions verifica a máquina de estados de manutenção.
func TestMaintenanceTransitions(t *testing.T) {
	assert.True(t, domain.MaintenanceScheduled.CanTransitionTo(domain.MaintenanceInProgress))
	assert.True(t, domain.MaintenanceScheduled.CanTransitionTo(domain.MaintenanceCancelled))
	assert.True(t, domain.MaintenanceInProgress.CanTransitionTo(domain.MaintenanceCompleted))

	assert.False(t, domain.MaintenanceCompleted.CanTransitionTo(domain.MaintenanceInProgress))
	assert.False(t, domain.MaintenanceCancelled.CanTransitionTo(domain.MaintenanceScheduled))
}
