package domain

import "time"

// LedgerAction é o tipo de ação registrada no Ledger de Auditoria.
type LedgerAction string

const (
	ActionStockIn     LedgerAction = "stock_in"
	ActionStockOut    LedgerAction = "stock_out"
	ActionUpdate      LedgerAction = "update"
	ActionMaintenance LedgerAction = "maintenance"
	ActionTransfer    LedgerAction = "transfer"
)

// IsValid indica se o valor pertence ao conjunto fechado de ações.
func (a LedgerAction) IsValid() bool {
	switch a {
	case ActionStockIn, ActionStockOut, ActionUpdate, ActionMaintenance, ActionTransfer:
		return true
	}
	return false
}

// LedgerEntry é um registro imutável de uma ação de mudança de estado sobre
// um equipamento. Entradas são write-once: nunca editadas nem deletadas.
// Invariante: QuantityAfter - QuantityBefore é exatamente o efeito líquido da ação.
type LedgerEntry struct {
	ID             string           `json:"id"`
	EquipmentID    string           `json:"equipment_id"`
	Action         LedgerAction     `json:"action"`
	QuantityBefore int              `json:"quantity_before"`
	QuantityAfter  int              `json:"quantity_after"`
	StatusBefore   EquipmentStatus  `json:"status_before"`
	StatusAfter    *EquipmentStatus `json:"status_after,omitempty"` // nulo quando a ação não muda status
	Reason         string           `json:"reason"`                 // obrigatório, texto livre
	ReferenceID    string           `json:"reference_id,omitempty"` // e.g., pedido ou manutenção vinculada
	ActorID        string           `json:"actor_id"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Delta é o efeito líquido da entrada sobre a quantidade.
func (e LedgerEntry) Delta() int {
	return e.QuantityAfter - e.QuantityBefore
}

// LedgerFilter define os filtros e a paginação da consulta ao Ledger.
type LedgerFilter struct {
	EquipmentID string
	Action      LedgerAction
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

// ReplayResult é o estado reconstruído de um equipamento a partir do fold
// de todas as suas entradas do Ledger, em ordem cronológica.
type ReplayResult struct {
	EquipmentID string          `json:"equipment_id"`
	Quantity    int             `json:"quantity"`
	Status      EquipmentStatus `json:"status"`
	Entries     int             `json:"entries"`
}

// ReplayLedger reconstrói quantidade e status finais a partir das entradas,
// assumindo entradas já ordenadas por CreatedAt. Serve para verificar que o
// registro armazenado e o Ledger contam a mesma história.
func ReplayLedger(equipmentID string, entries []LedgerEntry) ReplayResult {
	result := ReplayResult{EquipmentID: equipmentID}
	for _, e := range entries {
		result.Quantity += e.Delta()
		if e.StatusAfter != nil {
			result.Status = *e.StatusAfter
		} else if result.Status == "" {
			result.Status = e.StatusBefore
		}
		result.Entries++
	}
	return result
}
