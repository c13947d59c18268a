package domain

import "time"

// EquipmentMutation é o pedido de alteração coordenada de um equipamento.
// É o ÚNICO caminho permitido para alterar Quantity e Status: o repositório
// aplica o update do registro e a entrada do Ledger como uma unidade atômica
// (ambos persistem ou ambos são revertidos).
type EquipmentMutation struct {
	EquipmentID   string              `json:"equipment_id"`
	QuantityDelta *int                `json:"quantity_delta,omitempty"`
	NewStatus     *EquipmentStatus    `json:"new_status,omitempty"`
	NewCondition  *EquipmentCondition `json:"new_condition,omitempty"`
	Action        LedgerAction        `json:"action,omitempty"` // derivada do delta quando vazia
	Reason        string              `json:"reason"`           // obrigatório
	ReferenceID   string              `json:"reference_id,omitempty"`
	ActorID       string              `json:"actor_id"`

	// Carimbos de manutenção aplicados na mesma unidade atômica quando presentes
	// (conclusão de manutenção: lastMaintenance e próximo agendamento).
	SetLastMaintenance *time.Time `json:"-"`
	SetNextMaintenance *time.Time `json:"-"`
}

// HasChange indica se a mutação altera alguma coisa coordenada.
func (m EquipmentMutation) HasChange() bool {
	return (m.QuantityDelta != nil && *m.QuantityDelta != 0) || m.NewStatus != nil || m.NewCondition != nil
}

// ResolveAction deriva a ação do Ledger quando o chamador não a informa:
// delta positivo é stock_in, delta negativo é stock_out, só status é update.
func (m EquipmentMutation) ResolveAction() LedgerAction {
	if m.Action != "" {
		return m.Action
	}
	if m.QuantityDelta != nil {
		if *m.QuantityDelta > 0 {
			return ActionStockIn
		}
		if *m.QuantityDelta < 0 {
			return ActionStockOut
		}
	}
	return ActionUpdate
}

// MutationResult carrega os snapshots antes/depois de uma mutação bem-sucedida
// e a entrada de Ledger produzida por ela.
type MutationResult struct {
	Before Equipment   `json:"before"`
	After  Equipment   `json:"after"`
	Entry  LedgerEntry `json:"entry"`
}

// BatchMutationItem é o resultado individual de um item num lote de mutações.
type BatchMutationItem struct {
	EquipmentID   string `json:"equipment_id"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	QuantityAfter int    `json:"quantity_after,omitempty"`
}

// BatchMutationResult agrega os resultados por item de um lote.
// Itens que falham são pulados e reportados; o lote só aborta se TODOS falharem.
type BatchMutationResult struct {
	Results      []BatchMutationItem `json:"results"`
	SuccessCount int                 `json:"success_count"`
	FailCount    int                 `json:"fail_count"`
}
