package equipmentrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/cache"
)

// insertLedgerEntry grava uma entrada no audit_ledger dentro da transação
// corrente. Entradas são write-once: não existe UPDATE nem DELETE nesta tabela.
func insertLedgerEntry(ctx context.Context, tx *sql.Tx, entry domain.LedgerEntry) error {
	const insertSQL = `INSERT INTO audit_ledger
        (id, equipment_id, action, quantity_before, quantity_after,
         status_before, status_after, reason, reference_id, actor_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	var statusAfter interface{}
	if entry.StatusAfter != nil {
		statusAfter = string(*entry.StatusAfter)
	}

	// reference_id é UUID opcional: string vazia vira NULL, nunca ''.
	var referenceID interface{}
	if entry.ReferenceID != "" {
		referenceID = entry.ReferenceID
	}

	_, err := tx.ExecContext(ctx, insertSQL,
		entry.ID, entry.EquipmentID, entry.Action, entry.QuantityBefore, entry.QuantityAfter,
		entry.StatusBefore, statusAfter, entry.Reason, referenceID, entry.ActorID, entry.CreatedAt,
	)
	if err != nil {
		return apperror.NewDBError("Falha ao inserir entrada no Ledger", err)
	}
	return nil
}

// ApplyMutationTx aplica UMA mutação coordenada dentro de uma transação já
// aberta: carrega o registro com FOR UPDATE, valida as invariantes (quantidade
// nunca negativa, transição de status dentro da máquina), atualiza o registro
// com checagem de versão (OCC) e grava a entrada do Ledger. O chamador é dono
// do commit/rollback, o que permite que outros fluxos (entrega de pedido,
// lote de mutações) participem da mesma unidade atômica.
func ApplyMutationTx(ctx context.Context, tx *sql.Tx, mut domain.EquipmentMutation) (domain.MutationResult, error) {
	if mut.Reason == "" {
		return domain.MutationResult{}, apperror.NewValidationError("O motivo da mutação é obrigatório.")
	}
	if !mut.HasChange() && mut.SetLastMaintenance == nil {
		return domain.MutationResult{}, apperror.NewValidationError("A mutação precisa alterar quantidade, status ou condição.")
	}

	// 1. Carrega o registro atual bloqueando a linha na transação.
	const selectSQL = `SELECT ` + equipmentColumns + ` FROM equipment
                       WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	before, err := scanEquipment(tx.QueryRowContext(ctx, selectSQL, mut.EquipmentID))
	if err == sql.ErrNoRows {
		return domain.MutationResult{}, apperror.NewNotFoundError(fmt.Sprintf("Equipamento %s não encontrado.", mut.EquipmentID))
	}
	if err != nil {
		return domain.MutationResult{}, apperror.NewDBError("Falha ao buscar equipamento para mutação", err)
	}

	after := before

	// 2. Quantidade: rejeita antes de qualquer escrita se o resultado for negativo.
	if mut.QuantityDelta != nil {
		newQuantity := before.Quantity + *mut.QuantityDelta
		if newQuantity < 0 {
			return domain.MutationResult{}, apperror.NewInvariantError(fmt.Sprintf(
				"Mutação resultaria em quantidade negativa (%d%+d).", before.Quantity, *mut.QuantityDelta))
		}
		after.Quantity = newQuantity
	}

	// 3. Status: transição fora da máquina de estados é rejeitada, nunca coagida.
	var statusAfter *domain.EquipmentStatus
	if mut.NewStatus != nil {
		// Forçar retired/lost por mutação administrativa é sempre permitido,
		// exceto a partir de estados terminais.
		if err := domain.ValidateStatusTransition(before.Status, *mut.NewStatus); err != nil {
			return domain.MutationResult{}, apperror.NewInvariantError(err.Error())
		}
		after.Status = *mut.NewStatus
		statusAfter = mut.NewStatus
	}

	if mut.NewCondition != nil {
		if !mut.NewCondition.IsValid() {
			return domain.MutationResult{}, apperror.NewValidationError(fmt.Sprintf("Condição desconhecida: %q", *mut.NewCondition))
		}
		after.Condition = *mut.NewCondition
	}

	if mut.SetLastMaintenance != nil {
		after.LastMaintenance = mut.SetLastMaintenance
	}
	if mut.SetNextMaintenance != nil {
		after.NextMaintenance = mut.SetNextMaintenance
	}

	// 4. Atualiza o registro com checagem de versão (OCC). Com FOR UPDATE a
	// linha já está bloqueada; a versão fica como cinto de segurança extra.
	now := time.Now()
	const updateSQL = `
        UPDATE equipment
        SET quantity = $1, status = $2, condition = $3,
            last_maintenance = $4, next_maintenance = $5,
            version = $6, updated_at = $7
        WHERE id = $8 AND version = $9`

	result, err := tx.ExecContext(ctx, updateSQL,
		after.Quantity, after.Status, after.Condition,
		after.LastMaintenance, after.NextMaintenance,
		before.Version+1, now,
		before.ID, before.Version,
	)
	if err != nil {
		return domain.MutationResult{}, apperror.NewDBError("Falha ao atualizar equipamento", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.MutationResult{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		// O escritor concorrente venceu a corrida: o chamador deve reler e tentar de novo.
		return domain.MutationResult{}, apperror.NewConflictError("O equipamento foi modificado por outra operação. Tente novamente.")
	}

	after.Version = before.Version + 1
	after.UpdatedAt = now

	// 5. Entrada do Ledger na MESMA transação: nunca existe entrada sem
	// mutação do registro, nem mutação sem entrada.
	entry := domain.LedgerEntry{
		ID:             uuid.NewString(),
		EquipmentID:    before.ID,
		Action:         mut.ResolveAction(),
		QuantityBefore: before.Quantity,
		QuantityAfter:  after.Quantity,
		StatusBefore:   before.Status,
		StatusAfter:    statusAfter,
		Reason:         mut.Reason,
		ReferenceID:    mut.ReferenceID,
		ActorID:        mut.ActorID,
		CreatedAt:      now,
	}
	if err := insertLedgerEntry(ctx, tx, entry); err != nil {
		return domain.MutationResult{}, err
	}

	return domain.MutationResult{Before: before, After: after, Entry: entry}, nil
}

// ApplyMutation aplica uma mutação coordenada como unidade atômica própria:
// registro e entrada do Ledger persistem juntos ou são revertidos juntos.
func (r *EquipmentRepository) ApplyMutation(ctx context.Context, mut domain.EquipmentMutation) (domain.MutationResult, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.MutationResult{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	result, err := ApplyMutationTx(ctxTimeout, tx, mut)
	if err != nil {
		return domain.MutationResult{}, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return domain.MutationResult{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	// Invalidação do cache só depois do commit.
	r.invalidate(ctxTimeout, mut.EquipmentID)

	r.logger.Info("Mutação de equipamento aplicada com sucesso.", map[string]interface{}{
		"equipment_id": mut.EquipmentID,
		"action":       string(result.Entry.Action),
		"qty_before":   result.Entry.QuantityBefore,
		"qty_after":    result.Entry.QuantityAfter,
	})
	return result, nil
}

// ApplyBatch aplica um lote de mutações item a item, numa única unidade
// atômica para os itens que sucedem: itens inválidos (inexistentes, quantidade
// negativa, transição ilegal) são pulados e reportados como falha individual.
// O lote inteiro só aborta quando TODOS os itens falham.
func (r *EquipmentRepository) ApplyBatch(ctx context.Context, muts []domain.EquipmentMutation) (domain.BatchMutationResult, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.BatchMutationResult{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	var batch domain.BatchMutationResult
	var succeededIDs []string

	for _, mut := range muts {
		item := domain.BatchMutationItem{EquipmentID: mut.EquipmentID}

		// Falhas de item dentro da transação precisam de um SAVEPOINT: um erro
		// de SQL (e.g., violação de constraint) invalidaria a transação toda.
		savepoint := fmt.Sprintf("batch_item_%d", len(batch.Results))
		if _, err := tx.ExecContext(ctxTimeout, "SAVEPOINT "+savepoint); err != nil {
			return domain.BatchMutationResult{}, apperror.NewDBError("Falha ao criar savepoint", err)
		}

		result, err := ApplyMutationTx(ctxTimeout, tx, mut)
		if err != nil {
			if _, rbErr := tx.ExecContext(ctxTimeout, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
				return domain.BatchMutationResult{}, apperror.NewDBError("Falha ao reverter savepoint", rbErr)
			}
			item.Success = false
			item.Error = err.Error()
			batch.FailCount++
		} else {
			item.Success = true
			item.QuantityAfter = result.After.Quantity
			batch.SuccessCount++
			succeededIDs = append(succeededIDs, mut.EquipmentID)
		}
		batch.Results = append(batch.Results, item)
	}

	// Política de falha parcial: commit se pelo menos um item sucedeu.
	if batch.SuccessCount == 0 {
		return batch, apperror.NewValidationError("Todos os itens do lote falharam; nenhuma alteração foi aplicada.")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return domain.BatchMutationResult{}, apperror.NewDBError("Falha ao commitar transação do lote", commitErr)
	}

	for _, id := range succeededIDs {
		r.invalidate(ctxTimeout, id)
	}

	r.logger.Info("Lote de mutações aplicado.", map[string]interface{}{
		"success_count": batch.SuccessCount,
		"fail_count":    batch.FailCount,
	})
	return batch, nil
}

// invalidate remove a entrada de cache do equipamento após um commit.
func (r *EquipmentRepository) invalidate(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, CacheKey(id)); err != nil && err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao invalidar cache de equipamento.", map[string]interface{}{"equipment_id": id, "error": err.Error()})
	}
}
