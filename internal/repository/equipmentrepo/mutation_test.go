package equipmentrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/repository/equipmentrepo"
)

// fakeCache é um cache.Client de memória para os testes de repositório.
type fakeCache struct{}

func (fakeCache) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (fakeCache) GetInt(ctx context.Context, key string) (int, error) { return 0, nil }
func (fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (fakeCache) Incr(ctx context.Context, key string) error   { return nil }
func (fakeCache) Delete(ctx context.Context, key string) error { return nil }

func newRepoWithMock(t *testing.T) (*equipmentrepo.EquipmentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("falha ao criar o mock de DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := equipmentrepo.NewEquipmentRepository(db, fakeCache{}, 5*time.Second, logger.NewLogger("error"))
	return repo, mock
}

// equipmentRow monta uma linha de equipamento com as 19 colunas do SELECT.
func equipmentRow(id string, quantity int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "category", "unit_price", "quantity", "is_active", "status", "condition",
		"last_maintenance", "next_maintenance", "maintenance_interval_days",
		"serial_number", "barcode", "location", "purchase_date",
		"version", "created_at", "updated_at", "deleted_at",
	}).AddRow(
		id, "Barraca de Camping", "camping", "120.00", quantity, true, "available", "good",
		nil, nil, 90,
		"", "", "", nil,
		1, now, now, nil,
	)
}

// TestApplyMutation_Fail_QuantidadeNegativa testa que uma mutação cujo delta
// deixaria a quantidade negativa é rejeitada ANTES de qualquer escrita: nenhum
// UPDATE, nenhuma entrada no Ledger, transação revertida.
func TestApplyMutation_Fail_QuantidadeNegativa(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(equipmentRow("eq-1", 4))
	mock.ExpectRollback()

	delta := -5
	_, err := repo.ApplyMutation(context.Background(), domain.EquipmentMutation{
		EquipmentID:   "eq-1",
		QuantityDelta: &delta,
		Reason:        "Saída para locação",
		ActorID:       "user-1",
	})

	assert.Error(t, err)
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, "INVARIANT_VIOLATION", appErr.Category())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestApplyMutation_Success_ReferenciaVaziaViraNULL testa que uma mutação sem
// referência grava NULL na coluna reference_id do Ledger, nunca string vazia.
func TestApplyMutation_Success_ReferenciaVaziaViraNULL(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(equipmentRow("eq-1", 10))
	mock.ExpectExec("UPDATE equipment").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_ledger").
		WithArgs(sqlmock.AnyArg(), "eq-1", "stock_out", 10, 4,
			sqlmock.AnyArg(), sqlmock.AnyArg(), "Saída para locação", nil, "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	delta := -6
	result, err := repo.ApplyMutation(context.Background(), domain.EquipmentMutation{
		EquipmentID:   "eq-1",
		QuantityDelta: &delta,
		Reason:        "Saída para locação",
		ActorID:       "user-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, 10, result.Entry.QuantityBefore)
	assert.Equal(t, 4, result.Entry.QuantityAfter)
	assert.Empty(t, result.Entry.ReferenceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestApplyBatch_Success_FalhaParcial testa a política de falha parcial do
// lote: N-1 itens válidos + 1 inválido commitam os N-1 e reportam a falha
// individual, com rollback de savepoint apenas no item que falhou.
func TestApplyBatch_Success_FalhaParcial(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()

	// Item 0 sucede.
	mock.ExpectExec("SAVEPOINT batch_item_0").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(equipmentRow("eq-1", 10))
	mock.ExpectExec("UPDATE equipment").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_ledger").WillReturnResult(sqlmock.NewResult(0, 1))

	// Item 1 não existe: reverte só o savepoint dele.
	mock.ExpectExec("SAVEPOINT batch_item_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT batch_item_1").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectCommit()

	deltaOK := -3
	deltaMissing := -1
	batch, err := repo.ApplyBatch(context.Background(), []domain.EquipmentMutation{
		{EquipmentID: "eq-1", QuantityDelta: &deltaOK, Reason: "Ajuste de inventário", ActorID: "user-1"},
		{EquipmentID: "inexistente", QuantityDelta: &deltaMissing, Reason: "Ajuste de inventário", ActorID: "user-1"},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, batch.SuccessCount)
	assert.Equal(t, 1, batch.FailCount)
	assert.True(t, batch.Results[0].Success)
	assert.Equal(t, 7, batch.Results[0].QuantityAfter)
	assert.False(t, batch.Results[1].Success)
	assert.NotEmpty(t, batch.Results[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestApplyBatch_Fail_TodosFalham testa que o lote só aborta quando TODOS os
// itens falham: nenhum commit acontece e o erro agrega o resultado.
func TestApplyBatch_Fail_TodosFalham(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT batch_item_0").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT batch_item_0").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SAVEPOINT batch_item_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT batch_item_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	delta := -1
	batch, err := repo.ApplyBatch(context.Background(), []domain.EquipmentMutation{
		{EquipmentID: "fantasma-1", QuantityDelta: &delta, Reason: "Ajuste de inventário", ActorID: "user-1"},
		{EquipmentID: "fantasma-2", QuantityDelta: &delta, Reason: "Ajuste de inventário", ActorID: "user-1"},
	})

	assert.Error(t, err)
	assert.Equal(t, 0, batch.SuccessCount)
	assert.Equal(t, 2, batch.FailCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
