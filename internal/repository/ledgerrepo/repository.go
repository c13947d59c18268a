package ledgerrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// LedgerRepository é o lado de LEITURA do Ledger de Auditoria. A escrita
// acontece exclusivamente dentro das transações do Coordenador de Mutações
// (equipmentrepo): este repositório não expõe INSERT, UPDATE nem DELETE.
type LedgerRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewLedgerRepository cria e retorna uma nova instância do Repositório do Ledger.
func NewLedgerRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *LedgerRepository {
	return &LedgerRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const ledgerColumns = `id, equipment_id, action, quantity_before, quantity_after,
        status_before, status_after, reason, reference_id, actor_id, created_at`

func scanEntry(rows *sql.Rows) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var statusAfter, referenceID sql.NullString
	err := rows.Scan(
		&e.ID, &e.EquipmentID, &e.Action, &e.QuantityBefore, &e.QuantityAfter,
		&e.StatusBefore, &statusAfter, &e.Reason, &referenceID, &e.ActorID, &e.CreatedAt,
	)
	if statusAfter.Valid {
		s := domain.EquipmentStatus(statusAfter.String)
		e.StatusAfter = &s
	}
	e.ReferenceID = referenceID.String
	return e, err
}

// Find consulta o Ledger com filtros opcionais e paginação, em ordem
// cronológica decrescente (entrada mais recente primeiro). Devolve também o
// total de entradas que casam com o filtro, para a paginação do chamador.
func (r *LedgerRepository) Find(ctx context.Context, filter domain.LedgerFilter) ([]domain.LedgerEntry, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where := " WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.EquipmentID != "" {
		where += fmt.Sprintf(" AND equipment_id = $%d", argPos)
		args = append(args, filter.EquipmentID)
		argPos++
	}
	if filter.Action != "" {
		where += fmt.Sprintf(" AND action = $%d", argPos)
		args = append(args, filter.Action)
		argPos++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", argPos)
		args = append(args, *filter.To)
		argPos++
	}

	// Total para paginação
	var total int
	countQuery := `SELECT COUNT(*) FROM audit_ledger` + where
	if err := r.DB.QueryRowContext(ctxTimeout, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar entradas do Ledger.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar entradas do Ledger", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := `SELECT ` + ledgerColumns + ` FROM audit_ledger` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao consultar o Ledger.", err)
		return nil, 0, apperror.NewDBError("Falha ao consultar o Ledger", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, apperror.NewDBError("Falha ao mapear entrada do Ledger", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewDBError("Falha ao iterar entradas do Ledger", err)
	}

	return entries, total, nil
}

// History devolve TODAS as entradas de um equipamento em ordem cronológica
// crescente, prontas para o replay (fold) do estado.
func (r *LedgerRepository) History(ctx context.Context, equipmentID string) ([]domain.LedgerEntry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + ledgerColumns + ` FROM audit_ledger
              WHERE equipment_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, equipmentID)
	if err != nil {
		r.logger.Error("Falha ao consultar histórico do Ledger.", err)
		return nil, apperror.NewDBError("Falha ao consultar histórico do Ledger", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear entrada do Ledger", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar histórico do Ledger", err)
	}
	return entries, nil
}
