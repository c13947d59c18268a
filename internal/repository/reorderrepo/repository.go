package reorderrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// ReorderRepository persiste as políticas de reposição (no máximo uma por
// equipamento, garantido por unicidade no DB).
type ReorderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewReorderRepository cria e retorna uma nova instância do Repositório de Políticas.
func NewReorderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ReorderRepository {
	return &ReorderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const policyColumns = `id, equipment_id, threshold, reorder_quantity, auto_reorder,
        preferred_supplier_id, updated_by, created_at, updated_at`

func scanPolicy(row interface {
	Scan(dest ...interface{}) error
}) (domain.ReorderPolicy, error) {
	var p domain.ReorderPolicy
	var supplierID, updatedBy sql.NullString
	err := row.Scan(
		&p.ID, &p.EquipmentID, &p.Threshold, &p.ReorderQuantity, &p.AutoReorder,
		&supplierID, &updatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	p.PreferredSupplierID = supplierID.String
	p.UpdatedBy = updatedBy.String
	return p, err
}

// FindByEquipmentID busca a política de um equipamento. A ausência é reportada
// como NotFoundError; o serviço materializa os padrões nesse caso.
func (r *ReorderRepository) FindByEquipmentID(ctx context.Context, equipmentID string) (domain.ReorderPolicy, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + policyColumns + ` FROM reorder_policies WHERE equipment_id = $1`
	p, err := scanPolicy(r.DB.QueryRowContext(ctxTimeout, query, equipmentID))
	if err == sql.ErrNoRows {
		return domain.ReorderPolicy{}, apperror.NewNotFoundError(
			fmt.Sprintf("Política de reposição do equipamento %s não encontrada.", equipmentID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar política de reposição no DB.", err)
		return domain.ReorderPolicy{}, apperror.NewDBError("Falha ao buscar política de reposição", err)
	}
	return p, nil
}

// Upsert insere ou atualiza a política do equipamento (ON CONFLICT na chave
// única de equipment_id: no máximo uma política por equipamento).
func (r *ReorderRepository) Upsert(ctx context.Context, policy domain.ReorderPolicy) (domain.ReorderPolicy, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now()
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}

	var supplierID interface{}
	if policy.PreferredSupplierID != "" {
		supplierID = policy.PreferredSupplierID
	}

	const upsertSQL = `
        INSERT INTO reorder_policies
            (id, equipment_id, threshold, reorder_quantity, auto_reorder,
             preferred_supplier_id, updated_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
        ON CONFLICT (equipment_id) DO UPDATE SET
            threshold = EXCLUDED.threshold,
            reorder_quantity = EXCLUDED.reorder_quantity,
            auto_reorder = EXCLUDED.auto_reorder,
            preferred_supplier_id = EXCLUDED.preferred_supplier_id,
            updated_by = EXCLUDED.updated_by,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + policyColumns

	p, err := scanPolicy(r.DB.QueryRowContext(ctxTimeout, upsertSQL,
		policy.ID, policy.EquipmentID, policy.Threshold, policy.ReorderQuantity, policy.AutoReorder,
		supplierID, policy.UpdatedBy, now,
	))
	if err != nil {
		r.logger.Error("Falha ao gravar política de reposição no DB.", err)
		return domain.ReorderPolicy{}, apperror.NewDBError("Falha ao gravar política de reposição", err)
	}

	r.logger.Info("Política de reposição gravada.", map[string]interface{}{
		"equipment_id": p.EquipmentID,
		"threshold":    p.Threshold,
		"auto_reorder": p.AutoReorder,
	})
	return p, nil
}

// Delete remove a política customizada do equipamento. A ausência de política
// equivale aos padrões, então deletar algo inexistente não é erro.
func (r *ReorderRepository) Delete(ctx context.Context, equipmentID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM reorder_policies WHERE equipment_id = $1`, equipmentID)
	if err != nil {
		r.logger.Error("Falha ao remover política de reposição no DB.", err)
		return apperror.NewDBError("Falha ao remover política de reposição", err)
	}
	return nil
}

// FindAll devolve todas as políticas customizadas, indexadas por equipamento.
// O monitor de estoque usa este mapa para evitar uma consulta por item.
func (r *ReorderRepository) FindAll(ctx context.Context) (map[string]domain.ReorderPolicy, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT `+policyColumns+` FROM reorder_policies`)
	if err != nil {
		r.logger.Error("Falha ao listar políticas de reposição no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar políticas de reposição", err)
	}
	defer rows.Close()

	policies := make(map[string]domain.ReorderPolicy)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear política de reposição", err)
		}
		policies[p.EquipmentID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar políticas de reposição", err)
	}
	return policies, nil
}
