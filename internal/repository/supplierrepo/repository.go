package supplierrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// SupplierRepository é o diretório de fornecedores: consulta SOMENTE LEITURA
// (o cadastro de fornecedores é um colaborador externo ao núcleo).
type SupplierRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSupplierRepository cria e retorna uma nova instância do Diretório de Fornecedores.
func NewSupplierRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *SupplierRepository {
	return &SupplierRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByID busca um fornecedor pelo ID.
func (r *SupplierRepository) FindByID(ctx context.Context, id string) (domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, name, email, active, created_at FROM suppliers WHERE id = $1`

	var s domain.Supplier
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(&s.ID, &s.Name, &s.Email, &s.Active, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Supplier{}, apperror.NewNotFoundError(fmt.Sprintf("Fornecedor %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar fornecedor no DB.", err)
		return domain.Supplier{}, apperror.NewDBError("Falha ao buscar fornecedor", err)
	}
	return s, nil
}

// FindAll lista os fornecedores, opcionalmente apenas os ativos.
func (r *SupplierRepository) FindAll(ctx context.Context, activeOnly bool) ([]domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, name, email, active, created_at FROM suppliers`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar fornecedores no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar fornecedores", err)
	}
	defer rows.Close()

	var suppliers []domain.Supplier
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Active, &s.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear fornecedor", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar fornecedores", err)
	}
	return suppliers, nil
}
