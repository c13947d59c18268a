package equipmentrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/cache"
	"gorent/internal/pkg/logger"
)

// Define a chave de cache para equipamentos.
const equipmentCacheKey = "equipment:%s"

// Tempo de vida do cache de leitura de equipamento.
const equipmentCacheTTL = 5 * time.Minute

// CacheKey devolve a chave de cache de um equipamento. Exportada porque outros
// repositórios que mutam equipamento via ApplyMutationTx (e.g., orderrepo na
// entrega de pedido) precisam invalidar as mesmas chaves.
func CacheKey(id string) string {
	return fmt.Sprintf(equipmentCacheKey, id)
}

// EquipmentRepository é o Coordenador de Mutações: o único caminho de escrita
// para Equipment.Quantity e Equipment.Status. Toda mutação bem-sucedida grava
// o update do registro e UMA entrada no audit_ledger na mesma transação.
type EquipmentRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewEquipmentRepository cria e retorna uma nova instância do Repositório de Equipamentos.
func NewEquipmentRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *EquipmentRepository {
	return &EquipmentRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const equipmentColumns = `id, name, category, unit_price, quantity, is_active, status, condition,
        last_maintenance, next_maintenance, maintenance_interval_days,
        serial_number, barcode, location, purchase_date,
        version, created_at, updated_at, deleted_at`

// scanEquipment mapeia uma linha para a struct Equipment.
func scanEquipment(row interface {
	Scan(dest ...interface{}) error
}) (domain.Equipment, error) {
	var eq domain.Equipment
	err := row.Scan(
		&eq.ID, &eq.Name, &eq.Category, &eq.UnitPrice, &eq.Quantity, &eq.IsActive, &eq.Status, &eq.Condition,
		&eq.LastMaintenance, &eq.NextMaintenance, &eq.MaintenanceInterval,
		&eq.SerialNumber, &eq.Barcode, &eq.Location, &eq.PurchaseDate,
		&eq.Version, &eq.CreatedAt, &eq.UpdatedAt, &eq.DeletedAt,
	)
	return eq, err
}

// Save persiste um novo Equipamento e, quando a quantidade inicial é positiva,
// a entrada de intake (stock_in) no Ledger — tudo na mesma transação.
func (r *EquipmentRepository) Save(ctx context.Context, eq domain.Equipment, actorID string) (domain.Equipment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Equipment{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	now := time.Now()
	eq.ID = uuid.NewString()
	eq.Version = 1
	eq.CreatedAt = now
	eq.UpdatedAt = now

	const insertSQL = `INSERT INTO equipment
        (id, name, category, unit_price, quantity, is_active, status, condition,
         last_maintenance, next_maintenance, maintenance_interval_days,
         serial_number, barcode, location, purchase_date,
         version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

	_, err = tx.ExecContext(ctxTimeout, insertSQL,
		eq.ID, eq.Name, eq.Category, eq.UnitPrice, eq.Quantity, eq.IsActive, eq.Status, eq.Condition,
		eq.LastMaintenance, eq.NextMaintenance, eq.MaintenanceInterval,
		eq.SerialNumber, eq.Barcode, eq.Location, eq.PurchaseDate,
		eq.Version, eq.CreatedAt, eq.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir equipamento no DB.", err)
		return domain.Equipment{}, apperror.NewDBError("Falha ao inserir equipamento", err)
	}

	// Entrada de intake: o Ledger conta a história completa desde quantidade zero.
	if eq.Quantity > 0 {
		statusAfter := eq.Status
		entry := domain.LedgerEntry{
			ID:             uuid.NewString(),
			EquipmentID:    eq.ID,
			Action:         domain.ActionStockIn,
			QuantityBefore: 0,
			QuantityAfter:  eq.Quantity,
			StatusBefore:   eq.Status,
			StatusAfter:    &statusAfter,
			Reason:         "Cadastro inicial de equipamento",
			ActorID:        actorID,
			CreatedAt:      now,
		}
		if err := insertLedgerEntry(ctxTimeout, tx, entry); err != nil {
			r.logger.Error("Falha ao inserir entrada de intake no Ledger.", err)
			return domain.Equipment{}, err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return domain.Equipment{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Equipamento criado com sucesso.", map[string]interface{}{"equipment_id": eq.ID, "quantity": eq.Quantity})
	return eq, nil
}

// FindByID busca um equipamento pelo ID, utilizando a estratégia Cache-Aside.
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (domain.Equipment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := CacheKey(id)
	var eq domain.Equipment

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &eq) == nil {
			r.logger.Debug("Cache HIT para equipamento.", map[string]interface{}{"equipment_id": id})
			return eq, nil
		}
		// Payload corrompido: remove e segue para o DB
		_ = r.Cache.Delete(ctxTimeout, key)
	} else if err != cache.ErrCacheMiss {
		// Falha de cache não derruba a leitura: apenas registra e vai ao DB.
		r.logger.Warn("Falha ao consultar cache de equipamento.", map[string]interface{}{"equipment_id": id, "error": err.Error()})
	}

	// 2. Cache MISS: busca no DB
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 AND deleted_at IS NULL`
	eq, err = scanEquipment(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Equipment{}, apperror.NewNotFoundError(fmt.Sprintf("Equipamento %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar equipamento no DB.", err)
		return domain.Equipment{}, apperror.NewDBError("Falha ao buscar equipamento", err)
	}

	// 3. Popula o cache (falha de escrita no cache é apenas logada)
	if data, marshalErr := json.Marshal(eq); marshalErr == nil {
		if cacheErr := r.Cache.Set(ctxTimeout, key, string(data), equipmentCacheTTL); cacheErr != nil {
			r.logger.Warn("Falha ao popular cache de equipamento.", map[string]interface{}{"equipment_id": id, "error": cacheErr.Error()})
		}
	}

	return eq, nil
}

// FindAll lista equipamentos com filtro e paginação.
func (r *EquipmentRepository) FindAll(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE deleted_at IS NULL`
	args := []interface{}{}
	argPos := 1

	if filter.Name != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argPos)
		args = append(args, "%"+filter.Name+"%")
		argPos++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, filter.Category)
		argPos++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.ActiveOnly {
		query += " AND is_active = TRUE"
	}

	query += " ORDER BY name"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar equipamentos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar equipamentos", err)
	}
	defer rows.Close()

	var result []domain.Equipment
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear equipamento", err)
		}
		result = append(result, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar equipamentos", err)
	}
	return result, nil
}

// UpdateDetails atualiza apenas os campos NÃO coordenados (nome, categoria,
// preço, metadados). Quantity e Status nunca passam por aqui: são exclusivos
// do caminho de mutação atômica (ApplyMutation).
func (r *EquipmentRepository) UpdateDetails(ctx context.Context, eq domain.Equipment) (domain.Equipment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
        UPDATE equipment
        SET name = $1, category = $2, unit_price = $3, is_active = $4,
            maintenance_interval_days = $5, serial_number = $6, barcode = $7,
            location = $8, purchase_date = $9, updated_at = $10
        WHERE id = $11 AND deleted_at IS NULL`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		eq.Name, eq.Category, eq.UnitPrice, eq.IsActive,
		eq.MaintenanceInterval, eq.SerialNumber, eq.Barcode,
		eq.Location, eq.PurchaseDate, time.Now(),
		eq.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar equipamento no DB.", err)
		return domain.Equipment{}, apperror.NewDBError("Falha ao atualizar equipamento", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Equipment{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		return domain.Equipment{}, apperror.NewNotFoundError(fmt.Sprintf("Equipamento %s não encontrado.", eq.ID))
	}

	// Invalida o cache após o commit da escrita.
	if err := r.Cache.Delete(ctxTimeout, CacheKey(eq.ID)); err != nil && err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao invalidar cache de equipamento.", map[string]interface{}{"equipment_id": eq.ID, "error": err.Error()})
	}

	return r.FindByID(ctx, eq.ID)
}

// SoftDelete marca o equipamento como deletado (soft delete). Equipamento
// referenciado por pedidos de compra abertos nunca é removido.
func (r *EquipmentRepository) SoftDelete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// Guarda: pedidos ainda não entregues/cancelados bloqueiam a remoção.
	const openOrdersSQL = `
        SELECT EXISTS (
            SELECT 1 FROM stock_order_items i
            JOIN stock_orders o ON o.id = i.order_id
            WHERE i.equipment_id = $1 AND o.status NOT IN ('delivered', 'cancelled')
        )`

	var hasOpenOrders bool
	if err := r.DB.QueryRowContext(ctxTimeout, openOrdersSQL, id).Scan(&hasOpenOrders); err != nil {
		return apperror.NewDBError("Falha ao verificar pedidos abertos", err)
	}
	if hasOpenOrders {
		return apperror.NewConflictError("Equipamento referenciado por pedidos de compra abertos não pode ser removido.")
	}

	const deleteSQL = `UPDATE equipment SET deleted_at = $1, is_active = FALSE, updated_at = $1
                       WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.DB.ExecContext(ctxTimeout, deleteSQL, time.Now(), id)
	if err != nil {
		return apperror.NewDBError("Falha ao remover equipamento", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Equipamento %s não encontrado.", id))
	}

	if err := r.Cache.Delete(ctxTimeout, CacheKey(id)); err != nil && err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao invalidar cache de equipamento.", map[string]interface{}{"equipment_id": id, "error": err.Error()})
	}
	return nil
}
