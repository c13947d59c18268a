package orderrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/cache"
	"gorent/internal/pkg/logger"
	"gorent/internal/repository/equipmentrepo"
)

// OrderRepository persiste os pedidos de compra de reposição e suas linhas.
// A entrega (Deliver) participa da unidade atômica do Coordenador de Mutações:
// as mutações de stock_in de cada linha e o carimbo de entrega do pedido
// persistem na MESMA transação.
type OrderRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const orderColumns = `id, supplier_id, total_amount, status, auto_order, tracking_number, notes,
        ordered_at, expected_delivery, delivered_at, created_by, created_at, updated_at`

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (domain.StockOrder, error) {
	var o domain.StockOrder
	var tracking, notes sql.NullString
	err := row.Scan(
		&o.ID, &o.SupplierID, &o.TotalAmount, &o.Status, &o.AutoOrder, &tracking, &notes,
		&o.OrderedAt, &o.ExpectedDelivery, &o.DeliveredAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	o.TrackingNumber = tracking.String
	o.Notes = notes.String
	return o, err
}

// Save persiste um novo pedido e suas linhas numa transação. O total é SEMPRE
// recalculado a partir das linhas antes da escrita: nunca confiado da entrada.
func (r *OrderRepository) Save(ctx context.Context, order domain.StockOrder) (domain.StockOrder, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.StockOrder{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	now := time.Now()
	order.ID = uuid.NewString()
	order.Status = domain.OrderPending
	order.OrderedAt = now
	order.CreatedAt = now
	order.UpdatedAt = now
	order.RecomputeTotal()

	const orderSQL = `INSERT INTO stock_orders
        (id, supplier_id, total_amount, status, auto_order, tracking_number, notes,
         ordered_at, expected_delivery, delivered_at, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err = tx.ExecContext(ctxTimeout, orderSQL,
		order.ID, order.SupplierID, order.TotalAmount, order.Status, order.AutoOrder,
		order.TrackingNumber, order.Notes,
		order.OrderedAt, order.ExpectedDelivery, order.DeliveredAt,
		order.CreatedBy, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido no DB.", err)
		return domain.StockOrder{}, apperror.NewDBError("Falha ao inserir pedido", err)
	}

	const itemSQL = `INSERT INTO stock_order_items (id, order_id, equipment_id, quantity, unit_price)
                     VALUES ($1,$2,$3,$4,$5)`

	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID
		item := order.Items[i]
		if _, err := tx.ExecContext(ctxTimeout, itemSQL,
			item.ID, item.OrderID, item.EquipmentID, item.Quantity, item.UnitPrice); err != nil {
			r.logger.Error("Falha ao inserir linha de pedido no DB.", err)
			return domain.StockOrder{}, apperror.NewDBError("Falha ao inserir linha de pedido", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return domain.StockOrder{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Pedido de reposição criado.", map[string]interface{}{
		"order_id":    order.ID,
		"supplier_id": order.SupplierID,
		"total":       order.TotalAmount.String(),
		"items":       len(order.Items),
	})
	return order, nil
}

// loadItems carrega as linhas de um pedido.
func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]domain.StockOrderItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, order_id, equipment_id, quantity, unit_price
         FROM stock_order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar linhas do pedido", err)
	}
	defer rows.Close()

	var items []domain.StockOrderItem
	for rows.Next() {
		var item domain.StockOrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.EquipmentID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear linha do pedido", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar linhas do pedido", err)
	}
	return items, nil
}

// FindByID busca um pedido pelo ID, incluindo as linhas.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.StockOrder, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM stock_orders WHERE id = $1`
	order, err := scanOrder(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.StockOrder{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.StockOrder{}, apperror.NewDBError("Falha ao buscar pedido", err)
	}

	order.Items, err = r.loadItems(ctxTimeout, id)
	if err != nil {
		return domain.StockOrder{}, err
	}
	return order, nil
}

// FindAll lista pedidos com filtro e paginação (linhas não incluídas).
func (r *OrderRepository) FindAll(ctx context.Context, filter domain.StockOrderFilter) ([]domain.StockOrder, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM stock_orders WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.SupplierID != "" {
		query += fmt.Sprintf(" AND supplier_id = $%d", argPos)
		args = append(args, filter.SupplierID)
		argPos++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.AutoOnly {
		query += " AND auto_order = TRUE"
	}

	query += " ORDER BY ordered_at DESC"

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
		r.logger.Error("Falha ao listar pedidos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	var orders []domain.StockOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear pedido", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar pedidos", err)
	}
	return orders, nil
}

// UpdateStatus grava um avanço de status SEM efeito colateral (confirmed,
// shipped, cancelled). A entrega, que tem efeito colateral de estoque, passa
// por Deliver. A legalidade da transição já foi validada pelo serviço.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.StockOrderStatus, trackingNumber string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE stock_orders SET status = $1, updated_at = $2`
	args := []interface{}{status, time.Now()}
	if trackingNumber != "" {
		query += `, tracking_number = $3 WHERE id = $4`
		args = append(args, trackingNumber, orderID)
	} else {
		query += ` WHERE id = $3`
		args = append(args, orderID)
	}

	result, err := r.DB.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao atualizar status do pedido no DB.", err)
		return apperror.NewDBError("Falha ao atualizar status do pedido", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", orderID))
	}
	return nil
}

// Deliver marca o pedido como entregue e aplica, na MESMA transação, uma
// mutação de stock_in por linha através do caminho do Coordenador de Mutações:
// cada linha produz exatamente uma entrada no Ledger, e nada persiste se
// qualquer parte falhar.
func (r *OrderRepository) Deliver(ctx context.Context, order domain.StockOrder, actorID string) (domain.StockOrder, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.StockOrder{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	now := time.Now()

	for _, item := range order.Items {
		delta := item.Quantity
		mut := domain.EquipmentMutation{
			EquipmentID:   item.EquipmentID,
			QuantityDelta: &delta,
			Action:        domain.ActionStockIn,
			Reason:        fmt.Sprintf("Recebimento do pedido de reposição %s", order.ID),
			ReferenceID:   order.ID,
			ActorID:       actorID,
		}
		if _, err := equipmentrepo.ApplyMutationTx(ctxTimeout, tx, mut); err != nil {
			r.logger.Error("Falha ao aplicar stock_in de entrega.", err)
			return domain.StockOrder{}, err
		}
	}

	const deliverSQL = `UPDATE stock_orders
                        SET status = $1, delivered_at = $2, updated_at = $2
                        WHERE id = $3 AND status = $4`
	result, err := tx.ExecContext(ctxTimeout, deliverSQL, domain.OrderDelivered, now, order.ID, domain.OrderShipped)
	if err != nil {
		return domain.StockOrder{}, apperror.NewDBError("Falha ao marcar pedido como entregue", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.StockOrder{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		// Outro escritor avançou o pedido enquanto esta entrega corria.
		return domain.StockOrder{}, apperror.NewConflictError("O pedido foi modificado por outra operação. Tente novamente.")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return domain.StockOrder{}, apperror.NewDBError("Falha ao commitar transação de entrega", commitErr)
	}

	// Invalida o cache dos equipamentos mutados só depois do commit.
	for _, item := range order.Items {
		if err := r.Cache.Delete(ctxTimeout, equipmentrepo.CacheKey(item.EquipmentID)); err != nil && err != cache.ErrCacheMiss {
			r.logger.Warn("Falha ao invalidar cache de equipamento.", map[string]interface{}{"equipment_id": item.EquipmentID, "error": err.Error()})
		}
	}

	order.Status = domain.OrderDelivered
	order.DeliveredAt = &now
	order.UpdatedAt = now

	r.logger.Info("Pedido entregue e estoque reposto.", map[string]interface{}{
		"order_id": order.ID,
		"items":    len(order.Items),
	})
	return order, nil
}
