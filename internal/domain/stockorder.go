package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockOrderStatus é o status de um pedido de compra junto ao fornecedor.
type StockOrderStatus string

const (
	OrderPending   StockOrderStatus = "pending"
	OrderConfirmed StockOrderStatus = "confirmed"
	OrderShipped   StockOrderStatus = "shipped"
	OrderDelivered StockOrderStatus = "delivered"
	OrderCancelled StockOrderStatus = "cancelled"
)

// IsValid indica se o valor pertence ao conjunto fechado de status de pedido.
func (s StockOrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// validOrderTransitions define o avanço estritamente forward-only do pedido,
// exceto o cancelamento, permitido apenas a partir de pending ou confirmed.
var validOrderTransitions = map[StockOrderStatus][]StockOrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: {}, // terminal
	OrderCancelled: {}, // terminal
}

// CanTransitionTo verifica se o avanço de status do pedido é permitido.
func (s StockOrderStatus) CanTransitionTo(target StockOrderStatus) bool {
	for _, t := range validOrderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidateOrderTransition retorna um erro descritivo se o avanço for ilegal.
func ValidateOrderTransition(from, to StockOrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("status de pedido desconhecido: %q", to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("transição de pedido não permitida: %s -> %s", from, to)
	}
	return nil
}

// StockOrderItem é uma linha do pedido: referência de equipamento, quantidade
// (>= 1) e snapshot do preço unitário no momento do pedido.
type StockOrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	EquipmentID string          `json:"equipment_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal é UnitPrice x Quantity da linha.
func (i StockOrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StockOrder é um pedido de compra de reposição junto a um fornecedor.
// TotalAmount é sempre derivado das linhas (nunca confiado da entrada) e
// recalculado a cada persistência.
type StockOrder struct {
	ID               string           `json:"id"`
	SupplierID       string           `json:"supplier_id"`
	Items            []StockOrderItem `json:"items"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	Status           StockOrderStatus `json:"status"`
	AutoOrder        bool             `json:"auto_order"` // aberto pelo monitor de estoque
	TrackingNumber   string           `json:"tracking_number,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	OrderedAt        time.Time        `json:"ordered_at"`
	ExpectedDelivery *time.Time       `json:"expected_delivery,omitempty"`
	DeliveredAt      *time.Time       `json:"delivered_at,omitempty"`
	CreatedBy        string           `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// RecomputeTotal recalcula TotalAmount como a soma dos subtotais das linhas.
func (o *StockOrder) RecomputeTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	o.TotalAmount = total
}

// StockOrderFilter define os filtros e a paginação da listagem de pedidos.
type StockOrderFilter struct {
	SupplierID string
	Status     StockOrderStatus
	AutoOnly   bool
	Page       int
	Limit      int
}

// Supplier é a entrada do diretório de fornecedores (consulta somente leitura).
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
