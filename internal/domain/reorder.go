package domain

import "time"

// Valores padrão da política de reposição quando não há configuração customizada.
const (
	DefaultReorderThreshold = 5
	DefaultReorderQuantity  = 10
)

// ReorderPolicy é a configuração de reposição por equipamento (no máximo uma
// política por equipamento). A ausência de política equivale aos padrões, não
// é um erro: a política é materializada de forma lazy na primeira consulta.
type ReorderPolicy struct {
	ID                  string    `json:"id"`
	EquipmentID         string    `json:"equipment_id"`
	Threshold           int       `json:"threshold"`        // >= 1
	ReorderQuantity     int       `json:"reorder_quantity"` // >= 1
	AutoReorder         bool      `json:"auto_reorder"`
	PreferredSupplierID string    `json:"preferred_supplier_id,omitempty"`
	UpdatedBy           string    `json:"updated_by,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultReorderPolicy devolve a política padrão (threshold 5, quantidade 10,
// auto-reposição desligada) para um equipamento sem configuração própria.
func DefaultReorderPolicy(equipmentID string) ReorderPolicy {
	return ReorderPolicy{
		EquipmentID:     equipmentID,
		Threshold:       DefaultReorderThreshold,
		ReorderQuantity: DefaultReorderQuantity,
		AutoReorder:     false,
	}
}

// StockAlertKind classifica um item fora do nível nominal de estoque.
type StockAlertKind string

const (
	AlertOutOfStock StockAlertKind = "out_of_stock"
	AlertLowStock   StockAlertKind = "low_stock"
)

// ClassifyStock classifica a quantidade contra o threshold da política:
// 0 é out_of_stock, entre 1 e threshold-1 é low_stock, >= threshold é nominal.
// O segundo retorno é false quando o item está nominal.
func ClassifyStock(quantity, threshold int) (StockAlertKind, bool) {
	switch {
	case quantity <= 0:
		return AlertOutOfStock, true
	case quantity < threshold:
		return AlertLowStock, true
	}
	return "", false
}

// StockAlert é um item classificado como fora do nível nominal.
type StockAlert struct {
	Kind        StockAlertKind `json:"kind"`
	EquipmentID string         `json:"equipment_id"`
	Name        string         `json:"name"`
	Quantity    int            `json:"quantity"`
	Threshold   int            `json:"threshold"`
}

// StockCheckReport é o resultado de uma rodada do monitor de estoque.
type StockCheckReport struct {
	OutOfStock    []StockAlert `json:"out_of_stock"`
	LowStock      []StockAlert `json:"low_stock"`
	OrdersOpened  []string     `json:"orders_opened,omitempty"` // IDs de pedidos de auto-reposição abertos
	CheckedAt     time.Time    `json:"checked_at"`
	ItemsScanned  int          `json:"items_scanned"`
}
