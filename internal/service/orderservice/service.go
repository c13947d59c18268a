package orderservice

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
)

// OrderRepository define o contrato de persistência dos pedidos de reposição.
type OrderRepository interface {
	Save(ctx context.Context, order domain.StockOrder) (domain.StockOrder, error)
	FindByID(ctx context.Context, id string) (domain.StockOrder, error)
	FindAll(ctx context.Context, filter domain.StockOrderFilter) ([]domain.StockOrder, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.StockOrderStatus, trackingNumber string) error
	Deliver(ctx context.Context, order domain.StockOrder, actorID string) (domain.StockOrder, error)
}

// SupplierReader valida o fornecedor do pedido.
type SupplierReader interface {
	FindByID(ctx context.Context, id string) (domain.Supplier, error)
}

// EquipmentReader valida as linhas e fornece o snapshot de preço unitário.
type EquipmentReader interface {
	FindByID(ctx context.Context, id string) (domain.Equipment, error)
}

// CreateOrderRequest é o payload de criação de pedido de reposição.
type CreateOrderRequest struct {
	SupplierID       string                  `json:"supplier_id"`
	Items            []domain.StockOrderItem `json:"items"`
	Notes            string                  `json:"notes,omitempty"`
	ExpectedDelivery *time.Time              `json:"expected_delivery,omitempty"`
	AutoOrder        bool                    `json:"auto_order"`
}

// Service é a camada de lógica de negócio do ciclo de vida dos pedidos.
type Service struct {
	repo      OrderRepository
	suppliers SupplierReader
	equipment EquipmentReader
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(repo OrderRepository, suppliers SupplierReader, equipment EquipmentReader, logger logger.Logger) *Service {
	return &Service{repo: repo, suppliers: suppliers, equipment: equipment, logger: logger}
}

// CreateOrder abre um pedido pending. Cada linha exige quantidade >= 1 e
// equipamento existente; o preço unitário, quando omitido, é o snapshot do
// preço atual do equipamento. O total é derivado das linhas na persistência.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest, actorID string) (domain.StockOrder, error) {
	if req.SupplierID == "" {
		return domain.StockOrder{}, apperror.NewValidationError("O fornecedor do pedido é obrigatório.")
	}
	if len(req.Items) == 0 {
		return domain.StockOrder{}, apperror.NewValidationError("O pedido precisa de pelo menos uma linha.")
	}

	supplier, err := s.suppliers.FindByID(ctx, req.SupplierID)
	if err != nil {
		return domain.StockOrder{}, err
	}
	if !supplier.Active {
		return domain.StockOrder{}, apperror.NewValidationError(fmt.Sprintf("O fornecedor %s está inativo.", supplier.ID))
	}

	for i, item := range req.Items {
		if item.EquipmentID == "" {
			return domain.StockOrder{}, apperror.NewValidationError(fmt.Sprintf("Linha %d sem equipamento.", i+1))
		}
		if item.Quantity < 1 {
			return domain.StockOrder{}, apperror.NewValidationError(fmt.Sprintf("Linha %d com quantidade inválida (mínimo 1).", i+1))
		}

		eq, err := s.equipment.FindByID(ctx, item.EquipmentID)
		if err != nil {
			return domain.StockOrder{}, err
		}
		// Snapshot de preço no momento do pedido.
		if item.UnitPrice.IsZero() {
			req.Items[i].UnitPrice = eq.UnitPrice
		} else if item.UnitPrice.LessThan(decimal.Zero) {
			return domain.StockOrder{}, apperror.NewValidationError(fmt.Sprintf("Linha %d com preço unitário negativo.", i+1))
		}
	}

	order := domain.StockOrder{
		SupplierID:       req.SupplierID,
		Items:            req.Items,
		Notes:            req.Notes,
		ExpectedDelivery: req.ExpectedDelivery,
		AutoOrder:        req.AutoOrder,
		CreatedBy:        actorID,
	}

	return s.repo.Save(ctx, order)
}

// GetOrder busca um pedido pelo ID, incluindo as linhas.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.StockOrder, error) {
	if id == "" {
		return domain.StockOrder{}, apperror.NewValidationError("O ID do pedido é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// ListOrders lista pedidos com filtro e paginação.
func (s *Service) ListOrders(ctx context.Context, filter domain.StockOrderFilter) ([]domain.StockOrder, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Status de pedido desconhecido: %q", filter.Status))
	}
	return s.repo.FindAll(ctx, filter)
}

// AdvanceStatus avança o pedido na máquina de estados forward-only
// (cancelamento apenas de pending/confirmed). A entrega é a única transição
// com efeito colateral: uma mutação stock_in por linha, através do Coordenador
// de Mutações, na mesma unidade atômica do carimbo de entrega.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, newStatus domain.StockOrderStatus, trackingNumber, actorID string) (domain.StockOrder, error) {
	if orderID == "" {
		return domain.StockOrder{}, apperror.NewValidationError("O ID do pedido é obrigatório.")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return domain.StockOrder{}, err
	}

	if err := domain.ValidateOrderTransition(order.Status, newStatus); err != nil {
		return domain.StockOrder{}, apperror.NewInvariantError(err.Error())
	}

	if newStatus == domain.OrderDelivered {
		return s.repo.Deliver(ctx, order, actorID)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus, trackingNumber); err != nil {
		return domain.StockOrder{}, err
	}

	order.Status = newStatus
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	s.logger.Info("Status do pedido avançado.", map[string]interface{}{
		"order_id": orderID,
		"status":   string(newStatus),
	})
	return order, nil
}
