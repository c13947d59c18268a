package monitorservice

import (
	"context"
	"time"

	"gorent/internal/domain"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/notifier"
	"gorent/internal/service/orderservice"
)

const scanPageSize = 500

// EquipmentLister pagina o catálogo de equipamentos ativos.
type EquipmentLister interface {
	FindAll(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error)
}

// PolicyLister carrega todas as políticas de reposição persistidas.
type PolicyLister interface {
	FindAll(ctx context.Context) (map[string]domain.ReorderPolicy, error)
}

// OrderCreator abre pedidos de auto-reposição.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req orderservice.CreateOrderRequest, actorID string) (domain.StockOrder, error)
}

// Service é o monitor de estoque: varre o catálogo, classifica os níveis
// contra as políticas de reposição e abre pedidos automáticos quando a
// política autoriza.
type Service struct {
	equipment EquipmentLister
	policies  PolicyLister
	orders    OrderCreator
	notifier  notifier.Notifier
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Monitor de Estoque.
func NewService(equipment EquipmentLister, policies PolicyLister, orders OrderCreator, n notifier.Notifier, logger logger.Logger) *Service {
	return &Service{equipment: equipment, policies: policies, orders: orders, notifier: n, logger: logger}
}

// RunStockCheck executa uma rodada completa do monitor. Itens sem política
// persistida são avaliados contra os defaults. A rodada nunca falha por causa
// de notificação: alertas que não saem são apenas logados.
func (s *Service) RunStockCheck(ctx context.Context, actorID string) (domain.StockCheckReport, error) {
	report := domain.StockCheckReport{CheckedAt: time.Now().UTC()}

	policies, err := s.policies.FindAll(ctx)
	if err != nil {
		return report, err
	}

	// Candidatos a auto-reposição, agrupados por fornecedor preferencial.
	bySupplier := make(map[string][]domain.StockOrderItem)

	for page := 1; ; page++ {
		batch, err := s.equipment.FindAll(ctx, domain.EquipmentFilter{
			Page:       page,
			Limit:      scanPageSize,
			ActiveOnly: true,
		})
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			break
		}

		for _, eq := range batch {
			report.ItemsScanned++

			policy, ok := policies[eq.ID]
			if !ok {
				policy = domain.DefaultReorderPolicy(eq.ID)
			}

			kind, alerted := domain.ClassifyStock(eq.Quantity, policy.Threshold)
			if !alerted {
				continue
			}

			alert := domain.StockAlert{
				Kind:        kind,
				EquipmentID: eq.ID,
				Name:        eq.Name,
				Quantity:    eq.Quantity,
				Threshold:   policy.Threshold,
			}
			switch kind {
			case domain.AlertOutOfStock:
				report.OutOfStock = append(report.OutOfStock, alert)
			case domain.AlertLowStock:
				report.LowStock = append(report.LowStock, alert)
			}

			s.notify(ctx, notifier.Notification{
				Kind:        string(kind),
				EquipmentID: eq.ID,
				Name:        eq.Name,
				Quantity:    eq.Quantity,
				Threshold:   policy.Threshold,
			})

			if policy.AutoReorder && policy.PreferredSupplierID != "" {
				bySupplier[policy.PreferredSupplierID] = append(bySupplier[policy.PreferredSupplierID], domain.StockOrderItem{
					EquipmentID: eq.ID,
					Quantity:    policy.ReorderQuantity,
				})
			}
		}

		if len(batch) < scanPageSize {
			break
		}
	}

	// Um pedido pending por fornecedor, com todas as linhas elegíveis.
	for supplierID, items := range bySupplier {
		order, err := s.orders.CreateOrder(ctx, orderservice.CreateOrderRequest{
			SupplierID: supplierID,
			Items:      items,
			Notes:      "Reposição automática aberta pelo monitor de estoque.",
			AutoOrder:  true,
		}, actorID)
		if err != nil {
			s.logger.Warn("Falha ao abrir pedido de auto-reposição.", map[string]interface{}{
				"supplier_id": supplierID,
				"error":       err.Error(),
			})
			continue
		}
		report.OrdersOpened = append(report.OrdersOpened, order.ID)
		for _, item := range items {
			s.notify(ctx, notifier.Notification{
				Kind:        "auto_reorder",
				EquipmentID: item.EquipmentID,
				Quantity:    item.Quantity,
			})
		}
	}

	s.logger.Info("Rodada do monitor de estoque concluída.", map[string]interface{}{
		"items_scanned": report.ItemsScanned,
		"out_of_stock":  len(report.OutOfStock),
		"low_stock":     len(report.LowStock),
		"orders_opened": len(report.OrdersOpened),
	})
	return report, nil
}

// notify envia o alerta engolindo falhas: notificação nunca derruba a rodada.
func (s *Service) notify(ctx context.Context, n notifier.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("Falha ao enviar notificação de estoque.", map[string]interface{}{
			"kind":         n.Kind,
			"equipment_id": n.EquipmentID,
			"error":        err.Error(),
		})
	}
}
