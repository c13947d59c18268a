package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gorent/internal/domain"
)

// TestOrderTransitions_ForwardOnly verifica o fluxo pendente -> entregue.
func TestOrderTransitions_ForwardOnly(t *testing.T) {
	assert.NoError(t, domain.ValidateOrderTransition(domain.OrderPending, domain.OrderConfirmed))
	assert.NoError(t, domain.ValidateOrderTransition(domain.OrderConfirmed, domain.OrderShipped))
	assert.NoError(t, domain.ValidateOrderTransition(domain.OrderShipped, domain.OrderDelivered))

	// Sem saltos nem retrocesso.
	assert.Error(t, domain.ValidateOrderTransition(domain.OrderPending, domain.OrderShipped))
	assert.Error(t, domain.ValidateOrderTransition(domain.OrderConfirmed, domain.OrderDelivered))
	assert.Error(t, domain.ValidateOrderTransition(domain.OrderShipped, domain.OrderConfirmed))
}

// TestOrderTransitions_Cancellation verifica que só pending e confirmed cancelam.
func TestOrderTransitions_Cancellation(t *testing.T) {
	assert.NoError(t, domain.ValidateOrderTransition(domain.OrderPending, domain.OrderCancelled))
	assert.NoError(t, domain.ValidateOrderTransition(domain.OrderConfirmed, domain.OrderCancelled))

	assert.Error(t, domain.ValidateOrderTransition(domain.OrderShipped, domain.OrderCancelled))
	assert.Error(t, domain.ValidateOrderTransition(domain.OrderDelivered, domain.OrderCancelled))
}

// TestOrderTransitions_TerminalStates verifica que delivered e cancelled são terminais.
func TestOrderTransitions_TerminalStates(t *testing.T) {
	all := []domain.StockOrderStatus{
		domain.OrderPending, domain.OrderConfirmed, domain.OrderShipped,
		domain.OrderDelivered, domain.OrderCancelled,
	}
	for _, target := range all {
		assert.Error(t, domain.ValidateOrderTransition(domain.OrderDelivered, target))
		assert.Error(t, domain.ValidateOrderTransition(domain.OrderCancelled, target))
	}
}

// TestRecomputeTotal verifica que o total é sempre derivado das linhas.
func TestRecomputeTotal(t *testing.T) {
	order := domain.StockOrder{
		TotalAmount: decimal.NewFromInt(999), // valor vindo da entrada é descartado
		Items: []domain.StockOrderItem{
			{Quantity: 3, UnitPrice: decimal.NewFromFloat(10.50)},
			{Quantity: 2, UnitPrice: decimal.NewFromFloat(4.25)},
		},
	}

	order.RecomputeTotal()

	assert.True(t, decimal.NewFromFloat(40.00).Equal(order.TotalAmount),
		"total esperado 40.00, obtido %s", order.TotalAmount)
}

// TestRecomputeTotal_NoItems verifica o total de um pedido sem linhas.
func TestRecomputeTotal_NoItems(t *testing.T) {
	order := domain.StockOrder{TotalAmount: decimal.NewFromInt(50)}
	order.RecomputeTotal()
	assert.True(t, order.TotalAmount.IsZero())
}
