package monitorservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gorent/internal/domain"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/notifier"
	"gorent/internal/service/monitorservice"
	"gorent/internal/service/orderservice"
)

// MockEquipmentLister é uma implementação mock da interface EquipmentLister.
type MockEquipmentLister struct {
	mock.Mock
}

func (m *MockEquipmentLister) FindAll(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

// MockPolicyLister é uma implementação mock da interface PolicyLister.
type MockPolicyLister struct {
	mock.Mock
}

func (m *MockPolicyLister) FindAll(ctx context.Context) (map[string]domain.ReorderPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]domain.ReorderPolicy), args.Error(1)
}

// MockOrderCreator é uma implementação mock da interface OrderCreator.
type MockOrderCreator struct {
	mock.Mock
}

func (m *MockOrderCreator) CreateOrder(ctx context.Context, req orderservice.CreateOrderRequest, actorID string) (domain.StockOrder, error) {
	args := m.Called(ctx, req, actorID)
	return args.Get(0).(domain.StockOrder), args.Error(1)
}

func newMonitor(eq *MockEquipmentLister, pol *MockPolicyLister, orders *MockOrderCreator) *monitorservice.Service {
	log := logger.NewLogger("debug")
	return monitorservice.NewService(eq, pol, orders, notifier.NewLogNotifier(log), log)
}

// TestRunStockCheck_ClassifiesAgainstDefaults testa a classificação de itens
// sem política persistida contra os thresholds padrão.
func TestRunStockCheck_ClassifiesAgainstDefaults(t *testing.T) {
	mockEq := new(MockEquipmentLister)
	mockPol := new(MockPolicyLister)
	mockOrders := new(MockOrderCreator)
	svc := newMonitor(mockEq, mockPol, mockOrders)

	items := []domain.Equipment{
		{ID: "zerado", Name: "Barraca", Quantity: 0, IsActive: true},
		{ID: "baixo", Name: "Lanterna", Quantity: 3, IsActive: true},
		{ID: "na-borda", Name: "Fogareiro", Quantity: 5, IsActive: true},
		{ID: "cheio", Name: "Caiaque", Quantity: 12, IsActive: true},
	}

	mockPol.On("FindAll", mock.Anything).Return(map[string]domain.ReorderPolicy{}, nil)
	mockEq.On("FindAll", mock.Anything, mock.AnythingOfType("domain.EquipmentFilter")).Return(items, nil)

	report, err := svc.RunStockCheck(context.Background(), "stock-monitor")

	assert.NoError(t, err)
	assert.Equal(t, 4, report.ItemsScanned)
	assert.Len(t, report.OutOfStock, 1)
	assert.Equal(t, "zerado", report.OutOfStock[0].EquipmentID)
	assert.Len(t, report.LowStock, 1)
	assert.Equal(t, "baixo", report.LowStock[0].EquipmentID)
	assert.Empty(t, report.OrdersOpened)
	mockOrders.AssertNotCalled(t, "CreateOrder")
}

// TestRunStockCheck_CustomThreshold testa a classificação contra uma política customizada.
func TestRunStockCheck_CustomThreshold(t *testing.T) {
	mockEq := new(MockEquipmentLister)
	mockPol := new(MockPolicyLister)
	mockOrders := new(MockOrderCreator)
	svc := newMonitor(mockEq, mockPol, mockOrders)

	items := []domain.Equipment{
		{ID: "eq-1", Name: "Projetor", Quantity: 7, IsActive: true},
	}
	policies := map[string]domain.ReorderPolicy{
		"eq-1": {EquipmentID: "eq-1", Threshold: 10, ReorderQuantity: 5},
	}

	mockPol.On("FindAll", mock.Anything).Return(policies, nil)
	mockEq.On("FindAll", mock.Anything, mock.AnythingOfType("domain.EquipmentFilter")).Return(items, nil)

	report, err := svc.RunStockCheck(context.Background(), "stock-monitor")

	assert.NoError(t, err)
	assert.Len(t, report.LowStock, 1)
	assert.Equal(t, 10, report.LowStock[0].Threshold)
}

// TestRunStockCheck_AutoReorder_GroupsBySupplier testa que itens elegíveis
// abrem um único pedido pendente por fornecedor.
func TestRunStockCheck_AutoReorder_GroupsBySupplier(t *testing.T) {
	mockEq := new(MockEquipmentLister)
	mockPol := new(MockPolicyLister)
	mockOrders := new(MockOrderCreator)
	svc := newMonitor(mockEq, mockPol, mockOrders)

	supplierID := uuid.New().String()
	items := []domain.Equipment{
		{ID: "eq-1", Name: "Barraca", Quantity: 0, IsActive: true},
		{ID: "eq-2", Name: "Lanterna", Quantity: 2, IsActive: true},
	}
	policies := map[string]domain.ReorderPolicy{
		"eq-1": {EquipmentID: "eq-1", Threshold: 5, ReorderQuantity: 10, AutoReorder: true, PreferredSupplierID: supplierID},
		"eq-2": {EquipmentID: "eq-2", Threshold: 5, ReorderQuantity: 4, AutoReorder: true, PreferredSupplierID: supplierID},
	}

	mockPol.On("FindAll", mock.Anything).Return(policies, nil)
	mockEq.On("FindAll", mock.Anything, mock.AnythingOfType("domain.EquipmentFilter")).Return(items, nil)

	openedID := uuid.New().String()
	mockOrders.On("CreateOrder", mock.Anything, mock.AnythingOfType("orderservice.CreateOrderRequest"), "stock-monitor").
		Return(domain.StockOrder{ID: openedID, Status: domain.OrderPending}, nil).
		Once().
		Run(func(args mock.Arguments) {
			req := args.Get(1).(orderservice.CreateOrderRequest)
			assert.Equal(t, supplierID, req.SupplierID)
			assert.True(t, req.AutoOrder)
			assert.Len(t, req.Items, 2)
			quantities := map[string]int{}
			for _, item := range req.Items {
				quantities[item.EquipmentID] = item.Quantity
			}
			assert.Equal(t, 10, quantities["eq-1"])
			assert.Equal(t, 4, quantities["eq-2"])
		})

	report, err := svc.RunStockCheck(context.Background(), "stock-monitor")

	assert.NoError(t, err)
	assert.Equal(t, []string{openedID}, report.OrdersOpened)
	mockOrders.AssertExpectations(t)
}

// TestRunStockCheck_AutoReorderWithoutSupplier_NoOrder testa que auto_reorder
// sem fornecedor preferencial só alerta, sem abrir pedido.
func TestRunStockCheck_AutoReorderWithoutSupplier_NoOrder(t *testing.T) {
	mockEq := new(MockEquipmentLister)
	mockPol := new(MockPolicyLister)
	mockOrders := new(MockOrderCreator)
	svc := newMonitor(mockEq, mockPol, mockOrders)

	items := []domain.Equipment{
		{ID: "eq-1", Name: "Barraca", Quantity: 1, IsActive: true},
	}
	policies := map[string]domain.ReorderPolicy{
		"eq-1": {EquipmentID: "eq-1", Threshold: 5, ReorderQuantity: 10, AutoReorder: true},
	}

	mockPol.On("FindAll", mock.Anything).Return(policies, nil)
	mockEq.On("FindAll", mock.Anything, mock.AnythingOfType("domain.EquipmentFilter")).Return(items, nil)

	report, err := svc.RunStockCheck(context.Background(), "stock-monitor")

	assert.NoError(t, err)
	assert.Len(t, report.LowStock, 1)
	assert.Empty(t, report.OrdersOpened)
	mockOrders.AssertNotCalled(t, "CreateOrder")
}

// TestRunStockCheck_OrderFailureDoesNotAbortRound testa que a falha ao abrir
// um pedido não derruba a rodada.
func TestRunStockCheck_OrderFailureDoesNotAbortRound(t *testing.T) {
	mockEq := new(MockEquipmentLister)
	mockPol := new(MockPolicyLister)
	mockOrders := new(MockOrderCreator)
	svc := newMonitor(mockEq, mockPol, mockOrders)

	supplierID := uuid.New().String()
	items := []domain.Equipment{
		{ID: "eq-1", Name: "Barraca", Quantity: 0, IsActive: true},
	}
	policies := map[string]domain.ReorderPolicy{
		"eq-1": {EquipmentID: "eq-1", Threshold: 5, ReorderQuantity: 10, AutoReorder: true, PreferredSupplierID: supplierID},
	}

	mockPol.On("FindAll", mock.Anything).Return(policies, nil)
	mockEq.On("FindAll", mock.Anything, mock.AnythingOfType("domain.EquipmentFilter")).Return(items, nil)
	mockOrders.On("CreateOrder", mock.Anything, mock.AnythingOfType("orderservice.CreateOrderRequest"), "stock-monitor").
		Return(domain.StockOrder{}, assert.AnError)

	report, err := svc.RunStockCheck(context.Background(), "stock-monitor")

	assert.NoError(t, err)
	assert.Len(t, report.OutOfStock, 1)
	assert.Empty(t, report.OrdersOpened)
}

// TestScheduler_RoundFailureIsLoggedAndLoopContinues testa que uma rodada com
// erro não encerra o agendador: a rodada falha, é logada e o Run só retorna
// quando o contexto é cancelado.
func TestScheduler_RoundFailureIsLoggedAndLoopContinues(t *testing.T) {
	mockEq := new(MockEquipmentLister)
	mockPol := new(MockPolicyLister)
	mockOrders := new(MockOrderCreator)
	svc := newMonitor(mockEq, mockPol, mockOrders)

	// A primeira chamada do monitor falha logo no carregamento das políticas.
	mockPol.On("FindAll", mock.Anything).Return(map[string]domain.ReorderPolicy{}, assert.AnError)

	log := logger.NewLogger("error")
	scheduler := monitorservice.NewScheduler(svc, 5*time.Millisecond, time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	// Dá tempo para a rodada de arranque (e pelo menos um tick) falharem.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("o agendador não encerrou após o cancelamento do contexto")
	}
	mockPol.AssertCalled(t, "FindAll", mock.Anything)
}
