package orderservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gorent/internal/domain"
	"gorent/internal/pkg/logger"
	"gorent/internal/service/orderservice"
)

// MockOrderRepository é uma implementação mock da interface OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order domain.StockOrder) (domain.StockOrder, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(domain.StockOrder), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (domain.StockOrder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.StockOrder), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter domain.StockOrderFilter) ([]domain.StockOrder, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.StockOrder), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.StockOrderStatus, trackingNumber string) error {
	args := m.Called(ctx, orderID, status, trackingNumber)
	return args.Error(0)
}

func (m *MockOrderRepository) Deliver(ctx context.Context, order domain.StockOrder, actorID string) (domain.StockOrder, error) {
	args := m.Called(ctx, order, actorID)
	return args.Get(0).(domain.StockOrder), args.Error(1)
}

// MockSupplierReader é uma implementação mock da interface SupplierReader.
type MockSupplierReader struct {
	mock.Mock
}

func (m *MockSupplierReader) FindByID(ctx context.Context, id string) (domain.Supplier, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Supplier), args.Error(1)
}

// MockEquipmentReader é uma implementação mock da interface EquipmentReader.
type MockEquipmentReader struct {
	mock.Mock
}

func (m *MockEquipmentReader) FindByID(ctx context.Context, id string) (domain.Equipment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Equipment), args.Error(1)
}

func newService(repo *MockOrderRepository, sup *MockSupplierReader, eq *MockEquipmentReader) *orderservice.Service {
	return orderservice.NewService(repo, sup, eq, logger.NewLogger("debug"))
}

// TestCreateOrder_Success_PriceSnapshot testa que linhas sem preço herdam o
// preço atual do equipamento.
func TestCreateOrder_Success_PriceSnapshot(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	supplierID := uuid.New().String()
	equipmentID := uuid.New().String()

	mockSup.On("FindByID", mock.Anything, supplierID).
		Return(domain.Supplier{ID: supplierID, Active: true}, nil)
	mockEq.On("FindByID", mock.Anything, equipmentID).
		Return(domain.Equipment{ID: equipmentID, UnitPrice: decimal.NewFromFloat(99.90)}, nil)
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.StockOrder")).
		Return(domain.StockOrder{ID: uuid.New().String(), Status: domain.OrderPending}, nil).
		Run(func(args mock.Arguments) {
			saved := args.Get(1).(domain.StockOrder)
			assert.True(t, decimal.NewFromFloat(99.90).Equal(saved.Items[0].UnitPrice))
			assert.Equal(t, "staff-1", saved.CreatedBy)
		})

	req := orderservice.CreateOrderRequest{
		SupplierID: supplierID,
		Items:      []domain.StockOrderItem{{EquipmentID: equipmentID, Quantity: 5}},
	}

	order, err := svc.CreateOrder(context.Background(), req, "staff-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	mockRepo.AssertExpectations(t)
}

// TestCreateOrder_Fail_InactiveSupplier testa a rejeição de fornecedor inativo.
func TestCreateOrder_Fail_InactiveSupplier(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	supplierID := uuid.New().String()
	mockSup.On("FindByID", mock.Anything, supplierID).
		Return(domain.Supplier{ID: supplierID, Active: false}, nil)

	req := orderservice.CreateOrderRequest{
		SupplierID: supplierID,
		Items:      []domain.StockOrderItem{{EquipmentID: "eq-1", Quantity: 1}},
	}

	_, err := svc.CreateOrder(context.Background(), req, "staff-1")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save")
}

// TestCreateOrder_Fail_NoItems testa a rejeição de pedido sem linhas.
func TestCreateOrder_Fail_NoItems(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	req := orderservice.CreateOrderRequest{SupplierID: uuid.New().String()}

	_, err := svc.CreateOrder(context.Background(), req, "staff-1")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save")
}

// TestCreateOrder_Fail_InvalidQuantity testa a rejeição de linha com quantidade zero.
func TestCreateOrder_Fail_InvalidQuantity(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	supplierID := uuid.New().String()
	mockSup.On("FindByID", mock.Anything, supplierID).
		Return(domain.Supplier{ID: supplierID, Active: true}, nil)

	req := orderservice.CreateOrderRequest{
		SupplierID: supplierID,
		Items:      []domain.StockOrderItem{{EquipmentID: "eq-1", Quantity: 0}},
	}

	_, err := svc.CreateOrder(context.Background(), req, "staff-1")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save")
}

// TestAdvanceStatus_Success_Confirm testa um avanço sem efeito colateral.
func TestAdvanceStatus_Success_Confirm(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	orderID := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, orderID).
		Return(domain.StockOrder{ID: orderID, Status: domain.OrderPending}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, orderID, domain.OrderConfirmed, "").
		Return(nil)

	order, err := svc.AdvanceStatus(context.Background(), orderID, domain.OrderConfirmed, "", "staff-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, order.Status)
	mockRepo.AssertNotCalled(t, "Deliver")
}

// TestAdvanceStatus_Success_DeliveryTriggersStockIn testa que a entrega passa
// pelo caminho transacional de recebimento.
func TestAdvanceStatus_Success_DeliveryTriggersStockIn(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	orderID := uuid.New().String()
	shipped := domain.StockOrder{
		ID:     orderID,
		Status: domain.OrderShipped,
		Items: []domain.StockOrderItem{
			{EquipmentID: "eq-1", Quantity: 3},
			{EquipmentID: "eq-2", Quantity: 7},
		},
	}
	delivered := shipped
	delivered.Status = domain.OrderDelivered

	mockRepo.On("FindByID", mock.Anything, orderID).Return(shipped, nil)
	mockRepo.On("Deliver", mock.Anything, shipped, "staff-1").Return(delivered, nil)

	order, err := svc.AdvanceStatus(context.Background(), orderID, domain.OrderDelivered, "", "staff-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, order.Status)
	mockRepo.AssertNotCalled(t, "UpdateStatus")
	mockRepo.AssertExpectations(t)
}

// TestAdvanceStatus_Fail_IllegalTransition testa a rejeição de saltos na máquina de estados.
func TestAdvanceStatus_Fail_IllegalTransition(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	orderID := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, orderID).
		Return(domain.StockOrder{ID: orderID, Status: domain.OrderPending}, nil)

	_, err := svc.AdvanceStatus(context.Background(), orderID, domain.OrderDelivered, "", "staff-1")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Deliver")
	mockRepo.AssertNotCalled(t, "UpdateStatus")
}

// TestAdvanceStatus_Fail_CancelShipped testa que pedido enviado não cancela.
func TestAdvanceStatus_Fail_CancelShipped(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockSup := new(MockSupplierReader)
	mockEq := new(MockEquipmentReader)
	svc := newService(mockRepo, mockSup, mockEq)

	orderID := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, orderID).
		Return(domain.StockOrder{ID: orderID, Status: domain.OrderShipped}, nil)

	_, err := svc.AdvanceStatus(context.Background(), orderID, domain.OrderCancelled, "", "staff-1")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "UpdateStatus")
}
