package reorderservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/service/reorderservice"
)

// MockReorderRepository é uma implementação mock da interface ReorderRepository.
type MockReorderRepository struct {
	mock.Mock
}

func (m *MockReorderRepository) FindByEquipmentID(ctx context.Context, equipmentID string) (domain.ReorderPolicy, error) {
	args := m.Called(ctx, equipmentID)
	return args.Get(0).(domain.ReorderPolicy), args.Error(1)
}

func (m *MockReorderRepository) Upsert(ctx context.Context, policy domain.ReorderPolicy) (domain.ReorderPolicy, error) {
	args := m.Called(ctx, policy)
	return args.Get(0).(domain.ReorderPolicy), args.Error(1)
}

func (m *MockReorderRepository) Delete(ctx context.Context, equipmentID string) error {
	args := m.Called(ctx, equipmentID)
	return args.Error(0)
}

func (m *MockReorderRepository) FindAll(ctx context.Context) (map[string]domain.ReorderPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]domain.ReorderPolicy), args.Error(1)
}

// MockEquipmentReader é uma implementação mock da interface EquipmentReader.
type MockEquipmentReader struct {
	mock.Mock
}

func (m *MockEquipmentReader) FindByID(ctx context.Context, id string) (domain.Equipment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Equipment), args.Error(1)
}

// MockSupplierReader é uma implementação mock da interface SupplierReader.
type MockSupplierReader struct {
	mock.Mock
}

func (m *MockSupplierReader) FindByID(ctx context.Context, id string) (domain.Supplier, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Supplier), args.Error(1)
}

func newService(repo *MockReorderRepository, eq *MockEquipmentReader, sup *MockSupplierReader) *reorderservice.Service {
	return reorderservice.NewService(repo, eq, sup, logger.NewLogger("debug"))
}

// TestGetPolicy_Success_Existing testa a consulta de uma política já persistida.
func TestGetPolicy_Success_Existing(t *testing.T) {
	mockRepo := new(MockReorderRepository)
	mockEq := new(MockEquipmentReader)
	mockSup := new(MockSupplierReader)
	svc := newService(mockRepo, mockEq, mockSup)

	equipmentID := uuid.New().String()
	existing := domain.ReorderPolicy{EquipmentID: equipmentID, Threshold: 8, ReorderQuantity: 20}
	mockRepo.On("FindByEquipmentID", mock.Anything, equipmentID).Return(existing, nil)

	policy, err := svc.GetPolicy(context.Background(), equipmentID)

	assert.NoError(t, err)
	assert.Equal(t, 8, policy.Threshold)
	mockRepo.AssertNotCalled(t, "Upsert")
}

// TestGetPolicy_Success_MaterializesDefaults testa a materialização lazy da
// política padrão na primeira consulta.
func TestGetPolicy_Success_MaterializesDefaults(t *testing.T) {
	mockRepo := new(MockReorderRepository)
	mockEq := new(MockEquipmentReader)
	mockSup := new(MockSupplierReader)
	svc := newService(mockRepo, mockEq, mockSup)

	equipmentID := uuid.New().String()
	mockRepo.On("FindByEquipmentID", mock.Anything, equipmentID).
		Return(domain.ReorderPolicy{}, apperror.NewNotFoundError("Política não encontrada."))
	mockEq.On("FindByID", mock.Anything, equipmentID).
		Return(domain.Equipment{ID: equipmentID}, nil)
	mockRepo.On("Upsert", mock.Anything, domain.DefaultReorderPolicy(equipmentID)).
		Return(domain.DefaultReorderPolicy(equipmentID), nil)

	policy, err := svc.GetPolicy(context.Background(), equipmentID)

	assert.NoError(t, err)
	assert.Equal(t, domain.DefaultReorderThreshold, policy.Threshold)
	assert.Equal(t, domain.DefaultReorderQuantity, policy.ReorderQuantity)
	assert.False(t, policy.AutoReorder)
	mockRepo.AssertExpectations(t)
}

// TestGetPolicy_Fail_UnknownEquipment testa que a materialização exige equipamento existente.
func TestGetPolicy_Fail_UnknownEquipment(t *testing.T) {
	mockRepo := new(MockReorderRepository)
	mockEq := new(MockEquipmentReader)
	mockSup := new(MockSupplierReader)
	svc := newService(mockRepo, mockEq, mockSup)

	equipmentID := uuid.New().String()
	mockRepo.On("FindByEquipmentID", mock.Anything, equipmentID).
		Return(domain.ReorderPolicy{}, apperror.NewNotFoundError("Política não encontrada."))
	mockEq.On("FindByID", mock.Anything, equipmentID).
		Return(domain.Equipment{}, apperror.NewNotFoundError("Equipamento não encontrado."))

	_, err := svc.GetPolicy(context.Background(), equipmentID)

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Upsert")
}

// TestUpsertPolicy_Fail_InvalidThreshold testa a validação de threshold mínimo.
func TestUpsertPolicy_Fail_InvalidThreshold(t *testing.T) {
	mockRepo := new(MockReorderRepository)
	mockEq := new(MockEquipmentReader)
	mockSup := new(MockSupplierReader)
	svc := newService(mockRepo, mockEq, mockSup)

	policy := domain.ReorderPolicy{
		EquipmentID:     uuid.New().String(),
		Threshold:       0,
		ReorderQuantity: 10,
	}

	_, err := svc.UpsertPolicy(context.Background(), policy)

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Upsert")
}

// TestUpsertPolicy_Fail_AutoReorderWithoutSupplier testa que auto_reorder
// exige fornecedor preferencial.
func TestUpsertPolicy_Fail_AutoReorderWithoutSupplier(t *testing.T) {
	mockRepo := new(MockReorderRepository)
	mockEq := new(MockEquipmentReader)
	mockSup := new(MockSupplierReader)
	svc := newService(mockRepo, mockEq, mockSup)

	policy := domain.ReorderPolicy{
		EquipmentID:     uuid.New().String(),
		Threshold:       5,
		ReorderQuantity: 10,
		AutoReorder:     true,
	}

	_, err := svc.UpsertPolicy(context.Background(), policy)

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Upsert")
}

// TestUpsertPolicy_Fail_InactiveSupplier testa a rejeição de fornecedor inativo.
func TestUpsertPolicy_Fail_InactiveSupplier(t *testing.T) {
	mockRepo := new(MockReorderRepository)
	mockEq := new(MockEquipmentReader)
	mockSup := new(MockSupplierReader)
	svc := newService(mockRepo, mockEq, mockSup)

	equipmentID := uuid.New().String()
	supplierID := uuid.New().String()
	policy := domain.ReorderPolicy{
		EquipmentID:         equipmentID,
		Threshold:           5,
		ReorderQuantity:     10,
		AutoReorder:         true,
		PreferredSupplierID: supplierID,
	}

	mockEq.On("FindByID", mock.Anything, equipmentID).Return(domain.Equipment{ID: equipmentID}, nil)
	mockSup.On("FindByID", mock.Anything, supplierID).Return(domain.Supplier{ID: supplierID, Active: false}, nil)

	_, err := svc.UpsertPolicy(context.Background(), policy)

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Upsert")
}
