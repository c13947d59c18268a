package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/middleware"
	"gorent/internal/service/maintenanceservice"
)

// MaintenanceService define o contrato que o Handler espera da camada de Serviço.
type MaintenanceService interface {
	ScheduleMaintenance(ctx context.Context, req maintenanceservice.ScheduleMaintenanceRequest, actorID string) (domain.MaintenanceRecord, error)
	GetMaintenance(ctx context.Context, id string) (domain.MaintenanceRecord, error)
	ListMaintenanceByEquipment(ctx context.Context, equipmentID string) ([]domain.MaintenanceRecord, error)
	StartMaintenance(ctx context.Context, id, actorID string) (domain.MaintenanceRecord, error)
	CompleteMaintenance(ctx context.Context, id string, cost decimal.Decimal, actorID string) (domain.MaintenanceRecord, error)
	CancelMaintenance(ctx context.Context, id, actorID string) (domain.MaintenanceRecord, error)
	FileDamageReport(ctx context.Context, req maintenanceservice.FileDamageRequest, actorID string) (domain.DamageReport, error)
	GetDamageReport(ctx context.Context, id string) (domain.DamageReport, error)
	ListDamageByEquipment(ctx context.Context, equipmentID string) ([]domain.DamageReport, error)
	AdvanceDamageStatus(ctx context.Context, id string, newStatus domain.DamageStatus, repairCost decimal.Decimal, actorID string) (domain.DamageReport, error)
}

// Handler agrupa os métodos de Handler de manutenção e dano.
type Handler struct {
	Service MaintenanceService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc MaintenanceService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

func actorID(ctx context.Context) string {
	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}

// MaintenanceCollectionHandler lida com /v1/maintenance:
// POST agenda, GET ?equipment_id= lista o histórico de um equipamento.
func (h *Handler) MaintenanceCollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		ctx := r.Context()
		var req maintenanceservice.ScheduleMaintenanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
			return
		}
		record, err := h.Service.ScheduleMaintenance(ctx, req, actorID(ctx))
		h.handleServiceResponse(w, r, record, err, http.StatusCreated)
	case http.MethodGet:
		equipmentID := r.URL.Query().Get("equipment_id")
		records, err := h.Service.ListMaintenanceByEquipment(r.Context(), equipmentID)
		h.handleServiceResponse(w, r, records, err, http.StatusOK)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// MaintenanceItemHandler lida com /v1/maintenance/{id} (GET) e as ações
// /start, /complete e /cancel (POST).
func (h *Handler) MaintenanceItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) < 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	recordID := segments[2]
	ctx := r.Context()

	if len(segments) == 3 {
		if r.Method != http.MethodGet {
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
			return
		}
		record, err := h.Service.GetMaintenance(ctx, recordID)
		h.handleServiceResponse(w, r, record, err, http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	switch segments[3] {
	case "start":
		record, err := h.Service.StartMaintenance(ctx, recordID, actorID(ctx))
		h.handleServiceResponse(w, r, record, err, http.StatusOK)
	case "complete":
		var completeRequest struct {
			Cost decimal.Decimal `json:"cost"`
		}
		if err := json.NewDecoder(r.Body).Decode(&completeRequest); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		record, err := h.Service.CompleteMaintenance(ctx, recordID, completeRequest.Cost, actorID(ctx))
		h.handleServiceResponse(w, r, record, err, http.StatusOK)
	case "cancel":
		record, err := h.Service.CancelMaintenance(ctx, recordID, actorID(ctx))
		h.handleServiceResponse(w, r, record, err, http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

// DamageCollectionHandler lida com /v1/damage:
// POST abre um laudo, GET ?equipment_id= lista os laudos de um equipamento.
func (h *Handler) DamageCollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		ctx := r.Context()
		var req maintenanceservice.FileDamageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
			return
		}
		report, err := h.Service.FileDamageReport(ctx, req, actorID(ctx))
		h.handleServiceResponse(w, r, report, err, http.StatusCreated)
	case http.MethodGet:
		equipmentID := r.URL.Query().Get("equipment_id")
		reports, err := h.Service.ListDamageByEquipment(r.Context(), equipmentID)
		h.handleServiceResponse(w, r, reports, err, http.StatusOK)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// DamageItemHandler lida com /v1/damage/{id} (GET) e /v1/damage/{id}/status
// (POST avança a máquina de estados do laudo).
func (h *Handler) DamageItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) < 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	reportID := segments[2]
	ctx := r.Context()

	if len(segments) == 3 {
		if r.Method != http.MethodGet {
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
			return
		}
		report, err := h.Service.GetDamageReport(ctx, reportID)
		h.handleServiceResponse(w, r, report, err, http.StatusOK)
		return
	}

	if segments[3] != "status" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var statusRequest struct {
		Status     domain.DamageStatus `json:"status"`
		RepairCost decimal.Decimal     `json:"repair_cost"`
	}
	if err := json.NewDecoder(r.Body).Decode(&statusRequest); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	report, err := h.Service.AdvanceDamageStatus(ctx, reportID, statusRequest.Status, statusRequest.RepairCost, actorID(ctx))
	h.handleServiceResponse(w, r, report, err, http.StatusOK)
}
