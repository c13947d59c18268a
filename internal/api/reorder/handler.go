package reorder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/middleware"
)

// ReorderService define o contrato que o Handler espera da camada de Serviço.
type ReorderService interface {
	GetPolicy(ctx context.Context, equipmentID string) (domain.ReorderPolicy, error)
	UpsertPolicy(ctx context.Context, policy domain.ReorderPolicy) (domain.ReorderPolicy, error)
	DeletePolicy(ctx context.Context, equipmentID string) error
	ListPolicies(ctx context.Context) (map[string]domain.ReorderPolicy, error)
}

// Handler agrupa os métodos de Handler das políticas de reposição.
type Handler struct {
	Service ReorderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ReorderService, log logger.Logger) *Handler {
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

// CollectionHandler lida com GET /v1/reorder-policies (lista todas as
// políticas persistidas).
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	policies, err := h.Service.ListPolicies(r.Context())
	h.handleServiceResponse(w, r, policies, err, http.StatusOK)
}

// ItemHandler lida com /v1/reorder-policies/{equipmentID}:
// GET materializa (e devolve) a política efetiva, PUT grava, DELETE remove.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	equipmentID := segments[2]

	switch r.Method {
	case http.MethodGet:
		policy, err := h.Service.GetPolicy(r.Context(), equipmentID)
		h.handleServiceResponse(w, r, policy, err, http.StatusOK)
	case http.MethodPut:
		var policy domain.ReorderPolicy
		if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		policy.EquipmentID = equipmentID
		if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
			policy.UpdatedBy = claims.UserID
		}

		saved, err := h.Service.UpsertPolicy(r.Context(), policy)
		h.handleServiceResponse(w, r, saved, err, http.StatusOK)
	case http.MethodDelete:
		err := h.Service.DeletePolicy(r.Context(), equipmentID)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
