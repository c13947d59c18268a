package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/service/auditservice"
)

// AuditService define o contrato que o Handler espera da camada de Serviço.
type AuditService interface {
	GetAuditLog(ctx context.Context, filter domain.LedgerFilter) (auditservice.AuditPage, error)
}

// Handler agrupa os métodos de Handler do ledger de auditoria.
type Handler struct {
	Service AuditService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc AuditService, log logger.Logger) *Handler {
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

// ListHandler lida com GET /v1/audit. Aceita os filtros equipment_id, action,
// from, to (RFC 3339), page e limit.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := domain.LedgerFilter{
		EquipmentID: q.Get("equipment_id"),
		Action:      domain.LedgerAction(q.Get("action")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Parâmetro 'from' inválido. Use o formato RFC 3339."), http.StatusOK)
			return
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Parâmetro 'to' inválido. Use o formato RFC 3339."), http.StatusOK)
			return
		}
		filter.To = &to
	}

	page, err := h.Service.GetAuditLog(r.Context(), filter)
	h.handleServiceResponse(w, r, page, err, http.StatusOK)
}
