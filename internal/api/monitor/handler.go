package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/middleware"
)

// MonitorService define o contrato que o Handler espera do monitor de estoque.
type MonitorService interface {
	RunStockCheck(ctx context.Context, actorID string) (domain.StockCheckReport, error)
}

// Handler agrupa os métodos de Handler do monitor de estoque.
type Handler struct {
	Service MonitorService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc MonitorService, log logger.Logger) *Handler {
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

// RunHandler lida com POST /v1/stock-check: dispara uma rodada do monitor
// sob demanda e devolve o relatório. Rota restrita a administradores.
func (h *Handler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	actor := ""
	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		actor = claims.UserID
	}

	report, err := h.Service.RunStockCheck(ctx, actor)
	h.handleServiceResponse(w, r, report, err, http.StatusOK)
}
