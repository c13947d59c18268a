package stockorder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorent/internal/domain"
	apperror "gorent/internal/errors"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/middleware"
	"gorent/internal/service/orderservice"
)

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	CreateOrder(ctx context.Context, req orderservice.CreateOrderRequest, actorID string) (domain.StockOrder, error)
	GetOrder(ctx context.Context, id string) (domain.StockOrder, error)
	ListOrders(ctx context.Context, filter domain.StockOrderFilter) ([]domain.StockOrder, error)
	AdvanceStatus(ctx context.Context, orderID string, newStatus domain.StockOrderStatus, trackingNumber, actorID string) (domain.StockOrder, error)
}

// Handler agrupa os métodos de Handler dos pedidos de reposição.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
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

// CollectionHandler lida com /v1/stock-orders (POST cria, GET lista).
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req orderservice.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}
	// Pedidos automáticos só nascem do monitor de estoque.
	req.AutoOrder = false

	order, err := h.Service.CreateOrder(ctx, req, actorID(ctx))
	h.handleServiceResponse(w, r, order, err, http.StatusCreated)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.StockOrderFilter{
		SupplierID: q.Get("supplier_id"),
		Status:     domain.StockOrderStatus(q.Get("status")),
		AutoOnly:   q.Get("auto_only") == "true",
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	orders, err := h.Service.ListOrders(r.Context(), filter)
	h.handleServiceResponse(w, r, orders, err, http.StatusOK)
}

// ItemHandler lida com /v1/stock-orders/{id} (GET) e
// /v1/stock-orders/{id}/status (POST avança a máquina de estados).
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) < 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	orderID := segments[2]

	if len(segments) == 3 {
		if r.Method != http.MethodGet {
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
			return
		}
		order, err := h.Service.GetOrder(r.Context(), orderID)
		h.handleServiceResponse(w, r, order, err, http.StatusOK)
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

	ctx := r.Context()
	var statusRequest struct {
		Status         domain.StockOrderStatus `json:"status"`
		TrackingNumber string                  `json:"tracking_number,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&statusRequest); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	order, err := h.Service.AdvanceStatus(ctx, orderID, statusRequest.Status, statusRequest.TrackingNumber, actorID(ctx))
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}
