package equipment

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
	"gorent/internal/service/auditservice"
)

// EquipmentService define o contrato que o Handler espera da camada de Serviço.
type EquipmentService interface {
	CreateEquipment(ctx context.Context, eq domain.Equipment, actorID string) (domain.Equipment, error)
	GetEquipment(ctx context.Context, id string) (domain.Equipment, error)
	ListEquipment(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error)
	UpdateEquipmentDetails(ctx context.Context, eq domain.Equipment) (domain.Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error
	Mutate(ctx context.Context, mut domain.EquipmentMutation) (domain.MutationResult, error)
	BatchMutate(ctx context.Context, muts []domain.EquipmentMutation, reason, actorID string) (domain.BatchMutationResult, error)
}

// AuditService expõe o lado de leitura do ledger por equipamento.
type AuditService interface {
	GetEquipmentHistory(ctx context.Context, equipmentID string) ([]domain.LedgerEntry, error)
	VerifyEquipment(ctx context.Context, equipmentID string) (auditservice.VerificationResult, error)
}

// Handler agrupa todos os métodos de Handler de equipamento.
type Handler struct {
	Service EquipmentService
	Audit   AuditService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc EquipmentService, audit AuditService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Audit:   audit,
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

// actorID extrai o ID do usuário autenticado das claims do contexto.
func actorID(ctx context.Context) string {
	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}

// CollectionHandler lida com /v1/equipment (POST cria, GET lista).
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

	var eq domain.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateEquipment(ctx, eq, actorID(ctx))
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EquipmentFilter{
		Name:       q.Get("name"),
		Category:   domain.EquipmentCategory(q.Get("category")),
		Status:     domain.EquipmentStatus(q.Get("status")),
		ActiveOnly: q.Get("active_only") == "true",
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	items, err := h.Service.ListEquipment(r.Context(), filter)
	h.handleServiceResponse(w, r, items, err, http.StatusOK)
}

// ItemHandler lida com /v1/equipment/{id} e seus sub-recursos:
// /mutate, /history e /verify.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// ["v1", "equipment", "{id}"] ou ["v1", "equipment", "{id}", "{sub}"]
	if len(segments) < 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	equipmentID := segments[2]

	if len(segments) == 3 {
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, equipmentID)
		case http.MethodPut:
			h.update(w, r, equipmentID)
		case http.MethodDelete:
			h.delete(w, r, equipmentID)
		default:
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		}
		return
	}

	switch segments[3] {
	case "mutate":
		h.mutate(w, r, equipmentID)
	case "history":
		h.history(w, r, equipmentID)
	case "verify":
		h.verify(w, r, equipmentID)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id string) {
	eq, err := h.Service.GetEquipment(r.Context(), id)
	h.handleServiceResponse(w, r, eq, err, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id string) {
	var eq domain.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	eq.ID = id

	updated, err := h.Service.UpdateEquipmentDetails(r.Context(), eq)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.Service.DeleteEquipment(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var mut domain.EquipmentMutation
	if err := json.NewDecoder(r.Body).Decode(&mut); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	mut.EquipmentID = id
	mut.ActorID = actorID(ctx)

	result, err := h.Service.Mutate(ctx, mut)
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.Audit.GetEquipmentHistory(r.Context(), id)
	h.handleServiceResponse(w, r, entries, err, http.StatusOK)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	result, err := h.Audit.VerifyEquipment(r.Context(), id)
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

// BatchMutateHandler lida com POST /v1/equipment/mutations/batch.
// Rota restrita a administradores.
func (h *Handler) BatchMutateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var batchRequest struct {
		Reason    string                     `json:"reason"`
		Mutations []domain.EquipmentMutation `json:"mutations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&batchRequest); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	result, err := h.Service.BatchMutate(ctx, batchRequest.Mutations, batchRequest.Reason, actorID(ctx))
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}
