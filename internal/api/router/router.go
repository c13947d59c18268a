package router

import (
	"net/http"

	"gorent/internal/api/audit"
	"gorent/internal/api/equipment"
	"gorent/internal/api/maintenance"
	"gorent/internal/api/monitor"
	"gorent/internal/api/reorder"
	"gorent/internal/api/stockorder"
	"gorent/internal/api/user"
	"gorent/internal/domain"
	"gorent/internal/pkg/middleware"
)

// Handlers agrupa os Handlers já inicializados, por injeção de dependências.
type Handlers struct {
	User        *user.Handler
	Equipment   *equipment.Handler
	Audit       *audit.Handler
	Reorder     *reorder.Handler
	StockOrder  *stockorder.Handler
	Monitor     *monitor.Handler
	Maintenance *maintenance.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, tokenSvc middleware.TokenService) http.Handler {

	// ServeMux padrão do net/http; as rotas com sub-recursos fazem o
	// despacho por segmento dentro do próprio Handler.
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	staffOrAdmin := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleStaff)

	// Health check
	mux.HandleFunc("/ping", PingHandler)

	// Autenticação (rotas públicas)
	mux.HandleFunc("/v1/register", h.User.RegisterUserHandler)
	mux.HandleFunc("/v1/login", h.User.LoginUserHandler)

	// Equipamentos. Mutações exigem staff; o lote é restrito a admin.
	mux.HandleFunc("/v1/equipment", auth(staffOrAdmin(h.Equipment.CollectionHandler)))
	mux.HandleFunc("/v1/equipment/", auth(staffOrAdmin(h.Equipment.ItemHandler)))
	mux.HandleFunc("/v1/equipment/mutations/batch", auth(adminOnly(h.Equipment.BatchMutateHandler)))

	// Ledger de auditoria (somente leitura)
	mux.HandleFunc("/v1/audit", auth(staffOrAdmin(h.Audit.ListHandler)))

	// Políticas de reposição (configuração restrita a admin)
	mux.HandleFunc("/v1/reorder-policies", auth(adminOnly(h.Reorder.CollectionHandler)))
	mux.HandleFunc("/v1/reorder-policies/", auth(adminOnly(h.Reorder.ItemHandler)))

	// Monitor de estoque sob demanda
	mux.HandleFunc("/v1/stock-check", auth(adminOnly(h.Monitor.RunHandler)))

	// Pedidos de reposição
	mux.HandleFunc("/v1/stock-orders", auth(staffOrAdmin(h.StockOrder.CollectionHandler)))
	mux.HandleFunc("/v1/stock-orders/", auth(staffOrAdmin(h.StockOrder.ItemHandler)))

	// Manutenção e dano
	mux.HandleFunc("/v1/maintenance", auth(staffOrAdmin(h.Maintenance.MaintenanceCollectionHandler)))
	mux.HandleFunc("/v1/maintenance/", auth(staffOrAdmin(h.Maintenance.MaintenanceItemHandler)))
	mux.HandleFunc("/v1/damage", auth(staffOrAdmin(h.Maintenance.DamageCollectionHandler)))
	mux.HandleFunc("/v1/damage/", auth(staffOrAdmin(h.Maintenance.DamageItemHandler)))

	return mux
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
