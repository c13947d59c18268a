package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gorent/config"
	"gorent/internal/pkg/cache"
	"gorent/internal/pkg/database"
	"gorent/internal/pkg/logger"
	"gorent/internal/pkg/middleware"
	"gorent/internal/pkg/notifier"
	"gorent/internal/pkg/token"

	"gorent/internal/api/audit"
	"gorent/internal/api/equipment"
	"gorent/internal/api/maintenance"
	"gorent/internal/api/monitor"
	"gorent/internal/api/reorder"
	"gorent/internal/api/router"
	"gorent/internal/api/stockorder"
	"gorent/internal/api/user"
	"gorent/internal/repository/equipmentrepo"
	"gorent/internal/repository/ledgerrepo"
	"gorent/internal/repository/maintenancerepo"
	"gorent/internal/repository/orderrepo"
	"gorent/internal/repository/reorderrepo"
	"gorent/internal/repository/supplierrepo"
	"gorent/internal/repository/userrepo"
	"gorent/internal/service/auditservice"
	"gorent/internal/service/equipmentservice"
	"gorent/internal/service/maintenanceservice"
	"gorent/internal/service/monitorservice"
	"gorent/internal/service/orderservice"
	"gorent/internal/service/reorderservice"
	"gorent/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	if err := godotenv.Load(); err != nil {
		// Sem .env as variáveis essenciais podem estar no ambiente (ex: Docker).
		stdlog.Println("Aviso: arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// D. Notificador de alertas de estoque. SMTP quando configurado,
	// senão os alertas vão para o log estruturado.
	var alertNotifier notifier.Notifier
	if cfg.SMTPHost != "" {
		alertNotifier = notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.AlertEmail)
		log.Info("Notificador SMTP configurado.", map[string]interface{}{"host": cfg.SMTPHost})
	} else {
		alertNotifier = notifier.NewLogNotifier(log)
	}

	// 3. Injeção de Dependências (Repository -> Service -> Handler)

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	equipmentRepo := equipmentrepo.NewEquipmentRepository(db, cacheClient, cfg.DBTimeout, log)
	ledgerRepo := ledgerrepo.NewLedgerRepository(db, cfg.DBTimeout, log)
	reorderRepo := reorderrepo.NewReorderRepository(db, cfg.DBTimeout, log)
	supplierRepo := supplierrepo.NewSupplierRepository(db, cfg.DBTimeout, log)
	orderRepo := orderrepo.NewOrderRepository(db, cacheClient, cfg.DBTimeout, log)
	maintenanceRepo := maintenancerepo.NewMaintenanceRepository(db, cfg.DBTimeout, log)

	userSvc := userservice.NewService(userRepo, tokenSvc)
	equipmentSvc := equipmentservice.NewService(equipmentRepo, alertNotifier, log)
	auditSvc := auditservice.NewService(ledgerRepo, equipmentRepo, log)
	reorderSvc := reorderservice.NewService(reorderRepo, equipmentRepo, supplierRepo, log)
	orderSvc := orderservice.NewService(orderRepo, supplierRepo, equipmentRepo, log)
	monitorSvc := monitorservice.NewService(equipmentRepo, reorderRepo, orderSvc, alertNotifier, log)
	maintenanceSvc := maintenanceservice.NewService(maintenanceRepo, equipmentRepo, log)

	handlers := router.Handlers{
		User:        user.NewHandler(userSvc, log),
		Equipment:   equipment.NewHandler(equipmentSvc, auditSvc, log),
		Audit:       audit.NewHandler(auditSvc, log),
		Reorder:     reorder.NewHandler(reorderSvc, log),
		StockOrder:  stockorder.NewHandler(orderSvc, log),
		Monitor:     monitor.NewHandler(monitorSvc, log),
		Maintenance: maintenance.NewHandler(maintenanceSvc, log),
	}

	// 4. Roteador + middlewares globais
	r := router.NewRouter(handlers, tokenSvc)
	rateLimited := middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rateLimited,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Agendador do monitor de estoque (uma rodada no arranque, depois
	// a cada intervalo configurado)
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	scheduler := monitorservice.NewScheduler(monitorSvc, cfg.StockCheckInterval, cfg.StockCheckStartupDelay, log)
	go scheduler.Run(schedulerCtx)

	// 6. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoRent ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
