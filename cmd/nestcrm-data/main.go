package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nestcrm-data/internal/audit"
	"nestcrm-data/internal/config"
	"nestcrm-data/internal/database"
	httpapi "nestcrm-data/internal/http"
	"nestcrm-data/internal/idp"
	"nestcrm-data/internal/logger"
	"nestcrm-data/internal/repository"
	"nestcrm-data/internal/service"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "nestcrm-data")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	// Repositories: Postgres when available, in-memory fallback for local dev.
	var (
		db            *sql.DB
		tenants       repository.TenantsRepository
		users         repository.UsersRepository
		memberships   repository.MembershipsRepository
		links         repository.IdentityLinksRepository
		leads         repository.LeadsRepository
		contracts     repository.ContractsRepository
		subscriptions repository.SubscriptionsRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for nestcrm-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory repositories", zap.Error(err))
		}
	}
	if db != nil {
		tenants = repository.NewPostgresTenantsRepository(db)
		users = repository.NewPostgresUsersRepository(db)
		memberships = repository.NewPostgresMembershipsRepository(db)
		links = repository.NewPostgresIdentityLinksRepository(db)
		leads = repository.NewPostgresLeadsRepository(db)
		contracts = repository.NewPostgresContractsRepository(db)
		subscriptions = repository.NewPostgresSubscriptionsRepository(db)
	} else {
		tenants = repository.NewMemoryTenantsRepository()
		users = repository.NewMemoryUsersRepository()
		memberships = repository.NewMemoryMembershipsRepository()
		links = repository.NewMemoryIdentityLinksRepository()
		leads = repository.NewMemoryLeadsRepository()
		contracts = repository.NewMemoryContractsRepository()
		subscriptions = repository.NewMemorySubscriptionsRepository()
	}

	// Audit trail: Redis stream when reachable, structured log otherwise.
	var auditSink audit.Sink
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, audit events go to the log", zap.Error(err))
		_ = redisClient.Close()
		redisClient = nil
		auditSink = audit.NewLogSink(log)
	} else {
		auditSink = audit.NewRedisSink(redisClient, cfg.Audit.Stream, log)
	}

	// Identity provider: remote userinfo endpoint, or the static dev provider.
	var provider idp.Provider
	if cfg.IdP.BaseURL != "" {
		provider = idp.NewHTTPProvider(cfg.IdP.BaseURL, log)
	} else {
		log.Warn("IDP_BASE_URL not set, using static identity provider")
		provider = idp.NewStaticProvider()
	}

	identity := service.NewIdentityResolver(users, links, log)
	access := service.NewAccessService(memberships, links, log)
	tenantService := service.NewTenantService(tenants, memberships, subscriptions, identity, auditSink, log)
	leadService := service.NewLeadService(leads, contracts, auditSink, log)

	guard := httpapi.NewGuard(provider, access)
	router := httpapi.NewRouter(log)
	router.RegisterTenantRoutes(httpapi.NewTenantsHandler(tenantService, tenants, guard, log))
	router.RegisterLeadRoutes(httpapi.NewLeadsHandler(leadService, tenants, guard, log))
	router.RegisterContractRoutes(httpapi.NewContractsHandler(contracts, guard, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
