package main

import (
	"context"
	"fmt"
	"log"

	"crop-catch/internal/authz"
	"crop-catch/internal/cache"
	"crop-catch/internal/cart"
	"crop-catch/internal/config"
	"crop-catch/internal/database"
	"crop-catch/internal/guard"
	"crop-catch/internal/kv"
	"crop-catch/internal/repository"
	"crop-catch/internal/server"
	"crop-catch/internal/service"
	"crop-catch/internal/session"
)

// @title       Crop Catch API
// @version     1.0
// @description Storefront and admin back office for Crop Catch.
// @BasePath    /
func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.Open(cfg.DBDSN, database.SeedOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		DemoData:      cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("database error: %v", err)
	}

	var (
		c           cache.Cache             = cache.NewMemory()
		revocations session.RevocationStore = session.NewMemoryRevocations()
		snapshots   cart.Snapshotter        = cart.NopSnapshotter{}
	)
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis at %s unreachable, continuing: %v", cfg.RedisAddr, err)
		}
		defer client.Close()
		c = cache.NewRedis(client)
		revocations = session.NewRedisRevocations(client)
		snapshots = cart.NewRedisSnapshotter(client, cfg.CartTTL)
		log.Printf("using redis at %s", cfg.RedisAddr)
	}

	var settingsStore kv.Store = kv.NewMemory()
	if cfg.SettingsBackend == config.SettingsBackendDynamoDB {
		ddb, err := kv.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			log.Fatalf("dynamodb error: %v", err)
		}
		settingsStore = kv.NewDynamoDB(ddb, cfg.SettingsTable)
	}

	accounts := repository.NewAccountRepository(db)
	profiles := repository.NewProfileRepository(db)
	products := repository.NewProductRepository(db)
	rfqs := repository.NewRFQRepository(db)
	orders := repository.NewOrderRepository(db)
	audit := database.NewAuditLogger(db)

	mgr := session.NewManager(accounts, profiles, session.Options{
		Secret:      []byte(cfg.SessionSecret),
		TokenTTL:    cfg.TokenTTL,
		Revocations: revocations,
	})
	defer mgr.Close()

	verifier := authz.NewVerifier(profiles, authz.Options{ProvisionMissing: cfg.DevAdminProvisioning})
	admin := authz.NewCapability(verifier)

	authGuard := guard.New(verifier, guard.Options{Scope: guard.ScopeAuth, Timeout: cfg.RoleCheckTimeout})
	adminGuard := guard.New(verifier, guard.Options{
		Scope:   guard.ScopeAdmin,
		Timeout: cfg.RoleCheckTimeout,
		MemoTTL: cfg.GuardMemoTTL,
	})
	mgr.Subscribe(func(ev session.Event) {
		if ev.Type == session.EventSignedOut {
			adminGuard.Forget(ev.UserID)
		}
	})

	users := service.NewUserService(profiles, orders, rfqs, admin, audit, c, cfg.CacheTTL)
	users.OnRoleChange(adminGuard.Forget)
	mgr.Subscribe(func(ev session.Event) {
		switch ev.Type {
		case session.EventSignedUp, session.EventSignedIn, session.EventProfileUpdated:
			users.ProfileChanged(context.Background())
		}
	})

	r := server.NewRouter(cfg, server.Deps{
		Sessions:   mgr,
		Profiles:   profiles,
		AuthGuard:  authGuard,
		AdminGuard: adminGuard,
		Admin:      admin,
		Audit:      audit,
		Carts:      cart.NewRegistry(snapshots),
		Products:   service.NewProductService(products, admin, audit, c, cfg.CacheTTL),
		RFQs:       service.NewRFQService(rfqs, orders, admin, audit, c, cfg.CacheTTL),
		Orders:     service.NewOrderService(orders, admin, audit, c, cfg.CacheTTL),
		Users:      users,
		Settings:   service.NewSettingsService(settingsStore, admin, audit),
		Stats:      service.NewStatsService(products, rfqs, orders, admin, c, cfg.CacheTTL),
		Security:   service.NewSecurityService(profiles, rfqs, orders, admin, audit),
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s (%s)", addr, cfg.AppEnv)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
