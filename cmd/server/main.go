package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"grimoire/internal/api"
	"grimoire/internal/api/handlers"
	"grimoire/internal/api/middleware"
	"grimoire/internal/engine/board"
	"grimoire/internal/engine/characters"
	"grimoire/internal/engine/identity"
	"grimoire/internal/engine/items"
	"grimoire/internal/engine/orgs"
	"grimoire/internal/engine/sessions"
	"grimoire/internal/pkg/logger"
	"grimoire/internal/platform/audit"
	"grimoire/internal/platform/auth"
	"grimoire/internal/platform/config"
	"grimoire/internal/platform/database"
	"grimoire/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging, "server")

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	imageRepo := repositories.NewImageRepository(db)
	tokenRepo := identity.NewRepository(db)
	sessionRepo := sessions.NewRepository(db)
	charRepo := characters.NewRepository(db)
	itemRepo := items.NewRepository(db)
	boardRepo := board.NewRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditLog := audit.NewLogger(db)
	identitySvc := identity.NewService(userRepo, tokenRepo, tokenSvc, auditLog, cfg.Tokens)
	orgSvc := orgs.NewService(orgRepo, membershipRepo, auditLog)
	sessionSvc := sessions.NewService(sessionRepo, orgSvc, auditLog)
	charSvc := characters.NewService(charRepo, sessionSvc, imageRepo)
	itemSvc := items.NewService(itemRepo, orgSvc, sessionSvc, charRepo, imageRepo)
	imageCache := board.NewImageCache(5 * time.Minute)
	boardSvc := board.NewService(boardRepo, sessionSvc, charRepo, itemRepo, imageRepo, imageCache)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, userRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	// Router
	deps := &api.Dependencies{
		AuthHandler:      handlers.NewAuthHandler(identitySvc),
		OrgHandler:       handlers.NewOrgHandler(orgSvc),
		SessionHandler:   handlers.NewSessionHandler(sessionSvc),
		CharacterHandler: handlers.NewCharacterHandler(charSvc),
		ItemHandler:      handlers.NewItemHandler(itemSvc),
		BoardHandler:     handlers.NewBoardHandler(boardSvc),
		AuditHandler:     handlers.NewAuditHandler(auditLog, orgSvc),
		HealthHandler:    handlers.NewHealthHandler(db),
		AuthMiddleware:   authMiddleware,
		RateLimiter:      rateLimiter,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
