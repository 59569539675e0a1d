package main

import (
	"flag"
	"fmt"
	"log"

	"grimoire/internal/engine/identity"
	"grimoire/internal/platform/audit"
	"grimoire/internal/platform/auth"
	"grimoire/internal/platform/config"
	"grimoire/internal/platform/database"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db)

	admins, err := userRepo.CountByGlobalRole(models.GlobalRoleAdmin)
	if err != nil {
		log.Fatalf("Failed to count admins: %v", err)
	}
	if admins > 0 {
		fmt.Println("An admin account already exists, nothing to do")
		return
	}

	identitySvc := identity.NewService(userRepo, identity.NewRepository(db),
		auth.NewTokenService(cfg.JWT), audit.NewLogger(db), cfg.Tokens)

	user, err := identitySvc.Register(cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	if err := userRepo.UpdateGlobalRole(user.ID, models.GlobalRoleAdmin); err != nil {
		log.Fatalf("Failed to promote admin account: %v", err)
	}

	fmt.Printf("Admin account created: %s\n", user.Email)
}
