package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"hrdesk/internal/account"
	"hrdesk/internal/clock"
	"hrdesk/internal/config"
	"hrdesk/internal/seed"
	"hrdesk/internal/store/backend"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env file ignored: %v", err)
	}
	cfg := config.Load()
	if cfg.StorageBackend == config.StorageMemory {
		log.Fatalf("seeding the memory backend has no effect, set STORAGE_BACKEND to file or postgres")
	}
	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer store.Close()

	accounts := account.NewService(store, account.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.AccessTokenTTL,
	}, clock.System{})
	summary, err := seed.Demo(ctx, accounts, store, loc)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("demo data seeded: %d users, %d attendance days, %d leaves", summary.Users, summary.Attendance, summary.Leaves)
}
