package main

import (
	"context"
	"flag"
	"log"
	"os"

	"storefront-client/internal/config"
	"storefront-client/internal/db"
	"storefront-client/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back every session slot migration")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if *down {
		if err := migrate.Down(ctx, pool); err != nil {
			logger.Fatalf("roll back migrations: %v", err)
		}
		logger.Println("migrations rolled back")
		return
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Println("migrations applied")
}
