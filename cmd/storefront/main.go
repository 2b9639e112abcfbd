package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"storefront-client/internal/app"
	"storefront-client/internal/config"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app.App, args []string) error
}

var commands = map[string]command{
	"login":        {"login -email E -password P", runLogin},
	"register":     {"register -username U -email E -password P [-full-name N]", runRegister},
	"logout":       {"logout", runLogout},
	"whoami":       {"whoami", runWhoami},
	"products":     {"products [-category C] [-search S] [-skip N] [-limit N]", runProducts},
	"product":      {"product ID", runProduct},
	"categories":   {"categories", runCategories},
	"cart":         {"cart", runCart},
	"cart-add":     {"cart-add -product ID [-quantity N]", runCartAdd},
	"cart-update":  {"cart-update -product ID -quantity N", runCartUpdate},
	"cart-remove":  {"cart-remove -product ID", runCartRemove},
	"cart-clear":   {"cart-clear", runCartClear},
	"checkout":     {"checkout -name N -address A -city C -postal P -country C [-phone P]", runCheckout},
	"orders":       {"orders", runOrders},
	"order":        {"order ID", runOrder},
	"import":       {"import -file products.csv", runImport},
	"seed":         {"seed [-clear]", runSeed},
	"order-status": {"order-status -id ID -status S", runOrderStatus},
	"order-paid":   {"order-paid -id ID [-paid=true]", runOrderPaid},
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: storefront <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init storefront", zap.Error(err))
	}

	a.Start(ctx)
	runErr := cmd.run(ctx, a, os.Args[2:])

	if cfg.MetricsDump {
		if err := a.WriteMetrics(os.Stderr); err != nil {
			logger.Warn("dump metrics", zap.Error(err))
		}
	}
	a.Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "storefront %s: %v\n", os.Args[1], runErr)
		stop()
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}
