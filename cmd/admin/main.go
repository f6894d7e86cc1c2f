// Package main provides the CLI tool for orderdesk administration.
//
// Usage:
//
//	admin token --uid <user-id> --email <email> [--caps admin,finance]
//	admin history <order-id> [--limit 20]
//	admin cleanup
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"orderdesk/internal/core/id"
	"orderdesk/internal/domain/auth"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/infrastructure/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "token":
		cmdToken()
	case "history":
		cmdHistory(ctx)
	case "cleanup":
		cmdCleanup(ctx)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Orderdesk Admin Tool

Usage:
  admin <command> [options]

Commands:
  token     Issue an access token
  history   Show the audit trail of an order
  cleanup   Delete expired idempotency keys
  help      Show this help

Examples:
  admin token --uid u-17 --email ana@example.com --caps admin
  admin history 0192d8e4-6a3b-7c1e-9f00-4b2a1c3d5e6f --limit 50
  admin cleanup

Environment:
  DATABASE_URL  PostgreSQL connection string (history, cleanup)
  JWT_SECRET    Token signing secret (token)`)
}

func cmdToken() {
	var uid, email, caps string
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--uid":
			if i+1 < len(os.Args) {
				uid = os.Args[i+1]
				i++
			}
		case "--email":
			if i+1 < len(os.Args) {
				email = os.Args[i+1]
				i++
			}
		case "--caps":
			if i+1 < len(os.Args) {
				caps = os.Args[i+1]
				i++
			}
		}
	}

	if uid == "" || email == "" {
		fmt.Println("Error: --uid and --email are required")
		os.Exit(1)
	}

	var capList []string
	for _, c := range strings.Split(caps, ",") {
		if c = strings.TrimSpace(c); c != "" {
			capList = append(capList, c)
		}
	}

	jwt := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	token, expires, err := jwt.GenerateAccessToken(uid, email, capList)
	if err != nil {
		fmt.Printf("Error issuing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expires.Format(time.RFC3339))
}

func cmdHistory(ctx context.Context) {
	if len(os.Args) < 3 {
		fmt.Println("Error: order id is required")
		os.Exit(1)
	}
	orderID, err := id.Parse(os.Args[2])
	if err != nil {
		fmt.Printf("Error: invalid order id %q\n", os.Args[2])
		os.Exit(1)
	}

	limit := 20
	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--limit" && i+1 < len(os.Args) {
			n, err := strconv.Atoi(os.Args[i+1])
			if err != nil || n <= 0 {
				fmt.Println("Error: --limit must be a positive number")
				os.Exit(1)
			}
			limit = n
			i++
		}
	}

	pool := connect(ctx)
	defer pool.Close()

	audit, err := postgres.NewAuditService(postgres.NewTxManager(pool))
	if err != nil {
		fmt.Printf("Error initializing audit: %v\n", err)
		os.Exit(1)
	}

	entries, err := audit.GetEntityHistory(ctx, orders.AggregateType, orderID, limit)
	if err != nil {
		fmt.Printf("Error reading history: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No history found.")
		return
	}

	fmt.Printf("%-20s %-8s %-24s %s\n", "WHEN", "ACTION", "USER", "CHANGES")
	fmt.Println(strings.Repeat("-", 80))
	for _, e := range entries {
		who := e.UserIdentity
		if who == "" {
			who = e.UserID
		}
		fmt.Printf("%-20s %-8s %-24s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, who, string(e.Changes))
	}
}

func cmdCleanup(ctx context.Context) {
	pool := connect(ctx)
	defer pool.Close()

	n, err := postgres.NewIdempotencyStore(postgres.NewTxManager(pool), 0).CleanupExpired(ctx)
	if err != nil {
		fmt.Printf("Error cleaning up: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d expired idempotency keys\n", n)
}

func connect(ctx context.Context) *postgres.Pool {
	cfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	cfg.AppName = "orderdesk-admin"
	cfg.MaxConns = 2
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	return pool
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
