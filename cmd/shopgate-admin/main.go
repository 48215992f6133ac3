package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/shopgate/internal/auth"
	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/pkg/config"
	"github.com/tjfontaine/shopgate/internal/storage"
	"github.com/tjfontaine/shopgate/internal/storage/rediscache"
)

const usage = `Usage: shopgate-admin <command> [args]

Commands:
  channel <slug> <name> <currency>    create a storefront channel
  user <email> <password> [staff]     create an active user
  app <name>                          register an app and print its token
  app-revoke <token>                  deactivate the app owning a token
  hash <token>                        print the stored hash of an app token

Storage is taken from config.yaml and SHOPGATE_* variables.`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	if command == "hash" {
		if len(args) != 1 {
			return fmt.Errorf("hash takes exactly one token")
		}
		fmt.Printf("SHA-256 Hash: %s\n", auth.HashToken(args[0]))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	switch command {
	case "channel":
		if len(args) != 3 {
			return fmt.Errorf("channel takes <slug> <name> <currency>")
		}
		ch := &domain.Channel{Slug: args[0], Name: args[1], Currency: strings.ToUpper(args[2]), IsActive: true}
		if err := store.CreateChannel(ctx, ch); err != nil {
			return err
		}
		fmt.Printf("Channel %s created (id %s)\n", ch.Slug, ch.ID)

	case "user":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("user takes <email> <password> [staff]")
		}
		hash, err := auth.HashPassword(args[1])
		if err != nil {
			return err
		}
		user := &domain.User{
			Email:        args[0],
			PasswordHash: hash,
			IsActive:     true,
			IsStaff:      len(args) == 3 && args[2] == "staff",
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return err
		}
		fmt.Printf("User %s created (id %s, staff %v)\n", user.Email, user.ID, user.IsStaff)

	case "app":
		if len(args) != 1 {
			return fmt.Errorf("app takes <name>")
		}
		token, err := newToken()
		if err != nil {
			return err
		}
		app, err := auth.RegisterApp(ctx, store, args[0], token)
		if err != nil {
			return err
		}
		fmt.Printf("App %s registered (id %s)\n", app.Name, app.ID)
		fmt.Printf("Token: %s\n", token)
		fmt.Println("\nSend it as:")
		fmt.Printf("  Authorization: Bearer %s\n", token)

	case "app-revoke":
		if len(args) != 1 {
			return fmt.Errorf("app-revoke takes <token>")
		}
		app, err := auth.DeactivateApp(ctx, store, args[0])
		if err != nil {
			return err
		}
		if cfg.Redis.Addr != "" {
			rdb, err := rediscache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return fmt.Errorf("app %s deactivated but cache not invalidated: %w", app.ID, err)
			}
			defer rdb.Close()
			cache := rediscache.NewAppCache(auth.NewAppTokens(store), rdb, cfg.Redis.TTL, nil)
			if err := cache.Invalidate(ctx, args[0]); err != nil {
				return fmt.Errorf("app %s deactivated but cache not invalidated: %w", app.ID, err)
			}
		}
		fmt.Printf("App %s deactivated (id %s)\n", app.Name, app.ID)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
