// Command devtoken prints a bearer token for calling a local chama-api.
//
//	JWT_SECRET=dev go run ./cmd/devtoken -member m-1 -role treasurer
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/josh-kwaku/chama-ledger/internal/auth"
	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
)

func main() {
	memberID := flag.String("member", "", "member id the token identifies")
	role := flag.String("role", string(domain.RoleMember), "member role carried in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logging.Init("devtoken", "info", "development")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	if !domain.Role(*role).IsValid() {
		slog.Error("unknown role", "role", *role)
		os.Exit(1)
	}

	token, err := auth.GenerateToken(*memberID, domain.Role(*role), secret, *ttl)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
