// Command issue-token mints a bearer token for a school staff member.
//
//	issue-token -sub u-42 -name "Asha Shrestha" -role ADMIN -ttl 720h
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/cli"
	"schoolaccounts/internal/config"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	sub := flag.String("sub", "", "user id (required)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(core.RoleViewer), "ADMIN, ACCOUNTANT or VIEWER")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	issuer := flag.String("issuer", cfg.JWTIssuer, "token issuer")
	flag.Parse()

	// stdout carries only the token.
	level := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:   level,
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}).WithComponent(log.ComponentAuth)

	caller := core.Caller{
		ID:   strings.TrimSpace(*sub),
		Name: strings.TrimSpace(*name),
		Role: core.Role(strings.ToUpper(strings.TrimSpace(*role))),
	}

	iss, err := auth.NewIssuer(cfg.JWTSecret, *issuer)
	if err != nil {
		logger.Error("Invalid JWT_SECRET", log.FieldError, err)
		os.Exit(1)
	}
	token, err := iss.Issue(caller, *ttl)
	if err != nil {
		logger.Error("Failed to issue token", log.FieldError, err, log.FieldUserID, caller.ID)
		os.Exit(1)
	}

	logger.Info("Token issued",
		log.FieldUserID, caller.ID,
		log.FieldRole, string(caller.Role),
		"expires_at", time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println(token)
}
