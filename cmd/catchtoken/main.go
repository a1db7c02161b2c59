// Command catchtoken mints an identity token for an owner, for use against a
// server running with JWT_SECRET set:
//
//	catchtoken -user u1 -ttl 2h
//	curl -H "Authorization: Bearer $(catchtoken -user u1)" 'localhost:8080/catches?user_id=u1'
//
// The secret is read the same way the server reads it, from the environment
// or .env.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sakif/castiq/internal/auth"
	"github.com/sakif/castiq/internal/config"
)

func main() {
	user := flag.String("user", "", "owner id to put in the token subject (required)")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	if err := run(*user, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "catchtoken:", err)
		os.Exit(1)
	}
}

func run(user string, ttl time.Duration) error {
	if user == "" {
		return fmt.Errorf("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return err
	}
	token, err := tokens.GenerateWithDuration(user, ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
