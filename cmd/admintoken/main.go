// File: cmd/admintoken/main.go
// Prints a bearer token for the admin HTTP API.
package main

import (
	"flag"
	"fmt"
	"os"

	"telegram-horoscope-bot/internal/config"
	"telegram-horoscope-bot/internal/infra/web"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	subject := flag.String("sub", "admin", "token subject")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	tok, err := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL).Mint(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
