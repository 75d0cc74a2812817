package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"stockprice_backend/internal/config"
	jwtmw "stockprice_backend/internal/platform/jwt"
)

func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := jwtmw.NewGenerator(cfg.JWTSecret, *ttl).GenerateToken(*subject, jwtmw.RoleAdmin)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
