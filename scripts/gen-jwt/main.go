// gen-jwt prints a bearer token for a user id, signed with JWT_SECRET.
// Run from project root: go run ./scripts/gen-jwt -user <id>
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tasklist/internal/auth"
)

func main() {
	userID := flag.String("user", "", "user id to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime; 0 issues a token without exp")
	flag.Parse()

	_ = godotenv.Load(".env")

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}
	tokens, err := auth.NewTokenService(os.Getenv("JWT_SECRET"), *ttl, os.Getenv("JWT_ISSUER"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set:", err)
		os.Exit(1)
	}
	signed, err := tokens.Issue(*userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Issue failed:", err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
