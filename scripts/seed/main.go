// Seed creates a demo account and a batch of todos through the service layer.
// Run from project root: go run ./scripts/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"tasklist/internal/apperror"
	"tasklist/internal/auth"
	"tasklist/internal/config"
	"tasklist/internal/database"
	"tasklist/internal/repository"
	"tasklist/internal/service"
)

func main() {
	email := flag.String("email", "demo@example.com", "demo account email")
	password := flag.String("password", "demo-password", "demo account password")
	total := flag.Int("todos", 100, "number of todos to create")
	flag.Parse()

	ctx := context.Background()
	if err := seed(ctx, *email, *password, *total); err != nil {
		fmt.Fprintln(os.Stderr, "Seed failed:", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, email, password string, total int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return errors.New("seeding needs STORE_DRIVER=postgres")
	}
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
		return err
	}

	store := repository.NewPostgres(db)
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, cfg.JWTIssuer)
	if err != nil {
		return err
	}
	accounts := service.NewAccounts(service.AccountsParams{
		Store:  store,
		Hasher: auth.NewScryptHasher(auth.ScryptParams{N: cfg.HashScryptN, R: auth.DefaultScryptParams.R, P: auth.DefaultScryptParams.P}, cfg.HashConcurrency),
		Tokens: tokens,
	})
	todos := service.NewTodos(service.TodosParams{Store: store})

	if _, err := accounts.Signup(ctx, email, password); err != nil && !errors.Is(err, apperror.ErrUserExists) {
		return errors.Wrap(err, "signup")
	}
	token, err := accounts.Signin(ctx, email, password)
	if err != nil {
		return errors.Wrap(err, "signin")
	}
	userID, err := tokens.Validate(token)
	if err != nil {
		return err
	}

	start := time.Now()
	for i := 1; i <= total; i++ {
		_, err := todos.CreateTodo(ctx, userID, service.CreateTodoInput{
			Title:       fmt.Sprintf("Todo %d", i),
			Description: fmt.Sprintf("Description for todo %d", i),
			Completed:   i%5 == 0,
		})
		if err != nil {
			return errors.Wrapf(err, "create todo %d", i)
		}
		fmt.Printf("\rInserted %d / %d", i, total)
	}
	fmt.Printf("\nDone: %d todos for %s in %v\nToken: %s\n", total, email, time.Since(start), token)
	return nil
}
