package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"pizzeria-be/internal/api"
	"pizzeria-be/internal/config"
	"pizzeria-be/internal/db"
	"pizzeria-be/internal/logger"
	"pizzeria-be/internal/user"

	"go.uber.org/zap"
)

var initDBFunc = db.InitDB

// bootstrapGate lets the first administrator be created without an acting
// admin. It is only ever wired into this command.
type bootstrapGate struct{}

func (bootstrapGate) RequireAdmin(context.Context, int64) (*user.User, error) {
	return &user.User{IsAdmin: true, IsActive: true}, nil
}

type options struct {
	Username string
	Email    string
	Password string
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.Username, "username", "admin", "admin username")
	fs.StringVar(&o.Email, "email", "", "admin email")
	fs.StringVar(&o.Password, "password", os.Getenv("ADMIN_PASSWORD"), "admin password (defaults to ADMIN_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, validate(o)
}

func validate(o options) error {
	v := api.NewValidator()
	if err := v.Var(o.Username, "required,min=3,max=50,username_chars"); err != nil {
		return fmt.Errorf("invalid -username: %w", err)
	}
	if err := v.Var(o.Email, "required,email,max=255"); err != nil {
		return fmt.Errorf("invalid -email: %w", err)
	}
	if err := v.Var(o.Password, "required,min=8,max=100,password_strength"); err != nil {
		return errors.New("invalid -password: needs 8..100 characters with upper and lower case letters, a digit and a special character")
	}
	return nil
}

func createAdmin(ctx context.Context, svc user.Service, o options) (*user.User, error) {
	return svc.CreateUser(ctx, 0, user.RegisterInput{
		Username: o.Username,
		Email:    o.Email,
		Password: o.Password,
		IsAdmin:  true,
	})
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	svc := user.NewService(user.NewRepository(database), nil, bootstrapGate{})
	u, err := createAdmin(context.Background(), svc, o)
	if err != nil {
		log.Fatal(err)
	}

	logger.L().Info("admin account ready",
		zap.Int64("user_id", u.ID),
		zap.String("username", u.Username),
		zap.String("email", u.Email),
	)
}
