// Command admin inspects and edits the users table directly, using the same
// configuration as the API server.
//
//	admin [--config path] list
//	admin [--config path] get <userId>
//	admin [--config path] delete <userId>
//	admin [--config path] migrate
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"go-gin-graphql-users/internal/core/config"
	"go-gin-graphql-users/internal/core/database"
	"go-gin-graphql-users/internal/core/logger"
	"go-gin-graphql-users/internal/repo"
)

var errUsage = errors.New("usage: admin [--config path] list | get <userId> | delete <userId> | migrate")

func main() {
	_ = godotenv.Load()
	fs := pflag.NewFlagSet("admin", pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", os.Getenv("CONFIG_PATH"), "config file")
	verbose := fs.BoolP("verbose", "v", false, "log at debug level")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, cleanup := logger.New(level, false)
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		Username: cfg.DB.Username,
		Password: cfg.DB.Password,
		LogLevel: cfg.DB.LogLevel,
		Logger:   log,
	})
	if err != nil {
		log.Fatal("open database failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := run(context.Background(), repo.NewUserRepo(db, log), fs.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, users *repo.UserRepo, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	switch args[0] {
	case "migrate":
		if err := users.Migrate(ctx); err != nil {
			return err
		}
		return enc.Encode(map[string]string{"status": "users table ready"})
	case "list":
		us, err := users.List(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(us)
	case "get", "delete":
		if len(args) != 2 {
			return errUsage
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad userId %q: %w", args[1], errUsage)
		}
		if args[0] == "delete" {
			if err := users.Delete(ctx, id); err != nil {
				return err
			}
			return enc.Encode(map[string]string{"status": "User deleted"})
		}
		u, err := users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return enc.Encode(u)
	default:
		return errUsage
	}
}
