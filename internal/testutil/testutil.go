package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-graphql-users/internal/core/database"
	"go-gin-graphql-users/internal/repo"
)

// OpenDB opens a private in-memory SQLite database for one test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
		Logger:       zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewUserRepo returns a migrated repository over OpenDB.
func NewUserRepo(t *testing.T) *repo.UserRepo {
	t.Helper()
	r := repo.NewUserRepo(OpenDB(t), zap.NewNop())
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return r
}

func Ptr[T any](v T) *T { return &v }
