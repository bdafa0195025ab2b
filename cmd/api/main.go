package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-graphql-users/internal/core/cache"
	"go-gin-graphql-users/internal/core/config"
	"go-gin-graphql-users/internal/core/database"
	"go-gin-graphql-users/internal/core/logger"
	"go-gin-graphql-users/internal/core/server"
	"go-gin-graphql-users/internal/domain"
	"go-gin-graphql-users/internal/repo"
	"go-gin-graphql-users/internal/transport/gql"
	"go-gin-graphql-users/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		// logger 依赖配置，这里只能用 stderr
		_, _ = os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, cleanup := newLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()
	gin.DefaultWriter = logger.ToWriter(log.Named("gin"), zapcore.DebugLevel)
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库：打不开或建表失败都直接退出
	db := mustOpenDB(cfg, log)
	log.Info("database opened", zap.String("driver", cfg.DB.Driver), zap.String("dsn", displayDSN(cfg)))
	userRepo := repo.NewUserRepo(db, log)
	if cfg.DB.AutoMigrate {
		if err := userRepo.Migrate(context.Background()); err != nil {
			log.Fatal("create users table failed", zap.Error(err))
		}
	}

	var users domain.UserRepository = userRepo
	if cfg.Redis.Addr != "" {
		c, rdb, err := cache.NewRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("redis connect failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		users = repo.NewCachedUserRepo(userRepo, c, time.Duration(cfg.Redis.TTLSec)*time.Second, log)
		log.Info("user cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	schema, err := gql.NewSchema(gql.NewResolver(users), log, gql.Options{
		MaxDepth:       cfg.App.GraphQL.MaxDepth,
		MaxParallelism: cfg.App.GraphQL.MaxParallelism,
	})
	if err != nil {
		log.Fatal("graphql schema", zap.Error(err))
	}

	h := cfg.App.HTTP
	r := router.NewAPIEngine(log, schema, router.APIOptions{
		GraphQLPath:    cfg.App.GraphQL.Path,
		RequestTimeout: time.Duration(h.RequestTimeoutSec) * time.Second,
		MaxBodyBytes:   h.MaxBodyBytes,
		RateLimitRPS:   h.RateLimitRPS,
		RateLimitBurst: h.RateLimitBurst,
		RateLimitPerIP: h.RateLimitPerIP,
		MaxConcurrent:  h.MaxConcurrent,
	})
	srv := server.BuildServer(
		server.Addr(h.Host, h.Port), r,
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)
	servers := []*http.Server{srv}

	if cfg.App.Admin.Port > 0 {
		ready := func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
		admin := server.BuildServer(
			server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port),
			router.NewAdminEngine(log, ready),
			5*time.Second, 10*time.Second, 60*time.Second,
		)
		servers = append(servers, admin)
		go serve(log, admin, "admin")
		log.Info("admin listening",
			zap.String("metrics", server.HumanURL(cfg.App.Admin.Host, cfg.App.Admin.Port)+"/metrics"))
	}

	go serve(log, srv, "api")
	log.Info("server ready", zap.String("url", server.HumanURL(h.Host, h.Port)+cfg.App.GraphQL.Path))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		_ = s.Shutdown(ctx)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped gracefully")
}

func serve(log *zap.Logger, srv *http.Server, name string) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(name+" listen failed", zap.String("addr", srv.Addr), zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	f := cfg.Log.File
	if f.Filename == "" {
		return logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Filename:   f.Filename,
		MaxSizeMB:  f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAgeDays: f.MaxAgeDays,
		Compress:   f.Compress,
	})
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
	if err != nil {
		l.Fatal("open database failed", zap.Error(&domain.StoreError{Op: "open", Err: err}))
	}
	return db
}

// displayDSN hides credentials of network databases.
func displayDSN(cfg *config.Config) string {
	if cfg.DB.Driver == "" || cfg.DB.Driver == "sqlite" {
		return cfg.DB.DSN
	}
	return cfg.DB.Driver + "://****"
}
