package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int   // 0 = 不限时
	MaxBodyBytes      int64 // 请求体上限
	RateLimitRPS      float64
	RateLimitBurst    int
	RateLimitPerIP    bool // 按客户端 IP 分桶
	MaxConcurrent     int64
}

type AdminHTTP struct {
	Host string
	Port int // 0 = 不启动管理端口
}

type GraphQL struct {
	Path           string
	MaxDepth       int
	MaxParallelism int
}

type App struct {
	Name    string
	Env     string
	HTTP    HTTP
	Admin   AdminHTTP
	GraphQL GraphQL `mapstructure:"graphql"`
}

type LogFile struct {
	Filename   string // 为空表示只输出到 stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type Redis struct {
	Addr     string `mapstructure:"addr"` // 为空则不启用缓存
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttlsec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Config struct {
	App   App
	Log   Log
	DB    DB
	Redis Redis `mapstructure:"redis"`
}

const DefaultPath = "./configs/config.local.yaml"

// Load reads the YAML file at path (or $CONFIG_PATH, or DefaultPath) and
// applies APP_* environment overrides. A missing file is not an error: the
// defaults describe a complete local setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 默认路径不存在时直接用默认值
		var nf viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "graphql-users")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "")
	v.SetDefault("app.http.port", 3000)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 15)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 0)
	v.SetDefault("app.http.maxbodybytes", 100<<10) // 100KB
	v.SetDefault("app.http.ratelimitrps", 0)
	v.SetDefault("app.http.ratelimitburst", 0)
	v.SetDefault("app.http.ratelimitperip", false)
	v.SetDefault("app.http.maxconcurrent", 0)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 3001)
	v.SetDefault("app.graphql.path", "/graphql")
	v.SetDefault("app.graphql.maxdepth", 0)
	v.SetDefault("app.graphql.maxparallelism", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.filename", "")
	v.SetDefault("log.file.maxsizemb", 100)
	v.SetDefault("log.file.maxbackups", 7)
	v.SetDefault("log.file.maxagedays", 30)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "./db/db.sqlite")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 1)
	v.SetDefault("db.maxidleconns", 1)
	v.SetDefault("db.connmaxlifetimemin", 0)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlsec", 60)
}
