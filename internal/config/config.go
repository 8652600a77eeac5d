package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-interest-ledger/pkg/mysql"
)

// 儲存層種類
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
	StoreBadger = "badger"
)

// 收入查詢來源
const (
	IncomeStatic   = "static"
	IncomePostgres = "postgres"
)

// 環境變數 (優先於 yaml)
const (
	EnvGRPCAddr    = "LEDGER_GRPC_ADDR"
	EnvMetricsAddr = "LEDGER_METRICS_ADDR"
	EnvStore       = "LEDGER_STORE"
	EnvLogLevel    = "LEDGER_LOG_LEVEL"
	EnvPostgresDSN = "LEDGER_POSTGRES_DSN"
)

type Config struct {
	GRPC    GRPCConfig    `yaml:"grpc"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	MySQL   mysql.Config  `yaml:"mysql"`
	Income  IncomeConfig  `yaml:"income"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr     string `yaml:"addr"`
	Disabled bool   `yaml:"disabled"` // true 時不啟動 metrics server
}

type LogConfig struct {
	Level string `yaml:"level"` // debug / info / warn / error
}

type StoreConfig struct {
	Kind      string `yaml:"kind"`
	WALPath   string `yaml:"wal_path"`
	BadgerDir string `yaml:"badger_dir"`
}

type IncomeConfig struct {
	Kind        string           `yaml:"kind"`
	Static      map[string]int64 `yaml:"static"`
	PostgresDSN string           `yaml:"postgres_dsn"`
}

// Load 載入設定
//
// 順序: yaml 檔 → .env → 環境變數覆寫 → 預設值 → Validate。
// yaml 檔不存在時只記錄警告並使用預設值。
//
// 參數:
//
//	path: string - yaml 檔路徑
//	envFiles: ...string - .env 檔路徑，未指定時讀取工作目錄下的 .env
//
// 回傳:
//
//	*Config: 設定
//	error: yaml 格式錯誤或設定值不合法
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("config file not found, using defaults", slog.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env 可能不存在 (例如正式環境)，不算錯誤
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("no .env file loaded", slog.String("error", err.Error()))
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		EnvGRPCAddr:    &c.GRPC.Addr,
		EnvMetricsAddr: &c.Metrics.Addr,
		EnvStore:       &c.Store.Kind,
		EnvLogLevel:    &c.Log.Level,
		EnvPostgresDSN: &c.Income.PostgresDSN,
	}
	for key, field := range overrides {
		if value, ok := os.LookupEnv(key); ok {
			*field = value
		}
	}
	// 有給 DSN 但沒指定來源時改用 postgres
	if c.Income.Kind == "" && c.Income.PostgresDSN != "" {
		c.Income.Kind = IncomePostgres
	}
}

// ApplyDefaults 補全未設定的欄位
func (c *Config) ApplyDefaults() {
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Kind == "" {
		c.Store.Kind = StoreMemory
	}
	if c.Store.WALPath == "" {
		c.Store.WALPath = "wal.log"
	}
	if c.Store.BadgerDir == "" {
		c.Store.BadgerDir = "data/badger"
	}
	if c.Income.Kind == "" {
		c.Income.Kind = IncomeStatic
	}
	c.Store.Kind = strings.ToLower(c.Store.Kind)
	c.Income.Kind = strings.ToLower(c.Income.Kind)
	c.MySQL.ApplyDefaults()
}

// Validate 檢查設定值
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreMySQL, StoreBadger:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	switch c.Income.Kind {
	case IncomeStatic:
	case IncomePostgres:
		if c.Income.PostgresDSN == "" {
			return errors.New("income kind postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown income kind %q", c.Income.Kind)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel 將字串轉為 slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
