package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Backtest BacktestConfig `yaml:"backtest"`
	API      APIConfig      `yaml:"api"`
	Trading  TradingConfig  `yaml:"trading"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// EngineConfig controla el loop de detección/ejecución en vivo.
type EngineConfig struct {
	IntervalSeconds  int     `yaml:"interval_seconds"`
	MinVolume24h     float64 `yaml:"min_volume_24h"`
	MinProfitMargin  float64 `yaml:"min_profit_margin"` // coste objetivo = 1 - margen
	MaxSlippage      float64 `yaml:"max_slippage"`
	CooldownSeconds  int     `yaml:"cooldown_seconds"`
	StaleMaxSeconds  int     `yaml:"stale_max_seconds"`
	CapitalPerTrade  float64 `yaml:"capital_per_trade"`
	MinOrderUSDC     float64 `yaml:"min_order_usdc"`
	MaxPerCycle      int     `yaml:"max_per_cycle"`
	OrderWorkers     int     `yaml:"order_workers"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`   // fracción del coste de entrada
	TakeProfitPct    float64 `yaml:"take_profit_pct"` // 0 = desactivado
	DryRun           bool    `yaml:"dry_run"`
}

// BacktestConfig da los defaults de un run de backtest; los flags del CLI
// pueden sobreescribir el rango y los filtros.
type BacktestConfig struct {
	InitialCapital  float64 `yaml:"initial_capital"`
	CapitalPerTrade float64 `yaml:"capital_per_trade"`
	MinProfitMargin float64 `yaml:"min_profit_margin"`
	CooldownSeconds float64 `yaml:"cooldown_seconds"`
	Speed           float64 `yaml:"speed"` // 0 = sin pausa entre snapshots
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// TradingConfig controla la ejecución real de órdenes.
// La private key NUNCA va en el YAML: solo vía PRIVATE_KEY en el entorno.
type TradingConfig struct {
	RPCURL     string `yaml:"rpc_url"` // nodo Polygon para balances on-chain
	PrivateKey string `yaml:"-"`
}

// StorageConfig controla dónde se persisten snapshots y trades.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben las keys correspondientes del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// Cooldown devuelve el cooldown por mercado como time.Duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Engine.CooldownSeconds) * time.Second
}

// StaleMaxAge devuelve la edad máxima de una oportunidad cacheada.
func (c *Config) StaleMaxAge() time.Duration {
	return time.Duration(c.Engine.StaleMaxSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PRIVATE_KEY"); v != "" {
		cfg.Trading.PrivateKey = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		cfg.Trading.RPCURL = v
	}
	if v := os.Getenv("ARBOT_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 15
	}
	if cfg.Engine.MinVolume24h <= 0 {
		cfg.Engine.MinVolume24h = 1000
	}
	if cfg.Engine.MinProfitMargin <= 0 {
		cfg.Engine.MinProfitMargin = 0.02
	}
	if cfg.Engine.MaxSlippage <= 0 {
		cfg.Engine.MaxSlippage = 0.005
	}
	if cfg.Engine.CooldownSeconds <= 0 {
		cfg.Engine.CooldownSeconds = 60
	}
	if cfg.Engine.StaleMaxSeconds <= 0 {
		cfg.Engine.StaleMaxSeconds = 120
	}
	if cfg.Engine.CapitalPerTrade <= 0 {
		cfg.Engine.CapitalPerTrade = 100
	}
	if cfg.Engine.MinOrderUSDC <= 0 {
		cfg.Engine.MinOrderUSDC = 1.0
	}
	if cfg.Engine.MaxPerCycle <= 0 {
		cfg.Engine.MaxPerCycle = 3
	}
	if cfg.Engine.OrderWorkers <= 0 {
		cfg.Engine.OrderWorkers = 4
	}
	if cfg.Engine.StopLossPct <= 0 {
		cfg.Engine.StopLossPct = 0.5
	}

	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 1000
	}
	if cfg.Backtest.CapitalPerTrade <= 0 {
		cfg.Backtest.CapitalPerTrade = cfg.Engine.CapitalPerTrade
	}
	if cfg.Backtest.MinProfitMargin <= 0 {
		cfg.Backtest.MinProfitMargin = cfg.Engine.MinProfitMargin
	}
	if cfg.Backtest.CooldownSeconds <= 0 {
		cfg.Backtest.CooldownSeconds = float64(cfg.Engine.CooldownSeconds)
	}

	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Trading.RPCURL == "" {
		cfg.Trading.RPCURL = "https://polygon-rpc.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "arbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
