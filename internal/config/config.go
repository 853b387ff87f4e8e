package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Snapshots SnapshotsConfig `yaml:"snapshots" mapstructure:"snapshots"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Riot      RiotConfig      `yaml:"riot" mapstructure:"riot"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Split     SplitConfig     `yaml:"split" mapstructure:"split"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SnapshotsConfig configures feature extraction.
type SnapshotsConfig struct {
	Frames     []int `yaml:"frames" mapstructure:"frames"`
	CreepScore bool  `yaml:"creep_score" mapstructure:"creep_score"`
	Proportion bool  `yaml:"proportion" mapstructure:"proportion"`
}

// ExportConfig configures tabular export.
type ExportConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Format    string `yaml:"format" mapstructure:"format"`
	Overwrite bool   `yaml:"overwrite" mapstructure:"overwrite"`
}

// RiotConfig holds Riot API credentials and client limits.
type RiotConfig struct {
	Key               string      `yaml:"key" mapstructure:"key"`
	BaseURL           string      `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64     `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int         `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs       int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retry             RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures retries of transient Riot API failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CrawlConfig configures the timeline crawler.
type CrawlConfig struct {
	Region             string `yaml:"region" mapstructure:"region"`
	Tier               string `yaml:"tier" mapstructure:"tier"`
	Queue              string `yaml:"queue" mapstructure:"queue"`
	Count              int    `yaml:"count" mapstructure:"count"`
	MatchesPerSummoner int    `yaml:"matches_per_summoner" mapstructure:"matches_per_summoner"`
	CutoffMinutes      int    `yaml:"cutoff_minutes" mapstructure:"cutoff_minutes"`
	Output             string `yaml:"output" mapstructure:"output"`
}

// SplitConfig configures train/test splitting.
type SplitConfig struct {
	TestSize float64 `yaml:"test_size" mapstructure:"test_size"`
	Seed     uint64  `yaml:"seed" mapstructure:"seed"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// dotEnvPaths are tried in order; the first readable file wins.
var dotEnvPaths = []string{".env", "../.env"}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ZILEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("snapshots.frames", []int{8})
	v.SetDefault("snapshots.creep_score", true)
	v.SetDefault("snapshots.proportion", true)
	v.SetDefault("export.dir", "data")
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.overwrite", false)
	v.SetDefault("riot.key", "")
	v.SetDefault("riot.base_url", "https://%s.api.riotgames.com")
	v.SetDefault("riot.requests_per_second", 15)
	v.SetDefault("riot.burst", 20)
	v.SetDefault("riot.timeout_secs", 30)
	v.SetDefault("riot.retry.max_attempts", 3)
	v.SetDefault("riot.retry.initial_backoff_ms", 500)
	v.SetDefault("riot.retry.max_backoff_ms", 30000)
	v.SetDefault("crawl.region", "na1")
	v.SetDefault("crawl.tier", "CHALLENGER")
	v.SetDefault("crawl.queue", "RANKED_SOLO_5x5")
	v.SetDefault("crawl.count", 100)
	v.SetDefault("crawl.matches_per_summoner", 3)
	v.SetDefault("crawl.cutoff_minutes", 16)
	v.SetDefault("crawl.output", "data/matches.ndjson")
	v.SetDefault("split.test_size", 0.33)
	v.SetDefault("split.seed", 42)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// RIOT_API_KEY is the name the Riot developer portal and most tooling use.
	if cfg.Riot.Key == "" {
		cfg.Riot.Key = lookupRiotKey()
	}
	if cfg.Riot.Key == "" {
		cfg.Riot.Key = readKeyFile(apiKeyFile)
	}

	return &cfg, nil
}

func loadDotEnv() {
	for _, path := range dotEnvPaths {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

func lookupRiotKey() string {
	return strings.Trim(os.Getenv("RIOT_API_KEY"), "\"")
}

// apiKeyFile holds a bare key in the working directory, the last place the
// key is looked up.
const apiKeyFile = "apikey"

func readKeyFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks the settings a command needs before it starts work.
// Mode is one of "snapshot", "crawl", "split" or "serve"; unknown modes only
// get the common checks.
func (c *Config) Validate(mode string) error {
	var problems []string

	if len(c.Snapshots.Frames) == 0 {
		problems = append(problems, "snapshots.frames must not be empty")
	}
	for _, f := range c.Snapshots.Frames {
		if f < 0 {
			problems = append(problems, "snapshots.frames must be non-negative")
			break
		}
	}

	switch mode {
	case "crawl":
		if c.Riot.Key == "" {
			problems = append(problems, "riot.key is required (ZILEAN_RIOT_KEY, RIOT_API_KEY or an apikey file)")
		}
		if c.Crawl.Count <= 0 {
			problems = append(problems, "crawl.count must be positive")
		}
		if c.Crawl.Output == "" {
			problems = append(problems, "crawl.output is required")
		}
	case "split":
		if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
			problems = append(problems, "split.test_size must be in (0, 1)")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be in 1..65535")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid settings for %s:\n  %s", mode, strings.Join(problems, "\n  "))
	}
	return nil
}
