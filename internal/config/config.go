package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BrowserConfig configures the browser session.
type BrowserConfig struct {
	Engine    string `yaml:"engine" mapstructure:"engine"`
	Headless  bool   `yaml:"headless" mapstructure:"headless"`
	Bin       string `yaml:"bin" mapstructure:"bin"`
	NoSandbox bool   `yaml:"no_sandbox" mapstructure:"no_sandbox"`
	Stealth   bool   `yaml:"stealth" mapstructure:"stealth"`
}

// SearchConfig configures the per-row search interaction. Timeouts mirror
// the observed behavior of the USASpending SPA: navigation settle is very
// slow, element appearance windows are short.
type SearchConfig struct {
	SelectorsFile    string `yaml:"selectors_file" mapstructure:"selectors_file"`
	NavigateSecs     int    `yaml:"navigate_secs" mapstructure:"navigate_secs"`
	SettleSecs       int    `yaml:"settle_secs" mapstructure:"settle_secs"`
	LoadSecs         int    `yaml:"load_secs" mapstructure:"load_secs"`
	InputWaitSecs    int    `yaml:"input_wait_secs" mapstructure:"input_wait_secs"`
	FillSecs         int    `yaml:"fill_secs" mapstructure:"fill_secs"`
	SettleDelayMS    int    `yaml:"settle_delay_ms" mapstructure:"settle_delay_ms"`
	SubmitAppearSecs int    `yaml:"submit_appear_secs" mapstructure:"submit_appear_secs"`
	SubmitClickSecs  int    `yaml:"submit_click_secs" mapstructure:"submit_click_secs"`
	ResultsWaitSecs  int    `yaml:"results_wait_secs" mapstructure:"results_wait_secs"`
	LabelReadSecs    int    `yaml:"label_read_secs" mapstructure:"label_read_secs"`
	RowDelayMS       int    `yaml:"row_delay_ms" mapstructure:"row_delay_ms"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AWARDCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.port", 8080)
	v.SetDefault("browser.engine", "chromium")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("search.navigate_secs", 60)
	v.SetDefault("search.settle_secs", 450)
	v.SetDefault("search.load_secs", 60)
	v.SetDefault("search.input_wait_secs", 70)
	v.SetDefault("search.fill_secs", 5)
	v.SetDefault("search.settle_delay_ms", 200)
	v.SetDefault("search.submit_appear_secs", 6)
	v.SetDefault("search.submit_click_secs", 8)
	v.SetDefault("search.results_wait_secs", 10)
	v.SetDefault("search.label_read_secs", 2)
	v.SetDefault("search.row_delay_ms", 600)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
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
