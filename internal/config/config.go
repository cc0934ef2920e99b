package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token          string
		AdminChatID    int64 `mapstructure:"admin_chat_id"`
		PollTimeoutSec int   `mapstructure:"poll_timeout_sec"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	// Backend REST API производства (MES)
	Backend struct {
		BaseURL string        `mapstructure:"base_url"`
		Token   string        `mapstructure:"token"`
		Timeout time.Duration `mapstructure:"timeout"`
		Breaker struct {
			FailureThreshold uint32        `mapstructure:"failure_threshold"`
			OpenTimeout      time.Duration `mapstructure:"open_timeout"`
		} `mapstructure:"breaker"`
	} `mapstructure:"backend"`

	Workflow struct {
		WorkcenterTypes   []string `mapstructure:"workcenter_types"`
		OrderStatus       string   `mapstructure:"order_status"`
		LowStockThreshold float64  `mapstructure:"low_stock_threshold"`
		HistoryLimit      int      `mapstructure:"history_limit"`
	} `mapstructure:"workflow"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("telegram.poll_timeout_sec", 30)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.breaker.failure_threshold", 5)
	v.SetDefault("backend.breaker.open_timeout", 30*time.Second)
	v.SetDefault("workflow.workcenter_types", []string{"EXTRUDER", "LAMINATOR", "PRINTER", "SLITTER"})
	v.SetDefault("workflow.order_status", "in_progress")
	v.SetDefault("workflow.low_stock_threshold", 1.0)
	v.SetDefault("workflow.history_limit", 10)
}

func Load(path string) (Config, error) {
	// .env подхватываем до viper, чтобы APP_* из файла были видны AutomaticEnv
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Backend.BaseURL == "" {
		return c, errors.New("backend.base_url is required")
	}
	return c, nil
}
