package config

import (
	"os"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName   string `mapstructure:"APP_NAME"`
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"APP_ENV"`
	Debug     bool   `mapstructure:"DEBUG"`
	LotPrefix string `mapstructure:"LOT_PREFIX"`
	// TraceMaxDepth caps genealogy traversal depth when the caller passes none.
	TraceMaxDepth int `mapstructure:"TRACE_MAX_DEPTH"`
	AllowNegative bool `mapstructure:"ALLOW_NEGATIVE_STOCK"`
}

// LoadAppConfig initializes the global AppConfig variable from the process
// environment, decoded with mapstructure (weak typing: "true"/"1" -> bool).
func LoadAppConfig() {
	once.Do(func() {
		env := make(map[string]interface{})
		for _, kv := range os.Environ() {
			if i := strings.IndexByte(kv, '='); i > 0 {
				env[kv[:i]] = kv[i+1:]
			}
		}
		cfg := &Config{
			Port:          "8080",
			LotPrefix:     "LOT",
			TraceMaxDepth: 10,
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
		})
		if err == nil {
			_ = dec.Decode(env)
		}
		if cfg.Port == "" {
			cfg.Port = "8080"
		}
		if cfg.TraceMaxDepth <= 0 {
			cfg.TraceMaxDepth = 10
		}
		AppConfig = cfg
	})
}

// GetEnv returns the env var or a default.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
