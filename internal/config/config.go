// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Data   DataConfig
	Cache  CacheConfig
	Engine EngineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// DataConfig locates the tabular inputs the engine consumes. Fetching and
// refreshing those files is an external concern.
type DataConfig struct {
	SalesDir    string
	ProductFile string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	AnalysisTTLSeconds int
}

type EngineConfig struct {
	LeadTimeDays int
	WindowDays   int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DATA_SALES_DIR", "./data/sales")
		viper.SetDefault("DATA_PRODUCT_FILE", "./data/products.csv")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_ANALYSIS_TTL_SECONDS", 600)
		viper.SetDefault("ENGINE_LEAD_TIME_DAYS", 21)
		viper.SetDefault("ENGINE_WINDOW_DAYS", 90)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Data: DataConfig{
				SalesDir:    viper.GetString("DATA_SALES_DIR"),
				ProductFile: viper.GetString("DATA_PRODUCT_FILE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				AnalysisTTLSeconds: viper.GetInt("CACHE_ANALYSIS_TTL_SECONDS"),
			},
			Engine: EngineConfig{
				LeadTimeDays: viper.GetInt("ENGINE_LEAD_TIME_DAYS"),
				WindowDays:   viper.GetInt("ENGINE_WINDOW_DAYS"),
			},
		}
	})

	return instance
}
