package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
	API      APIConfig
	Payment  PaymentConfig
	Panel    PanelConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type BotConfig struct {
	Token      string
	WebhookURL string
	AdminID    int64
}

type APIConfig struct {
	Key string
}

type PaymentConfig struct {
	ZarinPal    ZarinPalConfig
	Zibal       ZibalConfig
	CallbackURL string
}

type ZarinPalConfig struct {
	Merchant string
	Sandbox  bool
}

type ZibalConfig struct {
	Merchant string
}

type PanelConfig struct {
	Name          string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("ZARINPAL_SANDBOX", false)
	viper.SetDefault("PANEL_NAME", "khpanel")
	viper.SetDefault("ADMIN_EMAIL", "admin@localhost")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Bot: BotConfig{
			Token:      viper.GetString("BOT_TOKEN"),
			WebhookURL: viper.GetString("BOT_WEBHOOK_URL"),
			AdminID:    viper.GetInt64("BOT_ADMIN_ID"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Payment: PaymentConfig{
			ZarinPal: ZarinPalConfig{
				Merchant: viper.GetString("ZARINPAL_MERCHANT"),
				Sandbox:  viper.GetBool("ZARINPAL_SANDBOX"),
			},
			Zibal: ZibalConfig{
				Merchant: viper.GetString("ZIBAL_MERCHANT"),
			},
			CallbackURL: viper.GetString("PAYMENT_CALLBACK_URL"),
		},
		Panel: PanelConfig{
			Name:          viper.GetString("PANEL_NAME"),
			AdminEmail:    viper.GetString("ADMIN_EMAIL"),
			AdminPassword: viper.GetString("ADMIN_PASSWORD"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.API.Key == "" {
		log.Println("WARNING: API_KEY is not set")
	}

	return cfg, nil
}
