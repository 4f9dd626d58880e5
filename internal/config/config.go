package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`

		// RateLimit is requests per second per client IP on /api/auth; 0 disables it.
		RateLimit float64 `mapstructure:"rate_limit"`
		RateBurst int     `mapstructure:"rate_burst"`
	} `mapstructure:"auth"`
	MFA struct {
		Issuer     string        `mapstructure:"issuer"`
		PendingTTL time.Duration `mapstructure:"pending_ttl"`
		QRSize     int           `mapstructure:"qr_size"`
	} `mapstructure:"mfa"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

// LoadConfig reads config.yaml from the given paths (default ".") and overlays
// environment variables, including those from an optional .env file.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("auth.rate_limit", "AUTH_RATE_LIMIT")
	v.BindEnv("auth.rate_burst", "AUTH_RATE_BURST")
	v.BindEnv("mfa.issuer", "MFA_ISSUER")
	v.BindEnv("mfa.pending_ttl", "MFA_PENDING_TTL")
	v.BindEnv("mfa.qr_size", "MFA_QR_SIZE")
	v.BindEnv("jaeger.otlp_endpoint", "JAEGER_OTLP_ENDPOINT")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.Kafka.Brokers = splitBrokers(cfg.Kafka.Brokers)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("auth.rate_limit", 1.0)
	v.SetDefault("auth.rate_burst", 10)
	v.SetDefault("mfa.issuer", "Employment Placement App")
	v.SetDefault("mfa.pending_ttl", 5*time.Minute)
	v.SetDefault("mfa.qr_size", 256)
}

// KAFKA_BROKERS arrives as a single comma separated string from the env.
func splitBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.DB.DSN == "" {
		return errors.New("db.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.MFA.PendingTTL <= 0 {
		return errors.New("mfa.pending_ttl must be positive")
	}
	return nil
}
