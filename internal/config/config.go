package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting. It is loaded once in main and passed
// down explicitly; nothing reads the environment after startup.
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	MongoURI      string `envconfig:"MONGO_URI" required:"true"`
	MongoDatabase string `envconfig:"MONGO_DB" default:"zepshift"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeBaseURL   string `envconfig:"STRIPE_BASE_URL" default:"https://api.stripe.com"`

	// ClientOrigin is the frontend base URL used for checkout redirects.
	ClientOrigin string `envconfig:"CLIENT_ORIGIN" default:"http://localhost:5173"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"zep-shift"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env when present and parses the environment into a Config.
func Load() (*Config, error) {
	// .env only exists in local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
