package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Auth   Auth   `envPrefix:"AUTH_"`
	Stripe Stripe `envPrefix:"STRIPE_"`
	SMTP   SMTP   `envPrefix:"SMTP_"`
}

type Stripe struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	SuccessURL    string `env:"SUCCESS_URL"`
	CancelURL     string `env:"CANCEL_URL"`
}

type Auth struct {
	Secret          string `env:"SECRET"`
	TokenTTLMinutes int    `env:"TOKEN_TTL_MINUTES" envDefault:"15"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"hello@shopper.app"`
	FromName string `env:"FROM_NAME" envDefault:"Shopper"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
