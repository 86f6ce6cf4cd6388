package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database    *Database
	Bolt        *Bolt
	HTTP        *HTTP
	Auth        *Auth
	Payments    *Payments
	Fulfillment *Fulfillment
	Sweep       *Sweep
	Audit       *Audit
	App         *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string `env:"APP_MODE"`
}

type Database struct {
	DSN            string        `env:"DATABASE_URI"`
	MaxConns       int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	ConnectTimeout time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"5s"`
}

// Bolt is used when no database DSN is configured.
type Bolt struct {
	Path string `env:"BOLT_PATH"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Auth struct {
	KeyHex string `env:"AUTH_KEY"`
}

type Payments struct {
	WebhookSecret      string        `env:"WEBHOOK_SECRET"`
	SignatureHeader    string        `env:"SIGNATURE_HEADER" envDefault:"Payment-Signature"`
	SignatureTolerance time.Duration `env:"SIGNATURE_TOLERANCE" envDefault:"5m"`
	ReferenceTTL       time.Duration `env:"REFERENCE_TTL" envDefault:"10m"`
	CheckoutBaseURL    string        `env:"CHECKOUT_BASE_URL" envDefault:"https://checkout.example.com/pay"`
	QRSize             int           `env:"QR_SIZE" envDefault:"256"`
	// SandboxSimulate opens the simulate endpoint to unauthenticated callers.
	SandboxSimulate bool `env:"SANDBOX_SIMULATE"`
}

type Fulfillment struct {
	AwaitingID  int64 `env:"FULFILLMENT_AWAITING_ID" envDefault:"1"`
	PaidID      int64 `env:"FULFILLMENT_PAID_ID" envDefault:"2"`
	CancelledID int64 `env:"FULFILLMENT_CANCELLED_ID" envDefault:"5"`
}

type Sweep struct {
	Interval time.Duration `env:"SWEEP_INTERVAL" envDefault:"0s"`
	MaxAge   time.Duration `env:"SWEEP_MAX_AGE" envDefault:"24h"`
}

type Audit struct {
	KafkaBrokers []string `env:"AUDIT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"AUDIT_KAFKA_TOPIC" envDefault:"payment-audit"`
	Buffer       int      `env:"AUDIT_BUFFER" envDefault:"256"`
}

func NewConfig() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

// LoadAuth reads only the auth section from the environment.
func LoadAuth() (*Auth, error) {
	var auth Auth
	if err := env.Parse(&auth); err != nil {
		return nil, fmt.Errorf("error parsing auth config: %w", err)
	}
	return &auth, nil
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	var db Database
	var bolt Bolt
	var http HTTP
	var auth Auth
	var payments Payments
	var fulfillment Fulfillment
	var sweep Sweep
	var audit Audit
	var app App

	fs.StringVar(&db.DSN, "d", "", "Database string")
	fs.StringVar(&bolt.Path, "b", "payments.db", "Bolt file used without a database")
	fs.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	fs.StringVar(&app.LogLevel, "l", `error`, "Log level")
	fs.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	sections := []struct {
		name string
		v    any
	}{
		{"database", &db},
		{"bolt", &bolt},
		{"http", &http},
		{"auth", &auth},
		{"payments", &payments},
		{"fulfillment", &fulfillment},
		{"sweep", &sweep},
		{"audit", &audit},
		{"app", &app},
	}
	for _, s := range sections {
		if err := env.Parse(s.v); err != nil {
			return nil, fmt.Errorf("error parsing %s config: %w", s.name, err)
		}
	}

	return &Config{
		Database:    &db,
		Bolt:        &bolt,
		HTTP:        &http,
		Auth:        &auth,
		Payments:    &payments,
		Fulfillment: &fulfillment,
		Sweep:       &sweep,
		Audit:       &audit,
		App:         &app,
	}, nil
}
