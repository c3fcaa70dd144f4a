package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	// Config holds every tunable of a service. All four services share the
	// shape; each one reads the sections it needs.
	Config struct {
		App          App
		HTTP         HTTP
		Log          Log
		PG           PG
		Kafka        Kafka
		Outbox       Outbox
		Consumer     Consumer
		Provisioning Provisioning
		Mail         Mail
		Verification Verification
		Shutdown     Shutdown
		Swagger      Swagger
	}

	App struct {
		Name    string `env:"APP_NAME,required"`
		Version string `env:"APP_VERSION,required"`
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		GroupID string   `env:"KAFKA_GROUP_ID,required"`
	}

	Outbox struct {
		PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"5s"`
		BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
		BatchTimeout time.Duration `env:"OUTBOX_BATCH_TIMEOUT" envDefault:"30s"`
	}

	Consumer struct {
		TransientDelay time.Duration `env:"CONSUMER_TRANSIENT_DELAY" envDefault:"5s"`
		ProcessTimeout time.Duration `env:"CONSUMER_PROCESS_TIMEOUT" envDefault:"30s"`
		CommitTimeout  time.Duration `env:"CONSUMER_COMMIT_TIMEOUT" envDefault:"10s"`
	}

	Provisioning struct {
		MaxAttempts int           `env:"PROVISIONING_MAX_ATTEMPTS" envDefault:"3"`
		BaseDelay   time.Duration `env:"PROVISIONING_BASE_DELAY" envDefault:"1s"`
		Latency     time.Duration `env:"PROVISIONING_LATENCY" envDefault:"200ms"`

		// Tenant names containing this substring fail provisioning; empty
		// disables the simulated failures.
		FailSubstring string `env:"PROVISIONING_FAIL_SUBSTRING" envDefault:""`
	}

	Mail struct {
		Latency time.Duration `env:"MAIL_LATENCY" envDefault:"100ms"`
	}

	// Verification configures the orchestrator's best-effort status checks
	// against the participants' REST endpoints. Empty URLs disable them.
	Verification struct {
		BillingURL      string        `env:"VERIFICATION_BILLING_URL" envDefault:""`
		ProvisioningURL string        `env:"VERIFICATION_PROVISIONING_URL" envDefault:""`
		Timeout         time.Duration `env:"VERIFICATION_TIMEOUT" envDefault:"3s"`
	}

	Shutdown struct {
		Timeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
