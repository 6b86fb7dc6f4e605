package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	errInvalidPort    = errors.New("config: invalid port number")
	errInvalidBaseURL = errors.New("config: API_BASE_URL must be an absolute http(s) URL")
	errInvalidTimeout = errors.New("config: REQUEST_TIMEOUT must be positive")
	errMissingClient  = errors.New("config: AGENT_CLIENT_ID is required")
)

// API holds the configuration of the household API server.
type API struct {
	Port             string        `envconfig:"PORT" default:"12000"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"ERROR"`
	AppOrigin        string        `envconfig:"APP_ORIGIN" default:"http://localhost:5173"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	SeedUserEmail    string        `envconfig:"SEED_USER_EMAIL" default:"admin@livingmemory.local"`
	SeedSessionToken string        `envconfig:"SEED_SESSION_TOKEN"`
}

// Agent holds the configuration of the device pairing agent.
type Agent struct {
	Port           string        `envconfig:"AGENT_PORT" default:"13000"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"ERROR"`
	APIBaseURL     string        `envconfig:"API_BASE_URL" default:"http://localhost:12000"`
	ClientID       string        `envconfig:"AGENT_CLIENT_ID" default:"livingmemory-agent:local"`
	Scope          string        `envconfig:"AGENT_SCOPE" default:"openid profile email"`
	DeviceAuthPath string        `envconfig:"DEVICE_AUTH_PATH" default:"device-auth.json"`
	DisplayOrigin  string        `envconfig:"AGENT_DISPLAY_ORIGIN" default:"*"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
}

// LoadAPI reads the API configuration from the environment, after loading an
// optional .env file from the working directory.
func LoadAPI() (API, error) {
	var cfg API
	if err := load(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

// LoadAgent reads the agent configuration the same way as LoadAPI.
func LoadAgent() (Agent, error) {
	var cfg Agent
	if err := load(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func load(cfg any) error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c API) validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: got %s", errInvalidTimeout, c.RequestTimeout)
	}
	return nil
}

func (c Agent) validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidBaseURL, c.APIBaseURL)
	}
	if c.ClientID == "" {
		return errMissingClient
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: got %s", errInvalidTimeout, c.RequestTimeout)
	}
	return nil
}

func validatePort(p string) error {
	port, err := strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, p)
	}
	return nil
}
