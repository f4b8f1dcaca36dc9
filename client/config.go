package client

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the client settings. LoadConfig reads them from the BITELOG_
// prefix, e.g. BITELOG_API_URL, BITELOG_GEMINI_API_KEY.
type Config struct {
	APIURL string `envconfig:"API_URL" default:"http://localhost:8080"`

	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`

	AnalysisTimeout time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"60s"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// Home is the local state directory; empty means ~/.bitelog.
	Home string `envconfig:"HOME"`
}

// LoadConfig populates Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process("BITELOG", &c); err != nil {
		return Config{}, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return c, nil
}
