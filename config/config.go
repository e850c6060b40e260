package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Version is the backend release reported by the health endpoint.
const Version = "1.2.0"

type GitHubConfig struct {
	AppID         string
	AppSlug       string
	AppPrivateKey string
}

// IsConfigured returns true if all required GitHub App configuration is present
func (c GitHubConfig) IsConfigured() bool {
	return c.AppID != "" &&
		c.AppSlug != "" &&
		c.AppPrivateKey != ""
}

type SessionConfig struct {
	SigningSecret string
	TTL           time.Duration
}

// IsConfigured returns true if all required session configuration is present
func (c SessionConfig) IsConfigured() bool {
	return c.SigningSecret != ""
}

type RegistryConfig struct {
	TemplateOwner        string
	TemplateRepo         string
	RegistrationWorkflow string
	SchemaFile           string // Optional path to a workflow JSON schema
	ForkPollAttempts     int
	ForkPollDelay        time.Duration
}

type IdentityConfig struct {
	BaseURL string
	AnonKey string
}

// IsConfigured returns true if all required identity backend configuration is present
func (c IdentityConfig) IsConfigured() bool {
	return c.BaseURL != "" &&
		c.AnonKey != ""
}

type SlackConfig struct {
	AlertWebhookURL string
}

// IsConfigured returns true if Slack alerting is set up
func (c SlackConfig) IsConfigured() bool {
	return c.AlertWebhookURL != ""
}

type AppConfig struct {
	// Core configuration
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	UseStrictConfig    bool // If true, error when a required integration is not fully configured

	// Integration configurations (grouped)
	GitHubConfig   GitHubConfig
	SessionConfig  SessionConfig
	RegistryConfig RegistryConfig
	IdentityConfig IdentityConfig
	SlackConfig    SlackConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	forkPollAttempts, err := getEnvIntWithDefault("FORK_POLL_ATTEMPTS", 30)
	if err != nil {
		return nil, err
	}

	forkPollDelay, err := getEnvDurationWithDefault("FORK_POLL_DELAY", time.Second)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := getEnvDurationWithDefault("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		// GitHub App configuration
		GitHubConfig: GitHubConfig{
			AppID:         os.Getenv("GITHUB_APP_ID"),
			AppSlug:       os.Getenv("GITHUB_APP_SLUG"),
			AppPrivateKey: os.Getenv("GITHUB_APP_PRIVATE_KEY"),
		},

		// Session signing configuration
		SessionConfig: SessionConfig{
			SigningSecret: os.Getenv("SESSION_SIGNING_SECRET"),
			TTL:           sessionTTL,
		},

		// Workflow registry configuration (defaults cover the standard template)
		RegistryConfig: RegistryConfig{
			TemplateOwner:        getEnvWithDefault("TEMPLATE_REPO_OWNER", "FaaSr"),
			TemplateRepo:         getEnvWithDefault("TEMPLATE_REPO_NAME", "FaaSr-workflow"),
			RegistrationWorkflow: getEnvWithDefault("REGISTRATION_WORKFLOW_FILE", "register-workflow.yml"),
			SchemaFile:           os.Getenv("WORKFLOW_SCHEMA_FILE"),
			ForkPollAttempts:     forkPollAttempts,
			ForkPollDelay:        forkPollDelay,
		},

		// Identity backend configuration (optional)
		IdentityConfig: IdentityConfig{
			BaseURL: os.Getenv("IDENTITY_BASE_URL"),
			AnonKey: os.Getenv("IDENTITY_ANON_KEY"),
		},

		// Slack configuration (optional)
		SlackConfig: SlackConfig{
			AlertWebhookURL: os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
		},
	}

	// A short secret undermines every session token, so reject it outright.
	if config.SessionConfig.SigningSecret != "" && len(config.SessionConfig.SigningSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SIGNING_SECRET must be at least 32 bytes")
	}

	// Log which integrations are configured
	if config.GitHubConfig.IsConfigured() {
		log.Printf("✅ GitHub App configured")
	} else {
		log.Printf("⚠️ GitHub App not configured - workflow registration will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("GitHub App is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.SessionConfig.IsConfigured() {
		log.Printf("✅ Session signing configured")
	} else {
		log.Printf("⚠️ Session signing not configured - cookie authentication will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("session signing is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.IdentityConfig.IsConfigured() {
		log.Printf("✅ Identity backend configured")
	} else {
		log.Printf("⚠️ Identity backend not configured - bearer token authentication will be disabled")
		// Note: identity is optional, cookie sessions work without it
	}

	if config.SlackConfig.IsConfigured() {
		log.Printf("✅ Slack alerting configured")
	} else {
		log.Printf("⚠️ Slack alerting not configured - error alerts will be disabled")
		// Note: alerting is optional
	}

	return config, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 1s or 500ms: %w", key, err)
	}
	return parsed, nil
}
