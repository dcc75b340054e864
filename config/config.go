package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort         = "8080"
	defaultModel        = "gpt-4o"
	defaultPollInterval = 100 * time.Millisecond
)

type Config struct {
	SlackBotToken      string
	SlackSigningSecret string
	OpenAIAPIKey       string
	OpenAIModel        string
	GitHubToken        string
	AzureOrg           string
	AzureProject       string
	AzureToken         string
	Port               string
	PollInterval       time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        os.Getenv("OPENAI_MODEL"),
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		AzureOrg:           os.Getenv("AZURE_ORG"),
		AzureProject:       os.Getenv("AZURE_PROJECT"),
		AzureToken:         os.Getenv("AZURE_TOKEN"),
		Port:               os.Getenv("PORT"),
		PollInterval:       defaultPollInterval,
	}

	required := []struct {
		name  string
		value string
	}{
		{"SLACK_BOT_TOKEN", cfg.SlackBotToken},
		{"SLACK_SIGNING_SECRET", cfg.SlackSigningSecret},
		{"OPENAI_API_KEY", cfg.OpenAIAPIKey},
		{"GITHUB_TOKEN", cfg.GitHubToken},
		{"AZURE_ORG", cfg.AzureOrg},
		{"AZURE_PROJECT", cfg.AzureProject},
		{"AZURE_TOKEN", cfg.AzureToken},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = defaultModel
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if raw := os.Getenv("POLL_INTERVAL_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("POLL_INTERVAL_MS must be a positive integer, got %q", raw)
		}
		cfg.PollInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}
