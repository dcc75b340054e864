package main

import (
	"context"
	"log"
	"net/http"

	"github.com/hackbay/sembot/agent"
	"github.com/hackbay/sembot/assistant"
	"github.com/hackbay/sembot/azdo"
	"github.com/hackbay/sembot/bot"
	"github.com/hackbay/sembot/config"
	"github.com/hackbay/sembot/github"
	"github.com/hackbay/sembot/prompts"
	sembotslack "github.com/hackbay/sembot/slack"
	"github.com/hackbay/sembot/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if err := prompts.Load(""); err != nil {
		log.Fatalf("failed to load prompts: %v", err)
	}

	ctx := context.Background()

	slackClient := sembotslack.NewClient(cfg.SlackBotToken)
	ghClient := github.NewClient(cfg.GitHubToken)

	adoClient, err := azdo.NewClient(ctx, cfg.AzureOrg, cfg.AzureProject, cfg.AzureToken)
	if err != nil {
		log.Fatalf("failed to connect to Azure DevOps: %v", err)
	}

	registry := agent.NewRegistry()
	if err := tools.RegisterAll(registry, ghClient, adoClient); err != nil {
		log.Fatalf("failed to register tools: %v", err)
	}

	runtime := assistant.NewClient(cfg.OpenAIAPIKey)
	sembot, err := agent.New(ctx, runtime, registry,
		"Software Development Assistant",
		prompts.MustGet(prompts.KeyAssistantInstructions),
		cfg.OpenAIModel,
		cfg.PollInterval,
	)
	if err != nil {
		log.Fatalf("failed to create agent: %v", err)
	}

	b := bot.New(sembot, slackClient)
	handler := sembotslack.NewHandler(cfg.SlackSigningSecret, b.HandleMessage)

	http.Handle("/slack/events", handler)
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("sembot server starting on :%s (model: %s)", cfg.Port, cfg.OpenAIModel)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
