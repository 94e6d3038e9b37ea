// Command probe_models sends a one-word prompt to every configured candidate
// model and reports which of them answer with the current credentials.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"notesnap/internal/adapter/llm"
	"notesnap/internal/config"
	"notesnap/internal/logger"

	"go.uber.org/zap"
)

const probePrompt = "Reply with the single word: ok"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	generator, err := llm.NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		logger.Get().Fatal("Failed to create LLM client", zap.Error(err))
	}

	available := 0
	for _, model := range cfg.LLM.Candidates {
		reply, err := generator.Generate(ctx, model, probePrompt)
		if err != nil {
			fmt.Printf("%-28s unavailable: %v\n", model, err)
			continue
		}
		available++
		fmt.Printf("%-28s ok (%q)\n", model, strings.TrimSpace(reply))
	}

	if available == 0 {
		fmt.Println("no candidate model answered")
		os.Exit(1)
	}
	fmt.Printf("%d of %d candidate models answered\n", available, len(cfg.LLM.Candidates))
}
