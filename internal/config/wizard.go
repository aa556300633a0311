package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docchat! Let's configure your gateway.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Upstream backend URL.
	upstreamPrompt := promptui.Prompt{
		Label:   "Upstream document API URL",
		Default: cfg.UpstreamURL,
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("upstream URL is required")
			}
			return nil
		},
	}
	upstreamURL, err := upstreamPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	cfg.UpstreamURL = upstreamURL

	// 2. Listen port.
	portPrompt := promptui.Prompt{
		Label:   "Port to listen on",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 3. Embedding index.
	embeddingPrompt := promptui.Select{
		Label: "Select embedding index",
		Items: []string{
			"openai — hosted embeddings (default)",
			"local  — self-hosted embeddings",
		},
	}
	embeddingIdx, _, err := embeddingPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding selection: %w", err)
	}
	embeddings := []EmbeddingType{EmbeddingOpenAI, EmbeddingLocal}
	cfg.Embedding = embeddings[embeddingIdx]

	// 4. Access failure policy.
	failPrompt := promptui.Select{
		Label: "When the permission service is unreachable",
		Items: []string{
			"open   — render the document anyway (favors availability)",
			"closed — deny access until the service recovers",
		},
	}
	failIdx, _, err := failPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("access fail selection: %w", err)
	}
	failModes := []AccessFailMode{FailOpen, FailClosed}
	cfg.AccessFail = failModes[failIdx]

	// 5. Document cache TTL.
	ttlPrompt := promptui.Prompt{
		Label:   "Document cache TTL",
		Default: cfg.DocumentTTL.String(),
		Validate: func(s string) error {
			d, err := time.ParseDuration(s)
			if err != nil || d <= 0 {
				return fmt.Errorf("enter a positive duration, e.g. 5m")
			}
			return nil
		},
	}
	ttlStr, err := ttlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("document ttl: %w", err)
	}
	cfg.DocumentTTL, _ = time.ParseDuration(ttlStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", path)
	return cfg, nil
}
