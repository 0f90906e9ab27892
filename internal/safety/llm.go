package safety

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/config"
)

const (
	llmTimeout   = 8 * time.Second
	maxLLMTips   = 3
	systemPrompt = "You are a safety assistant for volunteers escorting elderly or vulnerable people. " +
		"Reply with at most three short practical safety tips, one per line, without numbering."
)

// Advisor suggests extra tips beyond the fixed rules.
type Advisor interface {
	Tips(ctx context.Context, b Brief) ([]string, error)
}

// LLMClient asks an OpenAI-compatible chat completions endpoint for tips.
type LLMClient struct {
	cfg     config.LLMConfig
	timeout time.Duration
}

// NewLLMClient builds a client for cfg.
func NewLLMClient(cfg config.LLMConfig) *LLMClient {
	return &LLMClient{cfg: cfg, timeout: llmTimeout}
}

// NewAdvisor returns the LLM advisor, or nil when cfg is incomplete.
func NewAdvisor(cfg config.LLMConfig) Advisor {
	if !cfg.Enabled() {
		return nil
	}
	return NewLLMClient(cfg)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) Tips(ctx context.Context, b Brief) ([]string, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	agent := fiber.Post(c.cfg.Endpoint)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.cfg.APIKey)
	agent.JSON(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt(b)},
		},
		MaxTokens:   200,
		Temperature: 0.2,
	})
	agent.Timeout(timeout)

	var resp chatResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return nil, fmt.Errorf("llm request: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("llm request: status %d", code)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm request: empty response")
	}
	return parseTips(resp.Choices[0].Message.Content), nil
}

func prompt(b Brief) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Service: %s.", b.ServiceType)
	if b.ServiceLocation != "" {
		fmt.Fprintf(&sb, " Location: %s.", b.ServiceLocation)
	}
	if b.PINAge > 0 {
		fmt.Fprintf(&sb, " The person is %d years old.", b.PINAge)
	}
	return sb.String()
}

// parseTips splits a reply into tip lines, dropping list markers.
func parseTips(content string) []string {
	var tips []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		if line == "" {
			continue
		}
		tips = append(tips, line)
		if len(tips) == maxLLMTips {
			break
		}
	}
	return tips
}
