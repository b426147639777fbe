package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const systemPrompt = "You are a translation assistant. Preserve every markup, shortcode and formatting directive exactly as written and translate only the human-readable text. Reply with the translation only."

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI translates text through the /chat/completions endpoint.
type OpenAI struct {
	cfg  OpenAIConfig
	http *resty.Client
}

// NewOpenAI builds a client. A missing API key is reported per call, not here,
// so a misconfigured deployment still records failed jobs.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)
	return &OpenAI{cfg: cfg, http: c}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate implements Translator.
func (o *OpenAI) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(o.cfg.APIKey) == "" {
		return "", MissingCredential()
	}

	body := chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Translate the following content to %s:\n\n%s", languageLabel(targetLanguage), text)},
		},
	}
	var out chatResponse
	resp, err := o.http.R().
		SetContext(ctx).
		SetAuthToken(o.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", Transport(err)
	}
	if resp.IsError() {
		return "", UnexpectedResponse("status %d: %s", resp.StatusCode(), abbreviate(resp.String(), 300))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", UnexpectedResponse("")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// languageLabel renders "French (fr)" for known codes and the raw code otherwise.
func languageLabel(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return fmt.Sprintf("%s (%s)", name, code)
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
