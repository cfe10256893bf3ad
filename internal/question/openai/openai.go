package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"triviarush/internal/game"
)

const optionsPerQuestion = 4

type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	http    *http.Client
}

func New(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

const systemPrompt = "You generate multiple-choice trivia questions. " +
	"Respond with a JSON array only, no prose and no code fences. " +
	"Each element has the keys \"prompt\", \"options\" (exactly 4 strings) " +
	"and \"correctIndex\" (0-3)."

// Questions asks the chat completions API for count questions and parses the
// returned JSON array into game questions.
func (c *Client) Questions(ctx context.Context, topic, difficulty string, count int) ([]game.Question, error) {
	if c.APIKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	user := fmt.Sprintf("Generate %d %s trivia questions about %s.", count, difficulty, topic)
	payload := map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
		"temperature": 0.8,
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/chat/completions", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("openai status %d", resp.StatusCode)
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("no choices")
	}
	return parseQuestions(out.Choices[0].Message.Content, count)
}

func parseQuestions(content string, count int) ([]game.Question, error) {
	content = stripFences(content)
	var raw []struct {
		Prompt       string   `json:"prompt"`
		Options      []string `json:"options"`
		CorrectIndex int      `json:"correctIndex"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	out := make([]game.Question, 0, len(raw))
	for _, q := range raw {
		if q.Prompt == "" || len(q.Options) != optionsPerQuestion {
			continue
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			continue
		}
		out = append(out, game.Question{
			ID:           uuid.NewString(),
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		})
	}
	if len(out) == 0 {
		return nil, errors.New("no usable questions in response")
	}
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

// stripFences tolerates models that wrap the JSON in a markdown code block
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
