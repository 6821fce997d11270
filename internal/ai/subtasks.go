package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// maxSuggestions caps how many subtask suggestions a single call returns.
const maxSuggestions = 5

// ErrService marks failures of the remote suggestion service.
var ErrService = errors.New("ai service failed")

// Generator produces subtask suggestions for a task description by calling
// the Claude Messages API. It is stateless; every call is a single
// request/response round trip with no retry.
type Generator struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	endpoint  string
}

// New creates a subtask generator. Empty model or non-positive maxTokens
// fall back to defaults.
func New(apiKey, modelName string, maxTokens int) *Generator {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Generator{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{},
		endpoint:  apiURL,
	}
}

// GenerateSubtasks asks the model to break taskDescription into 3-5 short,
// actionable subtasks. The model is asked for a JSON array; responses that
// are not well-formed JSON fall back to line splitting with leading list
// markers stripped.
func (g *Generator) GenerateSubtasks(ctx context.Context, taskDescription string) ([]string, error) {
	prompt := fmt.Sprintf(
		`Break down this task into 3-5 specific, actionable subtasks: %q. `+
			`Respond with ONLY a JSON array of subtask descriptions, nothing else. `+
			`Example: ["Research competitor pricing", "Create initial mockups", "Write product description"]`,
		taskDescription,
	)

	reqBody := apiRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, g.endpoint, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling suggestion API: %v", ErrService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrService, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: API error (%d): %s", ErrService, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: API error (%d): %s", ErrService, resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrService, err)
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	suggestions := parseSuggestions(text)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: response contained no usable suggestions", ErrService)
	}
	return suggestions, nil
}

// listMarker matches leading bullet or numbered-list markers such as
// "- ", "* ", "3. " or "2) ".
var listMarker = regexp.MustCompile(`^[-*\d.)\s]+`)

// parseSuggestions extracts subtask texts from a model response. A valid
// JSON array wins; anything else is split into lines, leading list markers
// are stripped, and the result is truncated to maxSuggestions entries.
func parseSuggestions(text string) []string {
	trimmed := strings.TrimSpace(text)

	var parsed []string
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		var out []string
		for _, s := range parsed {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			if len(out) == maxSuggestions {
				break
			}
		}
		return out
	}

	var out []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
