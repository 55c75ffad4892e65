// gemchat/services/gemini/client.go
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gemchat/gemchat/utils/logging"

	"go.uber.org/zap"
)

// Turn is one prior exchange replayed as model context.
type Turn struct {
	Role    string
	Content string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
	} `json:"candidates"`
}

// Fixed priming exchange prepended to every outbound context. Constant
// across all chats, not user-configurable.
const (
	primingInstruction = "You are a helpful, friendly AI assistant. Respond clearly and concisely. Use markdown formatting when appropriate."
	primingAck         = "I understand! I'm a helpful, friendly AI assistant. I'll respond clearly and concisely using markdown formatting when appropriate. How can I help you today?"
)

type Client struct {
	apiKey      string
	model       string
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:      apiKey,
		model:       model,
		baseURL:     "https://generativelanguage.googleapis.com/v1beta/models",
		httpClient:  &http.Client{},
		maxAttempts: 2,
		baseDelay:   10 * time.Second,
	}
}

// Generate sends the priming pair, the replayed history and the new user
// message to the generateContent endpoint and returns the reply text.
// Rate-limit failures are retried up to the client's attempt bound with
// linear backoff; every other failure propagates at once.
func (c *Client) Generate(ctx context.Context, history []Turn, message string) (string, error) {
	defer logging.LogDuration(ctx, "gemini_generate")()

	contents := make([]geminiContent, 0, len(history)+3)
	contents = append(contents,
		geminiContent{Role: "user", Parts: []geminiPart{{Text: primingInstruction}}},
		geminiContent{Role: "model", Parts: []geminiPart{{Text: primingAck}}},
	)
	for _, turn := range history {
		role := "model"
		if turn.Role == "user" {
			role = "user"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: turn.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: message}}})

	attempt := 0
	var reply string
	err := Do(ctx, c.maxAttempts, c.baseDelay, IsRateLimited, func() error {
		attempt++
		text, err := c.generateContent(ctx, contents)
		if err != nil {
			if IsRateLimited(err) {
				logging.AppLogger.Warn("Gemini rate limited",
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", c.maxAttempts),
				)
			}
			return err
		}
		reply = text
		return nil
	})
	if err != nil {
		logging.ErrorLogger.Error("Gemini request failed", zap.Error(err))
		return "", err
	}
	return reply, nil
}

func (c *Client) generateContent(ctx context.Context, contents []geminiContent) (string, error) {
	payload, err := json.Marshal(geminiRequest{Contents: contents})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUnknown, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", classifyStatus(res.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnknown, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrUnknown)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
