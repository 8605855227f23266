package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const completionProvider = "completion"

// DefaultCompletionModel is used when a request leaves Model empty.
const DefaultCompletionModel = "gpt-4o-mini"

// Message is one turn of a chat-completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one text-generation call.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// CompletionClient calls an OpenAI-style chat-completion endpoint.
type CompletionClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCompletionClient builds a client with the configured generation timeout.
func NewCompletionClient(cfg Config) *CompletionClient {
	return &CompletionClient{
		baseURL: cfg.CompletionBaseURL,
		apiKey:  cfg.CompletionAPIKey,
		client:  &http.Client{Timeout: cfg.generateTimeout()},
	}
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete performs one chat-completion call and returns the text of the
// first choice.
func (c *CompletionClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if req.Model == "" {
		req.Model = DefaultCompletionModel
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Provider: completionProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Provider: completionProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &Error{Provider: completionProvider, Kind: classifyTransport(err), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: completionProvider, Kind: FailureUnknown, Message: err.Error()}
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil && resp.StatusCode == http.StatusOK {
		return "", &Error{Provider: completionProvider, Kind: FailureUnknown, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		message := string(body)
		if decoded.Error != nil {
			message = decoded.Error.Message
		}

		return "", &Error{
			Provider:   completionProvider,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	if len(decoded.Choices) == 0 {
		return "", &Error{Provider: completionProvider, Kind: FailureUnknown, Message: "response carried no choices"}
	}

	return decoded.Choices[0].Message.Content, nil
}
