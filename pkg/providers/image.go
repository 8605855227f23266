package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const imageProvider = "image"

// DefaultImageModel is used when a request leaves Model empty.
const DefaultImageModel = "dall-e-2"

// ImageRequest describes one image-generation call.
type ImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// ImageResult is the generated image reference returned by the provider.
type ImageResult struct {
	URL           string
	RevisedPrompt string
}

// ImageClient calls a DALL-E-style image-generation endpoint and
// downloads the resulting image bytes.
type ImageClient struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	downloader *http.Client
}

// NewImageClient builds a client with separate generation and download timeouts.
func NewImageClient(cfg Config) *ImageClient {
	return &ImageClient{
		baseURL:    cfg.CompletionBaseURL,
		apiKey:     cfg.CompletionAPIKey,
		client:     &http.Client{Timeout: cfg.generateTimeout()},
		downloader: &http.Client{Timeout: cfg.downloadTimeout()},
	}
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate performs one image-generation call.
func (c *ImageClient) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if req.Model == "" {
		req.Model = DefaultImageModel
	}

	if req.N == 0 {
		req.N = 1
	}

	body := struct {
		ImageRequest

		ResponseFormat string `json:"response_format"`
	}{ImageRequest: req, ResponseFormat: "url"}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Provider: imageProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: imageProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Provider: imageProvider, Kind: classifyTransport(err), Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: imageProvider, Kind: FailureUnknown, Message: err.Error()}
	}

	var decoded imageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil && resp.StatusCode == http.StatusOK {
		return nil, &Error{Provider: imageProvider, Kind: FailureUnknown, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		message := string(raw)
		if decoded.Error != nil {
			message = decoded.Error.Message
		}

		return nil, &Error{
			Provider:   imageProvider,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	if len(decoded.Data) == 0 {
		return nil, &Error{Provider: imageProvider, Kind: FailureUnknown, Message: "response carried no images"}
	}

	return &ImageResult{
		URL:           decoded.Data[0].URL,
		RevisedPrompt: decoded.Data[0].RevisedPrompt,
	}, nil
}

// Download streams the generated image bytes from the provider URL.
// The caller must close the returned reader.
func (c *ImageClient) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Provider: imageProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	resp, err := c.downloader.Do(httpReq)
	if err != nil {
		return nil, &Error{Provider: imageProvider, Kind: classifyTransport(err), Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()

		return nil, &Error{
			Provider:   imageProvider,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    "image download failed",
		}
	}

	return resp.Body, nil
}
