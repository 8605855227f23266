package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const speechProvider = "speech"

const (
	// DefaultVoiceID is the narration voice used when none is requested.
	DefaultVoiceID = "EXAVITQu4vr4xnSDxMaL"

	// DefaultSpeechModel is the synthesis model.
	DefaultSpeechModel = "eleven_multilingual_v2"
)

// VoiceSettings tune the synthesized narration.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// SpeechRequest describes one text-to-speech call.
type SpeechRequest struct {
	Text    string
	VoiceID string
	ModelID string
}

// Voice is one entry of the provider's voice catalog.
type Voice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	PreviewURL  string            `json:"preview_url"`
	Labels      map[string]string `json:"labels"`
}

// SpeechClient calls an ElevenLabs-style text-to-speech endpoint.
type SpeechClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSpeechClient builds a client with the configured generation timeout.
func NewSpeechClient(cfg Config) *SpeechClient {
	return &SpeechClient{
		baseURL: cfg.SpeechBaseURL,
		apiKey:  cfg.SpeechAPIKey,
		client:  &http.Client{Timeout: cfg.generateTimeout()},
	}
}

// Synthesize performs one text-to-speech call and streams the audio
// bytes. The caller must close the returned reader.
func (c *SpeechClient) Synthesize(ctx context.Context, req SpeechRequest) (io.ReadCloser, error) {
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	modelID := req.ModelID
	if modelID == "" {
		modelID = DefaultSpeechModel
	}

	body := struct {
		Text          string        `json:"text"`
		ModelID       string        `json:"model_id"`
		VoiceSettings VoiceSettings `json:"voice_settings"`
	}{
		Text:    req.Text,
		ModelID: modelID,
		VoiceSettings: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Provider: speechProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-speech/"+voiceID, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: speechProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Provider: speechProvider, Kind: classifyTransport(err), Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)

		return nil, &Error{
			Provider:   speechProvider,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    string(raw),
		}
	}

	return resp.Body, nil
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

// Voices fetches the provider's voice catalog.
func (c *SpeechClient) Voices(ctx context.Context) ([]Voice, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, &Error{Provider: speechProvider, Kind: FailureInvalidRequest, Message: err.Error()}
	}

	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Provider: speechProvider, Kind: classifyTransport(err), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)

		return nil, &Error{
			Provider:   speechProvider,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    string(raw),
		}
	}

	var decoded voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &Error{Provider: speechProvider, Kind: FailureUnknown, Message: err.Error()}
	}

	return decoded.Voices, nil
}
