package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a script"}}]}`))
	}))
	defer server.Close()

	client := NewCompletionClient(Config{CompletionBaseURL: server.URL, CompletionAPIKey: "test-key"})

	text, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "write a script"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a script", text)
}

func TestCompletionRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewCompletionClient(Config{CompletionBaseURL: server.URL})

	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "slow down", pe.Message)
}

func TestCompletionTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewCompletionClient(Config{
		CompletionBaseURL: server.URL,
		GenerateTimeout:   20 * time.Millisecond,
	})

	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestImageGenerateAndDownload(t *testing.T) {
	var imageURL string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/generations":
			_, _ = w.Write([]byte(`{"data":[{"url":"` + imageURL + `","revised_prompt":"a better prompt"}]}`))
		case "/image.png":
			_, _ = w.Write([]byte("png-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	imageURL = server.URL + "/image.png"

	client := NewImageClient(Config{CompletionBaseURL: server.URL})

	result, err := client.Generate(context.Background(), ImageRequest{Prompt: "a lighthouse", Size: "1024x1024"})
	require.NoError(t, err)
	assert.Equal(t, "a better prompt", result.RevisedPrompt)

	body, err := client.Download(context.Background(), result.URL)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestImageGenerateInvalidRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"prompt rejected"}}`))
	}))
	defer server.Close()

	client := NewImageClient(Config{CompletionBaseURL: server.URL})

	_, err := client.Generate(context.Background(), ImageRequest{Prompt: "x"})
	require.Error(t, err)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, FailureInvalidRequest, pe.Kind)
	assert.Equal(t, "prompt rejected", pe.Message)
}

func TestSpeechSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/text-to-speech/" + DefaultVoiceID:
			assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
			_, _ = w.Write([]byte("mp3-bytes"))
		case "/voices":
			_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Clara"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewSpeechClient(Config{SpeechBaseURL: server.URL, SpeechAPIKey: "secret"})

	audio, err := client.Synthesize(context.Background(), SpeechRequest{Text: "hello world"})
	require.NoError(t, err)
	defer audio.Close()

	data, err := io.ReadAll(audio)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))

	voices, err := client.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "Clara", voices[0].Name)
}

func TestSpeechUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewSpeechClient(Config{SpeechBaseURL: server.URL})

	_, err := client.Synthesize(context.Background(), SpeechRequest{Text: "hello"})
	require.Error(t, err)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, FailureUnavailable, pe.Kind)
}
