package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// SpeechClient converts an audio file into caption-block-formatted text
// (SRT payload). Implementations bound their own wait time.
type SpeechClient interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// WhisperClient calls the OpenAI audio transcription endpoint and requests
// SRT-formatted output
type WhisperClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewWhisperClient creates a WhisperClient with the given credentials and timeout
func NewWhisperClient(apiKey, baseURL, model string, timeout time.Duration) *WhisperClient {
	return NewWhisperClientWithLogger(apiKey, baseURL, model, timeout, zap.NewNop())
}

// NewWhisperClientWithLogger creates a WhisperClient with a custom logger
func NewWhisperClientWithLogger(apiKey, baseURL, model string, timeout time.Duration, logger *zap.Logger) *WhisperClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhisperClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  createAPIClient(timeout),
		logger:  logger,
	}
}

// createAPIClient creates an HTTP client for large-upload API calls with
// separate timeouts for connection establishment vs the overall request
func createAPIClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Transcribe uploads the audio file and returns the service's SRT payload
func (w *WhisperClient) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat audio file: %w", err)
	}

	w.logger.Info("sending audio to transcription service",
		zap.String("audio", audioPath),
		zap.Int64("size_bytes", info.Size()),
		zap.String("language", language))

	body, contentType, err := w.buildMultipartBody(audioPath, language)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		w.logger.Warn("transcription service returned non-200 status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", truncate(payload, 512)))
		return "", fmt.Errorf("transcription service returned status %d", resp.StatusCode)
	}

	w.logger.Info("received transcription payload",
		zap.Int("bytes", len(payload)))

	return string(payload), nil
}

// buildMultipartBody assembles the multipart form for the transcription upload
func (w *WhisperClient) buildMultipartBody(audioPath, language string) (io.Reader, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("model", w.model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "srt"); err != nil {
		return nil, "", fmt.Errorf("failed to write response_format field: %w", err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("failed to write language field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy audio into request: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// truncate bounds response bodies included in log output
func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
