package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

// setDefaults applies the default settings shared by all constructors
func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.whisper_model", "whisper-1")
	v.SetDefault("openai.chat_model", "gpt-4o")
	v.SetDefault("openai.transcription_timeout_sec", 600)
	v.SetDefault("openai.translation_timeout_sec", 180)

	v.SetDefault("audio.language", "ru")
	v.SetDefault("audio.max_upload_bytes", 25*1024*1024)
	v.SetDefault("audio.target_chunk_bytes", 20*1024*1024)
	v.SetDefault("audio.min_chunk_sec", 300)
	v.SetDefault("audio.max_chunk_sec", 900)

	v.SetDefault("transcribe.concurrent", false)
	v.SetDefault("transcribe.chunk_delay_sec", 2)
	v.SetDefault("transcribe.retry_backoff_sec", 5)

	v.SetDefault("translate.batch_size", 40)
	v.SetDefault("translate.max_retry_rounds", 2)

	v.SetDefault("subtitle.max_line_chars", 45)
	v.SetDefault("subtitle.max_lines", 2)

	v.SetDefault("transcoder.ffmpeg_path", "")
	v.SetDefault("transcoder.ffprobe_path", "")
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SUBTRANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific environment variables
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("openai.chat_model", "GPT_MODEL")
	v.BindEnv("transcoder.ffmpeg_path", "FFMPEG_PATH")
	v.BindEnv("transcoder.ffprobe_path", "FFPROBE_PATH")

	return &Configuration{viper: v}, nil
}

// GetAPIKey returns the OpenAI API key
func (c *Configuration) GetAPIKey() string {
	return c.viper.GetString("openai.api_key")
}

// GetBaseURL returns the OpenAI API base URL
func (c *Configuration) GetBaseURL() string {
	return c.viper.GetString("openai.base_url")
}

// GetWhisperModel returns the speech-to-text model identifier
func (c *Configuration) GetWhisperModel() string {
	return c.viper.GetString("openai.whisper_model")
}

// GetChatModel returns the chat-completion model used for translation
func (c *Configuration) GetChatModel() string {
	return c.viper.GetString("openai.chat_model")
}

// SetChatModel overrides the chat-completion model, typically from a command-line flag
func (c *Configuration) SetChatModel(model string) {
	c.viper.Set("openai.chat_model", model)
}

// GetTranscriptionTimeoutSec returns the per-request timeout for speech-to-text calls
func (c *Configuration) GetTranscriptionTimeoutSec() int {
	return c.viper.GetInt("openai.transcription_timeout_sec")
}

// GetTranslationTimeoutSec returns the per-request timeout for translation calls
func (c *Configuration) GetTranslationTimeoutSec() int {
	return c.viper.GetInt("openai.translation_timeout_sec")
}

// GetSourceLanguage returns the spoken-language hint passed to transcription
func (c *Configuration) GetSourceLanguage() string {
	return c.viper.GetString("audio.language")
}

// GetMaxUploadBytes returns the hard upload ceiling of the transcription service
func (c *Configuration) GetMaxUploadBytes() int64 {
	return c.viper.GetInt64("audio.max_upload_bytes")
}

// GetTargetChunkBytes returns the chunk size the planner aims for, below the ceiling
func (c *Configuration) GetTargetChunkBytes() int64 {
	return c.viper.GetInt64("audio.target_chunk_bytes")
}

// GetMinChunkSec returns the lower clamp for computed chunk durations
func (c *Configuration) GetMinChunkSec() float64 {
	return c.viper.GetFloat64("audio.min_chunk_sec")
}

// GetMaxChunkSec returns the upper clamp for computed chunk durations
func (c *Configuration) GetMaxChunkSec() float64 {
	return c.viper.GetFloat64("audio.max_chunk_sec")
}

// GetConcurrentTranscription reports whether chunk transcription runs fully
// concurrent instead of the reliability-favoring sequential default
func (c *Configuration) GetConcurrentTranscription() bool {
	return c.viper.GetBool("transcribe.concurrent")
}

// GetChunkDelaySec returns the deliberate delay between sequential chunk requests
func (c *Configuration) GetChunkDelaySec() int {
	return c.viper.GetInt("transcribe.chunk_delay_sec")
}

// GetRetryBackoffSec returns the backoff before a failed chunk's single retry
func (c *Configuration) GetRetryBackoffSec() int {
	return c.viper.GetInt("transcribe.retry_backoff_sec")
}

// GetBatchSize returns the number of captions per translation request
func (c *Configuration) GetBatchSize() int {
	return c.viper.GetInt("translate.batch_size")
}

// GetMaxRetryRounds returns the retranslation round ceiling
func (c *Configuration) GetMaxRetryRounds() int {
	return c.viper.GetInt("translate.max_retry_rounds")
}

// GetMaxLineChars returns the display line width for subtitle wrapping
func (c *Configuration) GetMaxLineChars() int {
	return c.viper.GetInt("subtitle.max_line_chars")
}

// GetMaxLines returns the display line count limit per subtitle
func (c *Configuration) GetMaxLines() int {
	return c.viper.GetInt("subtitle.max_lines")
}

// GetFFmpegPath returns the explicit ffmpeg binary path, or empty for PATH lookup
func (c *Configuration) GetFFmpegPath() string {
	return c.viper.GetString("transcoder.ffmpeg_path")
}

// GetFFprobePath returns the explicit ffprobe binary path, or empty for PATH lookup
func (c *Configuration) GetFFprobePath() string {
	return c.viper.GetString("transcoder.ffprobe_path")
}
