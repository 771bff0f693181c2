// Package config handles loading and validating the beckon configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
)

// Config is the root configuration for the beckon daemon.
type Config struct {
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Session    SessionConfig    `mapstructure:"session"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AssistantConfig names the assistant and the phrase that wakes it.
type AssistantConfig struct {
	Name     string `mapstructure:"name"`
	WakeWord string `mapstructure:"wake_word"`
}

// SessionConfig drives the voice session loop.
type SessionConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Mode           string        `mapstructure:"mode"`    // "continuous" or "push-to-talk"
	Trigger        string        `mapstructure:"trigger"` // "stdin", "ipc" or "none"
	SocketPath     string        `mapstructure:"socket_path"`
	SpeechTimeout  time.Duration `mapstructure:"speech_timeout"`
	PhraseLimit    time.Duration `mapstructure:"phrase_limit"`
	SilenceTimeout time.Duration `mapstructure:"silence_timeout"`
	Pause          time.Duration `mapstructure:"pause"`
	MinChars       int           `mapstructure:"min_chars"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	Chime          string        `mapstructure:"chime"` // optional mp3 played on wake
}

// SpeechConfig selects the text source and the transcription backends.
type SpeechConfig struct {
	Input           string              `mapstructure:"input"`     // "microphone" or "console"
	Primary         string              `mapstructure:"primary"`   // "openai", "whisper-server", "whisper"
	Secondary       string              `mapstructure:"secondary"` // same choices or "none"
	Language        string              `mapstructure:"language"`
	EnergyThreshold float64             `mapstructure:"energy_threshold"`
	OpenAI          OpenAIConfig        `mapstructure:"openai"`
	WhisperServer   WhisperServerConfig `mapstructure:"whisper_server"`
	Whisper         WhisperConfig       `mapstructure:"whisper"`
	Breaker         BreakerConfig       `mapstructure:"breaker"`
}

// OpenAIConfig holds OpenAI transcription settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	Proxy  string `mapstructure:"proxy"` // optional SOCKS5 host:port
}

// WhisperServerConfig holds settings for a self-hosted transcription server.
type WhisperServerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Type     string `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
}

// WhisperConfig holds in-process whisper.cpp settings.
type WhisperConfig struct {
	ModelPath string `mapstructure:"model_path"`
	Threads   int    `mapstructure:"threads"`
}

// BreakerConfig controls how quickly a failing primary engine is skipped.
type BreakerConfig struct {
	Failures uint32        `mapstructure:"failures"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Backend string      `mapstructure:"backend"` // "piper"
	Piper   PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
type PiperConfig struct {
	Endpoint string `mapstructure:"endpoint"` // Wyoming TCP endpoint (host:port)
	Voice    string `mapstructure:"voice"`
}

// VocabEntry is one row of a vocabulary table: a canonical lowercase name and
// the launch target, URL or search template it maps to.
type VocabEntry struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Value string `mapstructure:"value" yaml:"value"`
}

// VocabularyConfig holds the lookup tables. Empty tables fall back to the
// built-in defaults.
type VocabularyConfig struct {
	FuzzyThreshold int          `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	VideoPlatform  string       `mapstructure:"video_platform" yaml:"video_platform"`
	WebPlatform    string       `mapstructure:"web_platform" yaml:"web_platform"`
	Apps           []VocabEntry `mapstructure:"apps" yaml:"apps"`
	Sites          []VocabEntry `mapstructure:"sites" yaml:"sites"`
	SearchEngines  []VocabEntry `mapstructure:"search_engines" yaml:"search_engines"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each command transport.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// MQTTConfig configures the MQTT transport.
type MQTTConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Broker        string `mapstructure:"broker"`
	CommandTopic  string `mapstructure:"command_topic"`
	ResponseTopic string `mapstructure:"response_topic"`
	ClientID      string `mapstructure:"client_id"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text, pretty
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./beckon.yaml, ./configs/beckon.yaml, /etc/beckon/beckon.yaml.
// A .env file in the working directory is loaded first so that ${VAR}
// references and BECKON_* overrides can live there.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("beckon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/beckon")
	}

	// Environment variables: BECKON_ASSISTANT_WAKE_WORD, BECKON_SESSION_MODE, etc.
	v.SetEnvPrefix("BECKON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Speech.OpenAI.APIKey = resolveEnvRef(cfg.Speech.OpenAI.APIKey)
	cfg.Assistant.WakeWord = strings.ToLower(strings.TrimSpace(cfg.Assistant.WakeWord))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("assistant.name", "Siri")
	v.SetDefault("assistant.wake_word", "siri")
	v.SetDefault("session.enabled", true)
	v.SetDefault("session.mode", "push-to-talk")
	v.SetDefault("session.trigger", "stdin")
	v.SetDefault("session.socket_path", "/tmp/beckon.sock")
	v.SetDefault("session.speech_timeout", 10*time.Second)
	v.SetDefault("session.phrase_limit", 5*time.Second)
	v.SetDefault("session.silence_timeout", 2*time.Second)
	v.SetDefault("session.pause", time.Second)
	v.SetDefault("session.min_chars", 2)
	v.SetDefault("session.cooldown", time.Second)
	v.SetDefault("session.chime", "")
	v.SetDefault("speech.input", "microphone")
	v.SetDefault("speech.primary", "openai")
	v.SetDefault("speech.secondary", "whisper")
	v.SetDefault("speech.language", "en")
	v.SetDefault("speech.energy_threshold", 0.015)
	v.SetDefault("speech.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("speech.openai.model", "whisper-1")
	v.SetDefault("speech.openai.proxy", "")
	v.SetDefault("speech.whisper_server.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("speech.whisper_server.type", "openai")
	v.SetDefault("speech.whisper.model_path", "models/ggml-base.en.bin")
	v.SetDefault("speech.whisper.threads", 0)
	v.SetDefault("speech.breaker.failures", 3)
	v.SetDefault("speech.breaker.cooldown", 30*time.Second)
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("tts.piper.voice", "en_US-lessac-medium")
	v.SetDefault("vocabulary.fuzzy_threshold", 60)
	v.SetDefault("vocabulary.video_platform", "youtube")
	v.SetDefault("vocabulary.web_platform", "google")
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.mqtt.enabled", false)
	v.SetDefault("transports.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("transports.mqtt.command_topic", "beckon/command")
	v.SetDefault("transports.mqtt.response_topic", "beckon/response")
	v.SetDefault("transports.mqtt.client_id", "beckon")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "pretty")
}

// Validate rejects settings the daemon cannot start with.
func (c *Config) Validate() error {
	if c.Assistant.WakeWord == "" {
		return fmt.Errorf("assistant.wake_word must not be empty")
	}
	switch c.Session.Mode {
	case "continuous", "push-to-talk":
	default:
		return fmt.Errorf("session.mode %q: want continuous or push-to-talk", c.Session.Mode)
	}
	switch c.Session.Trigger {
	case "stdin", "ipc", "none":
	default:
		return fmt.Errorf("session.trigger %q: want stdin, ipc or none", c.Session.Trigger)
	}
	switch c.Speech.Input {
	case "microphone", "console":
	default:
		return fmt.Errorf("speech.input %q: want microphone or console", c.Speech.Input)
	}
	if c.Vocabulary.FuzzyThreshold < 0 || c.Vocabulary.FuzzyThreshold > 100 {
		return fmt.Errorf("vocabulary.fuzzy_threshold %d: want 0-100", c.Vocabulary.FuzzyThreshold)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	slog.SetDefault(slog.New(NewHandler(cfg, os.Stdout)))
}

// NewHandler builds the slog handler selected by cfg, writing to w.
func NewHandler(cfg LoggingConfig, w io.Writer) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "pretty":
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	default:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
}
