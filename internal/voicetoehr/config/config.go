package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosidekick/goconfig"
	"github.com/joho/godotenv"
)

const (
	RecognizerDeepgram = "deepgram"
	RecognizerStatic   = "static"

	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	AudioSourceMicrophone = "microphone"
	AudioSourceFile       = "file"

	// legacyAPIKeyEnv is read when DEEPGRAM_API_KEY is unset
	legacyAPIKeyEnv = "NEXT_PUBLIC_DEEPGRAM_API_KEY"

	defaultDeepgramTimeout = 30 * time.Second
	defaultGatewayTimeout  = 60 * time.Second
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
)

type GatewayConfigs struct {
	GatewayConfig GatewayConfig
	ServerConfig  ServerConfig
}

// GatewayConfig configures the transcription gateway
type GatewayConfig struct {
	LogLevel           string        `cfg:"log_level" cfgDefault:"info"`
	DeepgramAPIKey     string        `cfg:"deepgram_api_key"`
	DeepgramBaseURL    string        `cfg:"deepgram_base_url" cfgDefault:"https://api.deepgram.com"`
	DeepgramModel      string        `cfg:"deepgram_model"`
	DeepgramLanguage   string        `cfg:"deepgram_language"`
	DeepgramTimeout    time.Duration `cfg:"deepgram_timeout"`
	AudioContentType   string        `cfg:"audio_content_type" cfgDefault:"audio/wav"`
	DataPath           string        `cfg:"data_path" cfgDefault:"data"`
	MetricsDB          string        `cfg:"metrics_db" cfgDefault:"metrics.db"`
	RateLimitPerMinute int           `cfg:"rate_limit_per_minute" cfgDefault:"0"`
	Recognizer         string        `cfg:"recognizer" cfgDefault:"deepgram"`
	StaticTranscript   string        `cfg:"static_transcript"`
	Version            string        `cfg:"app_version" cfgDefault:"dev"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `cfg:"port" cfgDefault:"3000"`
	ReadTimeout  time.Duration `cfg:"read_timeout"`
	WriteTimeout time.Duration `cfg:"write_timeout"`
}

// RecorderConfig configures the terminal recorder
type RecorderConfig struct {
	LogLevel       string        `cfg:"log_level" cfgDefault:"info"`
	LogFile        string        `cfg:"recorder_log_file" cfgDefault:"recorder.log"`
	GatewayURL     string        `cfg:"gateway_url" cfgDefault:"http://localhost:3000"`
	GatewayTimeout time.Duration `cfg:"gateway_timeout"`
	Store          string        `cfg:"recorder_store" cfgDefault:"sqlite"`
	StorePath      string        `cfg:"recorder_store_path" cfgDefault:"recorder.db"`
	SubjectID      string        `cfg:"subject_id" cfgRequired:"true"`
	AudioSource    string        `cfg:"audio_source" cfgDefault:"microphone"`
	AudioFile      string        `cfg:"audio_file"`
}

// LoadEnvFile loads envFile (".env" when empty) into the environment if it exists
func LoadEnvFile(envFile string) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}
}

// LoadGatewayConfig loads configuration from environment variables
// and validates them
func LoadGatewayConfig() (*GatewayConfigs, error) {
	var (
		gatewayCfg GatewayConfig
		serverCfg  ServerConfig
	)
	if err := goconfig.Parse(&gatewayCfg); err != nil {
		return nil, fmt.Errorf("failed to parse gateway config: %w", err)
	}
	if err := goconfig.Parse(&serverCfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	gatewayCfg.ApplyDefaults()
	serverCfg.ApplyDefaults()

	if err := gatewayCfg.Validate(); err != nil {
		return nil, err
	}
	if err := serverCfg.Validate(); err != nil {
		return nil, err
	}

	return &GatewayConfigs{
		GatewayConfig: gatewayCfg,
		ServerConfig:  serverCfg,
	}, nil
}

// LoadRecorderConfig loads configuration from environment variables
// and validates them
func LoadRecorderConfig() (*RecorderConfig, error) {
	var recorderCfg RecorderConfig
	if err := goconfig.Parse(&recorderCfg); err != nil {
		return nil, fmt.Errorf("failed to parse recorder config: %w", err)
	}

	recorderCfg.ApplyDefaults()
	if err := recorderCfg.Validate(); err != nil {
		return nil, err
	}

	return &recorderCfg, nil
}

// ApplyDefaults fills values goconfig cannot default
func (c *GatewayConfig) ApplyDefaults() {
	c.DeepgramAPIKey = strings.TrimSpace(c.DeepgramAPIKey)
	if c.DeepgramAPIKey == "" {
		c.DeepgramAPIKey = strings.TrimSpace(os.Getenv(legacyAPIKeyEnv))
	}
	if c.DeepgramTimeout <= 0 {
		c.DeepgramTimeout = defaultDeepgramTimeout
	}
	c.Recognizer = strings.ToLower(strings.TrimSpace(c.Recognizer))
}

// Validate rejects unusable configuration. A missing API key is not an error:
// the gateway starts and answers every transcription with a 500.
func (c *GatewayConfig) Validate() error {
	switch c.Recognizer {
	case RecognizerDeepgram:
		if c.DeepgramBaseURL == "" {
			return fmt.Errorf("deepgram_base_url is required for the deepgram recognizer")
		}
	case RecognizerStatic:
		if strings.TrimSpace(c.StaticTranscript) == "" {
			return fmt.Errorf("static_transcript is required for the static recognizer")
		}
	default:
		return fmt.Errorf("unknown recognizer %q", c.Recognizer)
	}

	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute cannot be negative")
	}

	return nil
}

// MetricsDBPath resolves the metrics database inside the data path. An
// empty metrics_db disables the SQLite collector.
func (c *GatewayConfig) MetricsDBPath() string {
	if c.MetricsDB == "" {
		return ""
	}
	if filepath.IsAbs(c.MetricsDB) {
		return c.MetricsDB
	}
	return filepath.Join(c.DataPath, c.MetricsDB)
}

func (c *ServerConfig) ApplyDefaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func (c *RecorderConfig) ApplyDefaults() {
	if c.GatewayTimeout <= 0 {
		c.GatewayTimeout = defaultGatewayTimeout
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.AudioSource = strings.ToLower(strings.TrimSpace(c.AudioSource))
}

func (c *RecorderConfig) Validate() error {
	if strings.TrimSpace(c.SubjectID) == "" {
		return fmt.Errorf("subject_id is required")
	}

	switch c.Store {
	case StoreSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("recorder_store_path is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.AudioSource {
	case AudioSourceMicrophone:
	case AudioSourceFile:
		if c.AudioFile == "" {
			return fmt.Errorf("audio_file is required for the file audio source")
		}
	default:
		return fmt.Errorf("unknown audio source %q", c.AudioSource)
	}

	if c.GatewayURL == "" {
		return fmt.Errorf("gateway_url is required")
	}

	return nil
}
