package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Paths       PathsConfig       `yaml:"paths"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Diarization DiarizationConfig `yaml:"diarization"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Timeouts    TimeoutsConfig    `yaml:"timeouts"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	Chapters    ChaptersConfig    `yaml:"chapters"`
	Translation TranslationConfig `yaml:"translation"`
	Store       StoreConfig       `yaml:"store"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxUploadMB  int64  `yaml:"max_upload_mb"`
	WatchEnabled bool   `yaml:"watch_enabled"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent    int `yaml:"max_concurrent"`
	MaxProviderCalls int `yaml:"max_provider_calls"`
}

type PathsConfig struct {
	Uploads  string `yaml:"uploads"`
	Temp     string `yaml:"temp"`
	Watch    string `yaml:"watch"`
	Archived string `yaml:"archived"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

// DiarizationConfig describes an external diarization command printing JSON
// turns or RTTM. Args may use {audio} and {hf_token}; without {audio} the wav
// path is appended. An empty Command disables diarization.
type DiarizationConfig struct {
	Command            string   `yaml:"command"`
	Args               []string `yaml:"args"`
	HFToken            string   `yaml:"hf_token"`
	MinSegmentDuration float64  `yaml:"min_segment_duration"`
	MergeGap           float64  `yaml:"merge_gap"`
}

type IngestConfig struct {
	YtDlpPath   string `yaml:"ytdlp_path"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	CookiesFile string `yaml:"cookies_file"`
}

type TimeoutsConfig struct {
	Ingestion     time.Duration `yaml:"ingestion"`
	Transcription time.Duration `yaml:"transcription"`
	Diarization   time.Duration `yaml:"diarization"`
	ProviderCall  time.Duration `yaml:"provider_call"`
}

type SummarizerConfig struct {
	Providers   []string      `yaml:"providers"`
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

type GeminiConfig struct {
	APIKeys []string `yaml:"api_keys"`
	Model   string   `yaml:"model"`
}

type OllamaConfig struct {
	URL    string `yaml:"url"`
	Model  string `yaml:"model"`
	NumCtx int    `yaml:"num_ctx"`
}

type ChaptersConfig struct {
	WindowSize     int `yaml:"window_size"`
	MaxPromptChars int `yaml:"max_prompt_chars"`
}

type TranslationConfig struct {
	Providers     []string `yaml:"providers"`
	DefaultSource string   `yaml:"default_source"`
}

type StoreConfig struct {
	Driver    string          `yaml:"driver"`
	Redis     RedisConfig     `yaml:"redis"`
	Cassandra CassandraConfig `yaml:"cassandra"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type CassandraConfig struct {
	Hosts    []string      `yaml:"hosts"`
	Keyspace string        `yaml:"keyspace"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Load reads a yaml file, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// applyEnv lets secrets and endpoints come from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
		c.Gemini.APIKeys = splitList(v)
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Store.Redis.DB = db
		}
	}
	if v := os.Getenv("CASSANDRA_HOSTS"); v != "" {
		c.Store.Cassandra.Hosts = splitList(v)
	}
	if v := os.Getenv("HF_TOKEN"); v != "" {
		c.Diarization.HFToken = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var knownProviders = map[string]bool{
	"gemini":  true,
	"ollama":  true,
	"lexicon": true,
}

func (c *Config) Validate() error {
	if c.Whisper.ModelPath == "" {
		return fmt.Errorf("whisper.model_path is required")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 1024
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Performance.MaxProviderCalls == 0 {
		c.Performance.MaxProviderCalls = 4
	}

	if c.Paths.Uploads == "" {
		c.Paths.Uploads = "data/uploads"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}
	if c.Paths.Watch == "" {
		c.Paths.Watch = "data/input"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}

	if c.Whisper.Language == "" {
		c.Whisper.Language = "auto"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Diarization.MinSegmentDuration == 0 {
		c.Diarization.MinSegmentDuration = 0.6
	}
	if c.Diarization.MergeGap == 0 {
		c.Diarization.MergeGap = 0.35
	}
	if c.Ingest.YtDlpPath == "" {
		c.Ingest.YtDlpPath = "yt-dlp"
	}
	if c.Ingest.FFmpegPath == "" {
		c.Ingest.FFmpegPath = "ffmpeg"
	}

	if c.Timeouts.Ingestion == 0 {
		c.Timeouts.Ingestion = 10 * time.Minute
	}
	if c.Timeouts.Transcription == 0 {
		c.Timeouts.Transcription = 30 * time.Minute
	}
	if c.Timeouts.Diarization == 0 {
		c.Timeouts.Diarization = 30 * time.Minute
	}
	if c.Timeouts.ProviderCall == 0 {
		c.Timeouts.ProviderCall = 2 * time.Minute
	}

	if len(c.Summarizer.Providers) == 0 {
		c.Summarizer.Providers = []string{"gemini", "ollama", "lexicon"}
	}
	for _, name := range c.Summarizer.Providers {
		if !knownProviders[name] {
			return fmt.Errorf("summarizer.providers: unknown provider %q", name)
		}
	}
	if c.Summarizer.MaxAttempts == 0 {
		c.Summarizer.MaxAttempts = 2
	}
	if c.Summarizer.Backoff == 0 {
		c.Summarizer.Backoff = time.Second
	}
	if c.Summarizer.MaxBackoff == 0 {
		c.Summarizer.MaxBackoff = 30 * time.Second
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.2"
	}
	if c.Ollama.NumCtx == 0 {
		c.Ollama.NumCtx = 8192
	}

	if c.Chapters.WindowSize == 0 {
		c.Chapters.WindowSize = 3
	}
	if c.Chapters.MaxPromptChars == 0 {
		c.Chapters.MaxPromptChars = 12000
	}

	if len(c.Translation.Providers) == 0 {
		c.Translation.Providers = []string{"gemini", "ollama"}
	}
	for _, name := range c.Translation.Providers {
		if name != "gemini" && name != "ollama" {
			return fmt.Errorf("translation.providers: unknown provider %q", name)
		}
	}
	if c.Translation.DefaultSource == "" {
		c.Translation.DefaultSource = "en"
	}

	switch c.Store.Driver {
	case "":
		c.Store.Driver = "memory"
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis driver")
		}
	case "cassandra":
		if len(c.Store.Cassandra.Hosts) == 0 {
			return fmt.Errorf("store.cassandra.hosts is required for the cassandra driver")
		}
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "insightflow"
	}
	if c.Store.Cassandra.Keyspace == "" {
		c.Store.Cassandra.Keyspace = "insightflow"
	}
	if c.Store.Cassandra.Timeout == 0 {
		c.Store.Cassandra.Timeout = 5 * time.Second
	}

	return nil
}
