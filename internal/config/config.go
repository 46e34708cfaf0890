// Package config loads runtime settings for the chatbot server.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/chat"
	"github.com/amethystkombucha/chatbot/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. CHATBOT_HTTP_ADDR.
const EnvPrefix = "CHATBOT"

// Config holds all service configuration.
type Config struct {
	HTTP     HTTPConfig
	Gemini   llm.Config
	Chat     chat.Config
	Training TrainingConfig
	EventLog EventLogConfig
	Catalog  CatalogConfig
}

type HTTPConfig struct {
	Addr string
	Mode string
}

type TrainingConfig struct {
	classifier.TrainConfig
	// Corpus is an optional JSON corpus replacing the bundled one.
	Corpus string
}

type EventLogConfig struct {
	Path     string
	InMemory bool
}

type CatalogConfig struct {
	// URL of a storefront page to read products from. Empty uses the
	// bundled catalog.
	URL    string
	Render bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.mode", "release")

	gemini := llm.DefaultConfig()
	v.SetDefault("gemini.model", gemini.Model)
	v.SetDefault("gemini.temperature", gemini.Temperature)
	v.SetDefault("gemini.max_tokens", gemini.MaxTokens)

	c := chat.DefaultConfig()
	v.SetDefault("chat.provider", string(c.Provider))
	v.SetDefault("chat.min_confidence", c.MinConfidence)
	v.SetDefault("chat.cache_size", c.CacheSize)
	v.SetDefault("chat.cache_ttl", c.CacheTTL)

	t := classifier.DefaultTrainConfig()
	v.SetDefault("training.epochs", t.Epochs)
	v.SetDefault("training.learning_rate", t.LearningRate)
	v.SetDefault("training.seed", 0)

	v.SetDefault("eventlog.path", "data/events")
	v.SetDefault("eventlog.in_memory", false)
	v.SetDefault("catalog.render", false)
}

// Load reads configuration from path (optional), then from a chatbot.yaml in
// the working directory, .env and CHATBOT_* environment variables. The
// environment wins over files. GEMINI_API_KEY is accepted as an alias of
// CHATBOT_GEMINI_API_KEY.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("chatbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
			Mode: v.GetString("http.mode"),
		},
		Gemini: llm.Config{
			APIKey:      v.GetString("gemini.api_key"),
			Model:       v.GetString("gemini.model"),
			Temperature: v.GetFloat64("gemini.temperature"),
			MaxTokens:   v.GetInt("gemini.max_tokens"),
		},
		Chat: chat.Config{
			Provider:      chat.Provider(strings.ToLower(v.GetString("chat.provider"))),
			MinConfidence: v.GetFloat64("chat.min_confidence"),
			CacheSize:     v.GetInt("chat.cache_size"),
			CacheTTL:      v.GetDuration("chat.cache_ttl"),
		},
		Training: TrainingConfig{
			TrainConfig: classifier.TrainConfig{
				Epochs:       v.GetInt("training.epochs"),
				LearningRate: v.GetFloat64("training.learning_rate"),
				Seed:         v.GetUint64("training.seed"),
			},
			Corpus: v.GetString("training.corpus"),
		},
		EventLog: EventLogConfig{
			Path:     v.GetString("eventlog.path"),
			InMemory: v.GetBool("eventlog.in_memory"),
		},
		Catalog: CatalogConfig{
			URL:    v.GetString("catalog.url"),
			Render: v.GetBool("catalog.render"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Chat.Provider {
	case chat.ProviderLocal, chat.ProviderGemini, chat.ProviderHybrid:
	default:
		return fmt.Errorf("config: chat.provider must be local, gemini or hybrid, got %q", c.Chat.Provider)
	}
	if c.Chat.MinConfidence < 0 || c.Chat.MinConfidence > 1 {
		return fmt.Errorf("config: chat.min_confidence must be within [0, 1], got %v", c.Chat.MinConfidence)
	}
	if c.Training.Epochs <= 0 {
		return fmt.Errorf("config: training.epochs must be positive, got %d", c.Training.Epochs)
	}
	if c.Training.LearningRate <= 0 {
		return fmt.Errorf("config: training.learning_rate must be positive, got %v", c.Training.LearningRate)
	}
	return nil
}
