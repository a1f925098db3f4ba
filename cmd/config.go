/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/valpere/bhasha/internal/audio"
)

// Config is the merged result of flags, BHASHA_* variables and defaults.
type Config struct {
	Addr      string        `mapstructure:"addr"`
	LogLevel  string        `mapstructure:"log_level"`
	RateLimit int           `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`

	Translators       []string `mapstructure:"translators"`
	GoogleCredentials string   `mapstructure:"google_credentials"`
	GoogleProject     string   `mapstructure:"google_project"`
	MyMemoryEmail     string   `mapstructure:"mymemory_email"`
	LLMAPIKey         string   `mapstructure:"llm_api_key"`
	LLMBaseURL        string   `mapstructure:"llm_base_url"`
	LLMModel          string   `mapstructure:"llm_model"`

	Speech           string `mapstructure:"speech"`
	ElevenLabsAPIKey string `mapstructure:"elevenlabs_api_key"`
	ElevenLabsVoice  string `mapstructure:"elevenlabs_voice"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`

	AudioDir string         `mapstructure:"audio_dir"`
	AudioTTL time.Duration  `mapstructure:"audio_ttl"`
	S3       audio.S3Config `mapstructure:",squash"`
}

func initViper() {
	viper.SetEnvPrefix("BHASHA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so every key gets a default.
	defaults := map[string]any{
		"addr":               ":7860",
		"log_level":          "info",
		"rate_limit":         60,
		"timeout":            30 * time.Second,
		"translators":        []string{"googleweb"},
		"google_credentials": "",
		"google_project":     "",
		"mymemory_email":     "",
		"llm_api_key":        "",
		"llm_base_url":       "",
		"llm_model":          "",
		"speech":             "googletts",
		"elevenlabs_api_key": "",
		"elevenlabs_voice":   "",
		"openai_api_key":     "",
		"audio_dir":          "",
		"audio_ttl":          time.Hour,
		"s3_endpoint":        "",
		"s3_access_key":      "",
		"s3_secret_key":      "",
		"s3_bucket":          "",
		"s3_region":          "",
		"s3_secure":          true,
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

// bindFlags maps viper keys to flag names.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func loadEnvFile(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Translators) == 0 {
		return fmt.Errorf("config: at least one translator is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative")
	}
	if c.AudioTTL < 0 {
		return fmt.Errorf("config: audio_ttl must not be negative")
	}
	if c.S3.Endpoint != "" && c.S3.Bucket == "" {
		return fmt.Errorf("config: s3_bucket is required when s3_endpoint is set")
	}
	return nil
}
