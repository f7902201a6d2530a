// Package config loads SkillFlow settings from a YAML file and SKILLFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SKILLFLOW_LLM_MODEL for llm.model.
const EnvPrefix = "SKILLFLOW_"

// FileNames are the config file names looked up in the config directory, in order.
var FileNames = []string{"skillflow.yaml", "skillflow.yml"}

// Config is the full application configuration.
type Config struct {
	HTTP  HTTPConfig  `mapstructure:"http"`
	LLM   LLMConfig   `mapstructure:"llm"`
	Loop  LoopConfig  `mapstructure:"loop"`
	Mongo MongoConfig `mapstructure:"mongo"`
	Redis RedisConfig `mapstructure:"redis"`
	Log   LogConfig   `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LLMConfig points at an OpenAI-compatible endpoint (OpenAI, Groq, a local proxy).
// The answer checker may use a different endpoint; empty checker fields fall back to the main ones.
type LLMConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	CheckerBaseURL    string        `mapstructure:"checker_base_url"`
	CheckerAPIKey     string        `mapstructure:"checker_api_key"`
	CheckerModel      string        `mapstructure:"checker_model"`
	Temperature       float32       `mapstructure:"temperature"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type LoopConfig struct {
	RoadmapMaxIterations int `mapstructure:"roadmap_max_iterations"`
	LessonMaxIterations  int `mapstructure:"lesson_max_iterations"`
}

// MongoConfig selects the MongoDB curriculum store. An empty URI keeps data in memory.
type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RedisConfig enables distributed lesson locks and the shared run log. An empty Addr disables both.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	RunTTL   time.Duration `mapstructure:"run_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:           "https://api.groq.com/openai/v1",
			Model:             "llama-3.3-70b-versatile",
			CheckerModel:      "gpt-4o-mini",
			Temperature:       0.2,
			RequestsPerMinute: 30,
			Timeout:           2 * time.Minute,
		},
		Loop: LoopConfig{
			RoadmapMaxIterations: 1,
			LessonMaxIterations:  1,
		},
		Mongo: MongoConfig{
			Database: "skillflow",
			Timeout:  10 * time.Second,
		},
		Redis: RedisConfig{
			RunTTL: 7 * 24 * time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the first config file found in dir, applies environment overrides
// and decodes the result over Default(). A missing file is not an error.
func Load(dir string) (Config, error) {
	return LoadWithEnv(dir, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(dir string, lookup func(string) (string, bool)) (Config, error) {
	raw := map[string]any{}

	for _, name := range FileNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		break
	}
	if raw == nil {
		raw = map[string]any{}
	}

	for _, key := range Keys() {
		envName := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if v, ok := lookup(envName); ok {
			setPath(raw, strings.Split(key, "."), v)
		}
	}

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode decodes a generic map into cfg, leaving unset fields untouched.
// Strings are weakly converted so environment values can fill numeric, list and duration fields.
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Keys lists every dotted configuration key that can be overridden from the environment.
func Keys() []string {
	return []string{
		"http.addr", "http.allowed_origins", "http.shutdown_timeout",
		"llm.base_url", "llm.api_key", "llm.model",
		"llm.checker_base_url", "llm.checker_api_key", "llm.checker_model",
		"llm.temperature", "llm.requests_per_minute", "llm.timeout",
		"loop.roadmap_max_iterations", "loop.lesson_max_iterations",
		"mongo.uri", "mongo.database", "mongo.timeout",
		"redis.addr", "redis.password", "redis.db", "redis.run_ttl",
		"log.level",
	}
}

func setPath(m map[string]any, path []string, v any) {
	if len(path) == 1 {
		m[path[0]] = v
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[path[0]] = child
	}
	setPath(child, path[1:], v)
}

// Checker returns the endpoint settings used by the answer checker.
func (c LLMConfig) Checker() LLMConfig {
	out := c
	out.Model = c.CheckerModel
	if c.CheckerBaseURL != "" {
		out.BaseURL = c.CheckerBaseURL
	}
	if c.CheckerAPIKey != "" {
		out.APIKey = c.CheckerAPIKey
	}
	return out
}
