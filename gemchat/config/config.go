package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string
	DataDir        string
	SessionSecret  string
	GeminiAPIKey   string
	GeminiModel    string
	RequestTimeout time.Duration
}

// fileConfig mirrors the optional config.yaml overlay. Environment
// variables always win over file values.
type fileConfig struct {
	Port          string `yaml:"port"`
	DataDir       string `yaml:"data_dir"`
	SessionSecret string `yaml:"session_secret"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	fc := loadFileConfig(getEnv("CONFIG_FILE", "./config.yaml"))

	return Config{
		Port:           getEnv("PORT", fallback(fc.Port, "3000")),
		DataDir:        getEnv("DATA_DIR", fallback(fc.DataDir, "./data")),
		SessionSecret:  getEnv("SESSION_SECRET", fallback(fc.SessionSecret, "gemchat-secret-key-2024")),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", fc.GeminiAPIKey),
		GeminiModel:    getEnv("GEMINI_MODEL", fallback(fc.GeminiModel, "gemini-2.5-flash")),
		RequestTimeout: 60 * time.Second,
	}
}

// ChatsDir is where the per-chat JSON documents live.
func (c Config) ChatsDir() string {
	return filepath.Join(c.DataDir, "chats")
}

func loadFileConfig(path string) fileConfig {
	var fc fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		log.Printf("Ignoring malformed config file %s: %v", path, err)
		return fileConfig{}
	}
	return fc
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}
