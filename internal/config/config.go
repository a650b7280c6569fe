package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string
	RedisURL string

	// Auth
	JWTSecret string

	// LLM provider (OpenAI-compatible chat completions + embeddings)
	LLMBaseURL     string
	LLMAPIKey      string
	ChatModel      string
	VisionModel    string
	EmbeddingModel string

	// Speech synthesis
	TTSModel string
	TTSVoice string

	// Audio object storage
	AudioDir     string
	AudioBaseURL string

	// Knowledge ingestion
	KnowledgeUploadsDir string
	EmbedInterval       time.Duration // minimum spacing between embedding calls

	// Anomaly detection threshold (IDR)
	AnomalyThreshold float64
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017/fintack"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-4.1-mini"),
		VisionModel:    getEnv("VISION_MODEL", "gpt-4.1-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		TTSModel: getEnv("TTS_MODEL", "tts-1"),
		TTSVoice: getEnv("TTS_VOICE", "alloy"),

		AudioDir:     getEnv("AUDIO_DIR", "./data/audio"),
		AudioBaseURL: getEnv("AUDIO_BASE_URL", "http://localhost:3001/audio"),

		KnowledgeUploadsDir: getEnv("KNOWLEDGE_UPLOADS_DIR", "./data/knowledge-uploads"),
		EmbedInterval:       getDurationEnv("EMBED_INTERVAL", 1200*time.Millisecond),

		AnomalyThreshold: getFloatEnv("ANOMALY_THRESHOLD", 200000),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
