package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Keys         APIKeys
	Ai           AIConfig
	Retrieval    RetrievalConfig
	ContentStore ContentStoreConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	HuggingFace  string
	ReindexTopic string // Reindex queue topic
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

type RetrievalConfig struct {
	SectionThreshold   float64
	RelevanceThreshold float64
	// ConfidenceFloor is the evidence assembly cutoff, tuned above the
	// section threshold so assembly tightens what retrieval admitted.
	ConfidenceFloor float64
	TopK            int
}

type ContentStoreConfig struct {
	Backend           string // "s3" or "local"
	LocalRoot         string
	S3Region          string
	S3Bucket          string
	S3Prefix          string
	S3AccessKey       string
	S3SecretKey       string
	ReleaseAfterIndex bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			ReindexTopic: getEnv("REINDEX_REPORT_TOPIC_NAME", "REINDEX_REPORT"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Retrieval: RetrievalConfig{
			SectionThreshold:   getEnvAsFloat("RETRIEVAL_SECTION_THRESHOLD", 0.35),
			RelevanceThreshold: getEnvAsFloat("RETRIEVAL_RELEVANCE_THRESHOLD", 0.25),
			ConfidenceFloor:    getEnvAsFloat("RETRIEVAL_CONFIDENCE_FLOOR", 0.45),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 10),
		},
		ContentStore: ContentStoreConfig{
			Backend:           getEnv("CONTENT_STORE_BACKEND", "local"),
			LocalRoot:         getEnv("CONTENT_STORE_LOCAL_ROOT", "./reports"),
			S3Region:          getEnv("CONTENT_STORE_S3_REGION", "ap-southeast-1"),
			S3Bucket:          getEnv("CONTENT_STORE_S3_BUCKET", ""),
			S3Prefix:          getEnv("CONTENT_STORE_S3_PREFIX", "reports/"),
			S3AccessKey:       getEnv("CONTENT_STORE_S3_ACCESS_KEY", ""),
			S3SecretKey:       getEnv("CONTENT_STORE_S3_SECRET_KEY", ""),
			ReleaseAfterIndex: getEnvAsBool("CONTENT_STORE_RELEASE_AFTER_INDEX", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
