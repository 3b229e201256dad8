package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the dashboard service and the operator CLI.
type Config struct {
	Environment     string
	LogLevel        string
	LogFormat       string
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// DataOrigin is the service the dashboards fetch their series from. By default
	// that is this process' own data API.
	DataOrigin         string
	DataTimeout        time.Duration
	DataEnvironment    string
	DefaultLimit       int
	DefaultTrendMonths int
	LastGoodTTL        time.Duration
	RedisURL           string

	DBEnabled      bool
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBConnTimeout  time.Duration
	DBQueryTimeout time.Duration

	VectorBackend   string
	VectorSQLite    string
	ESEndpoint      string
	ESUsername      string
	ESPassword      string
	ESIndex         string
	ESTimeout       time.Duration
	IngestBatchSize int

	LLMProvider     string
	EmbedProvider   string
	OllamaURL       string
	OllamaModel     string
	OllamaEmbed     string
	OllamaTimeout   time.Duration
	GeminiAPIKey    string
	GeminiModel     string
	GeminiEmbed     string
	RAGTopK         int
	RAGContextChars int
	RAGVerify       bool
	RAGMaxTokens    int

	RevealInterval time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv loads configuration from environment variables with sensible defaults.
func FromEnv() Config {
	loadConfigDefaultsFromFile()
	loadSecretsDefaultsFromFile()

	listen := getEnv("APP_LISTEN_ADDR", ":8080")
	return Config{
		Environment:     getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("APP_LOG_LEVEL", "info"),
		LogFormat:       getEnv("APP_LOG_FORMAT", "console"),
		ListenAddr:      listen,
		ReadTimeout:     time.Duration(getEnvInt("APP_READ_TIMEOUT_SEC", 10)) * time.Second,
		WriteTimeout:    time.Duration(getEnvInt("APP_WRITE_TIMEOUT_SEC", 150)) * time.Second,
		ShutdownTimeout: time.Duration(getEnvInt("APP_SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
		CORSOrigins:     getEnvList("APP_CORS_ORIGINS", []string{"*"}),

		DataOrigin:         getEnv("APP_DATA_ORIGIN", selfOrigin(listen)),
		DataTimeout:        time.Duration(getEnvInt("APP_DATA_TIMEOUT_SEC", 5)) * time.Second,
		DataEnvironment:    getEnv("APP_DATA_ENVIRONMENT", "production"),
		DefaultLimit:       getEnvInt("APP_DEFAULT_LIMIT", 10),
		DefaultTrendMonths: getEnvInt("APP_DEFAULT_TREND_MONTHS", 6),
		LastGoodTTL:        time.Duration(getEnvInt("APP_LAST_GOOD_TTL_MIN", 60)) * time.Minute,
		RedisURL:           getEnv("APP_REDIS_URL", ""),

		DBEnabled:      getEnvBool("APP_DB_ENABLED", false),
		DBHost:         getEnv("APP_DB_HOST", "127.0.0.1"),
		DBPort:         getEnvInt("APP_DB_PORT", 3306),
		DBUser:         getEnv("APP_DB_USER", "audit"),
		DBPassword:     getEnv("APP_DB_PASSWORD", "demo"),
		DBName:         getEnv("APP_DB_NAME", "audit_data"),
		DBConnTimeout:  time.Duration(getEnvInt("APP_DB_CONN_TIMEOUT_SEC", 5)) * time.Second,
		DBQueryTimeout: time.Duration(getEnvInt("APP_DB_QUERY_TIMEOUT_SEC", 10)) * time.Second,

		VectorBackend:   strings.ToLower(getEnv("APP_VECTOR_BACKEND", "sqlite")),
		VectorSQLite:    getEnv("APP_VECTOR_SQLITE_PATH", "./audit-vectors.db"),
		ESEndpoint:      getEnv("APP_ES_ENDPOINT", "http://127.0.0.1:9200"),
		ESUsername:      getEnv("APP_ES_USERNAME", ""),
		ESPassword:      getEnv("APP_ES_PASSWORD", ""),
		ESIndex:         getEnv("APP_ES_INDEX", "audit_documents"),
		ESTimeout:       time.Duration(getEnvInt("APP_ES_TIMEOUT_SEC", 10)) * time.Second,
		IngestBatchSize: getEnvInt("APP_INGEST_BATCH_SIZE", 100),

		LLMProvider:     strings.ToLower(getEnv("APP_LLM_PROVIDER", "ollama")),
		EmbedProvider:   strings.ToLower(getEnv("APP_EMBED_PROVIDER", "ollama")),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama2:7b"),
		OllamaEmbed:     getEnv("OLLAMA_EMBED_MODEL", "all-minilm"),
		OllamaTimeout:   time.Duration(getEnvInt("OLLAMA_TIMEOUT_SEC", 120)) * time.Second,
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiEmbed:     getEnv("GEMINI_EMBED_MODEL", "gemini-embedding-001"),
		RAGTopK:         getEnvInt("APP_RAG_TOP_K", 6),
		RAGContextChars: getEnvInt("APP_RAG_CONTEXT_CHARS", 2000),
		RAGVerify:       getEnvBool("APP_RAG_VERIFY_NUMBERS", true),
		RAGMaxTokens:    getEnvInt("APP_RAG_MAX_TOKENS", 512),

		RevealInterval: time.Duration(getEnvInt("APP_REVEAL_INTERVAL_MS", 20)) * time.Millisecond,

		KafkaBrokers: getEnvList("APP_KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("APP_KAFKA_CHAT_TOPIC", "audit-chat-events"),
	}
}

// IsProduction reports whether the service runs with production logging defaults.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// MySQLDSN returns a mysql driver DSN with safe defaults for TCP access.
func (c Config) MySQLDSN() string {
	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("timeout", c.DBConnTimeout.String())
	params.Set("readTimeout", c.DBQueryTimeout.String())
	params.Set("writeTimeout", c.DBQueryTimeout.String())
	params.Set("charset", "utf8mb4")
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, params.Encode())
}

// selfOrigin turns a listen address into the loopback origin of this process.
func selfOrigin(listen string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(listen))
	if err != nil || port == "" {
		return "http://127.0.0.1:8080"
	}
	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func loadConfigDefaultsFromFile() {
	bootstrapCandidates := []string{
		"./audit-insights.env",
		"/etc/default/audit-insights",
	}
	for _, candidate := range bootstrapCandidates {
		_ = applyEnvDefaultsFromFile(absPath(candidate))
	}

	candidates := make([]string, 0, 2)
	if explicit := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, "/etc/audit-insights/config.env")

	for _, candidate := range candidates {
		if err := applyEnvDefaultsFromFile(absPath(candidate)); err == nil {
			return
		}
	}
}

func loadSecretsDefaultsFromFile() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("APP_SECRETS_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	if credDir := strings.TrimSpace(os.Getenv("CREDENTIALS_DIRECTORY")); credDir != "" {
		credName := strings.TrimSpace(os.Getenv("APP_SECRETS_CREDENTIAL_NAME"))
		if credName == "" {
			credName = "app-secrets"
		}
		candidates = append(candidates, filepath.Join(credDir, credName))
	}
	candidates = append(candidates, "/etc/audit-insights/secrets.env")
	for _, candidate := range candidates {
		if err := applyEnvDefaultsFromFile(candidate); err == nil {
			return
		}
	}
}

func absPath(candidate string) string {
	if filepath.IsAbs(candidate) {
		return candidate
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, candidate)
	}
	return candidate
}

// applyEnvDefaultsFromFile sets every key of a dotenv file that is not already
// present in the process environment.
func applyEnvDefaultsFromFile(path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	for key, val := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvList(key string, def []string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		out := make([]string, 0, len(def))
		for _, d := range def {
			d = strings.TrimSpace(d)
			if d != "" {
				out = append(out, d)
			}
		}
		return out
	}

	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
