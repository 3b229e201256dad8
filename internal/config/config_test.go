package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_LISTEN_ADDR", ":9090")
	t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:9090", cfg.DataOrigin)
	assert.Equal(t, 5*time.Second, cfg.DataTimeout)
	assert.Equal(t, 6, cfg.RAGTopK)
	assert.Equal(t, 2000, cfg.RAGContextChars)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.DBEnabled)
}

func TestFromEnv_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.env")
	content := strings.Join([]string{
		"# comment",
		"APP_TEST_ONLY_NAME='from-file'",
		"APP_TEST_ONLY_PORT=4406",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_TEST_ONLY_PORT", "5506")
	t.Cleanup(func() { _ = os.Unsetenv("APP_TEST_ONLY_NAME") })

	require.NoError(t, applyEnvDefaultsFromFile(path))

	assert.Equal(t, "from-file", os.Getenv("APP_TEST_ONLY_NAME"))
	assert.Equal(t, "5506", os.Getenv("APP_TEST_ONLY_PORT"))
}

func TestMySQLDSN(t *testing.T) {
	cfg := Config{
		DBUser:         "audit",
		DBPassword:     "secret",
		DBHost:         "db.internal",
		DBPort:         3306,
		DBName:         "audit_data",
		DBConnTimeout:  5 * time.Second,
		DBQueryTimeout: 10 * time.Second,
	}

	dsn := cfg.MySQLDSN()
	assert.True(t, strings.HasPrefix(dsn, "audit:secret@tcp(db.internal:3306)/audit_data?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("APP_KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, getEnvList("APP_KAFKA_BROKERS", nil))
	assert.Empty(t, getEnvList("APP_UNSET_LIST_FOR_TEST", nil))
}

func TestSelfOrigin(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080", selfOrigin(":8080"))
	assert.Equal(t, "http://10.0.0.4:81", selfOrigin("10.0.0.4:81"))
	assert.Equal(t, "http://127.0.0.1:8080", selfOrigin("bogus"))
	assert.Equal(t, "http://[::1]:8080", selfOrigin("[::]:8080"))
	assert.Equal(t, "http://[fd00::4]:81", selfOrigin("[fd00::4]:81"))
	assert.Equal(t, "http://localhost:9000", selfOrigin("localhost:9000"))
}
