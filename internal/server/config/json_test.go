package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"http_addr":             ":9999",
		"grpc_health_addr":      ":7777",
		"store_driver":          "memory",
		"database_dsn":          "dsn",
		"mongo_database":        "mdb",
		"encryption_enabled":    false,
		"encryption_key":        "k",
		"max_versions_per_node": 12,
		"jwt_secret":            "j",
		"archive_s3_bucket":     "b",
		"archive_s3_region":     "eu-west-1",
		"archive_s3_endpoint":   "http://minio:9000",
		"archive_s3_access_key": "ak",
		"archive_s3_secret_key": "sk",
		"shutdown_timeout":      "3s",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}
		c := defaults()
		require.NotPanics(t, func() { parseJson(&c) })

		assert.Equal(t, Config{
			HTTPAddr:           ":9999",
			HealthAddrGRPC:     ":7777",
			StoreDriver:        DriverMemory,
			DatabaseDSN:        "dsn",
			MongoDatabase:      "mdb",
			EncryptionEnabled:  false,
			EncryptionKey:      "k",
			MaxVersionsPerNode: 12,
			JWTSecret:          "j",
			ArchiveBucket:      "b",
			ArchiveRegion:      "eu-west-1",
			ArchiveEndpoint:    "http://minio:9000",
			ArchiveAccessKey:   "ak",
			ArchiveSecretKey:   "sk",
			ShutdownTimeout:    3 * time.Second,
		}, c)
	})

	t.Run("absent fields keep defaults", func(t *testing.T) {
		partial := writeTempJSON(t, "", "", map[string]any{"http_addr": ":1"})
		os.Args = []string{"testbin", "-c", partial}
		c := defaults()
		parseJson(&c)

		want := defaults()
		want.HTTPAddr = ":1"
		assert.Equal(t, want, c)
	})

	t.Run("no config flag", func(t *testing.T) {
		os.Args = []string{"testbin"}
		c := defaults()
		parseJson(&c)
		assert.Equal(t, defaults(), c)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		c := defaults()
		assert.Panics(t, func() { parseJson(&c) })
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", bad}
		c := defaults()
		assert.Panics(t, func() { parseJson(&c) })
	})
}
