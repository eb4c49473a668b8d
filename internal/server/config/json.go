package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/draftkeeper/internal/flagx"
	"github.com/dmitrijs2005/draftkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// "10s" strings or integer nanoseconds. Absent fields keep their defaults.
type JsonConfig struct {
	HTTPAddr           string          `json:"http_addr"`
	HealthAddrGRPC     string          `json:"grpc_health_addr"`
	StoreDriver        string          `json:"store_driver"`
	DatabaseDSN        string          `json:"database_dsn"`
	MongoDatabase      string          `json:"mongo_database"`
	EncryptionEnabled  *bool           `json:"encryption_enabled"`
	EncryptionKey      string          `json:"encryption_key"`
	MaxVersionsPerNode int             `json:"max_versions_per_node"`
	JWTSecret          string          `json:"jwt_secret"`
	ArchiveBucket      string          `json:"archive_s3_bucket"`
	ArchiveRegion      string          `json:"archive_s3_region"`
	ArchiveEndpoint    string          `json:"archive_s3_endpoint"`
	ArchiveAccessKey   string          `json:"archive_s3_access_key"`
	ArchiveSecretKey   string          `json:"archive_s3_secret_key"`
	ShutdownTimeout    *timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config into config. Unreadable or
// malformed files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.HealthAddrGRPC, c.HealthAddrGRPC)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.EncryptionKey, c.EncryptionKey)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.ArchiveBucket, c.ArchiveBucket)
	setString(&config.ArchiveRegion, c.ArchiveRegion)
	setString(&config.ArchiveEndpoint, c.ArchiveEndpoint)
	setString(&config.ArchiveAccessKey, c.ArchiveAccessKey)
	setString(&config.ArchiveSecretKey, c.ArchiveSecretKey)

	if c.EncryptionEnabled != nil {
		config.EncryptionEnabled = *c.EncryptionEnabled
	}
	if c.MaxVersionsPerNode > 0 {
		config.MaxVersionsPerNode = c.MaxVersionsPerNode
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
