package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envFile is loaded before reading the environment; variables already set
// in the process win over the file.
var envFile = ".env"

// Environment variable names.
const (
	envHTTPAddr           = "HTTP_ADDR"
	envHealthAddrGRPC     = "GRPC_HEALTH_ADDR"
	envStoreDriver        = "STORE_DRIVER"
	envDatabaseDSN        = "DATABASE_DSN"
	envMongoDatabase      = "MONGO_DATABASE"
	envEncryptionEnabled  = "ENCRYPTION_ENABLED"
	envEncryptionKey      = "ENCRYPTION_KEY"
	envMaxVersionsPerNode = "MAX_VERSIONS_PER_NODE"
	envJWTSecret          = "JWT_SECRET"
	envArchiveBucket      = "ARCHIVE_S3_BUCKET"
	envArchiveRegion      = "ARCHIVE_S3_REGION"
	envArchiveEndpoint    = "ARCHIVE_S3_ENDPOINT"
	envArchiveAccessKey   = "ARCHIVE_S3_ACCESS_KEY"
	envArchiveSecretKey   = "ARCHIVE_S3_SECRET_KEY"
	envShutdownTimeout    = "SHUTDOWN_TIMEOUT"
)

// parseEnv overlays config with the process environment. A malformed .env
// file or numeric/duration variable panics.
func parseEnv(config *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	v := viper.New()
	v.AutomaticEnv()

	stringVars := map[string]*string{
		envHTTPAddr:         &config.HTTPAddr,
		envHealthAddrGRPC:   &config.HealthAddrGRPC,
		envStoreDriver:      &config.StoreDriver,
		envDatabaseDSN:      &config.DatabaseDSN,
		envMongoDatabase:    &config.MongoDatabase,
		envEncryptionKey:    &config.EncryptionKey,
		envJWTSecret:        &config.JWTSecret,
		envArchiveBucket:    &config.ArchiveBucket,
		envArchiveRegion:    &config.ArchiveRegion,
		envArchiveEndpoint:  &config.ArchiveEndpoint,
		envArchiveAccessKey: &config.ArchiveAccessKey,
		envArchiveSecretKey: &config.ArchiveSecretKey,
	}
	for key, dst := range stringVars {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	// any value other than the literal "false" keeps encryption on
	if v.IsSet(envEncryptionEnabled) {
		config.EncryptionEnabled = v.GetString(envEncryptionEnabled) != "false"
	}

	if v.IsSet(envMaxVersionsPerNode) {
		n, err := parsePositiveInt(v.GetString(envMaxVersionsPerNode))
		if err != nil {
			panic(err)
		}
		config.MaxVersionsPerNode = n
	}

	if v.IsSet(envShutdownTimeout) {
		d, err := time.ParseDuration(v.GetString(envShutdownTimeout))
		if err != nil {
			panic(err)
		}
		config.ShutdownTimeout = d
	}
}
