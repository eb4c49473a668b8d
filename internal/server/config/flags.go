package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/draftkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address
//	-s string   store driver: postgres, sqlite, mongo or memory
//	-d string   database DSN (PostgreSQL, SQLite file or MongoDB URI)
//	-m string   MongoDB database name
//	-k string   encryption key
//	-n int      max versions kept per content node
//	-j string   JWT secret for author attribution
//	-b string   archive S3 bucket
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-s", "-d", "-m", "-k", "-n", "-j", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.HealthAddrGRPC, "g", config.HealthAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.StoreDriver, "s", config.StoreDriver, "store driver (postgres|sqlite|mongo|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoDatabase, "m", config.MongoDatabase, "MongoDB database")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "encryption key")
	fs.IntVar(&config.MaxVersionsPerNode, "n", config.MaxVersionsPerNode, "max versions per content node")
	fs.StringVar(&config.JWTSecret, "j", config.JWTSecret, "JWT secret")
	fs.StringVar(&config.ArchiveBucket, "b", config.ArchiveBucket, "archive S3 bucket")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	if config.MaxVersionsPerNode <= 0 {
		panic(fmt.Sprintf("max versions per node must be positive, got %d", config.MaxVersionsPerNode))
	}
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive, got %d", n)
	}
	return n, nil
}
