// Command server runs the DraftKeeper content store: the HTTP API plus the
// gRPC health endpoint, over the store driver selected in the config.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/draftkeeper/internal/server"
	"github.com/dmitrijs2005/draftkeeper/internal/server/config"
)

func main() {
	ctx := context.Background()

	app, err := server.NewApp(ctx, config.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "draftkeeper: %v\n", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
