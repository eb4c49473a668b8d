package main

import (
	"os"

	"github.com/dmitrijs2005/draftkeeper/internal/envelopecli"
)

func main() {
	os.Exit(envelopecli.Execute(envelopecli.NewRootCommand(os.Stdout), os.Stderr))
}
