package main

import (
	"os"

	"github.com/Spok95/shopfloor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
