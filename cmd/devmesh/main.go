package main

import (
	"os"

	"github.com/devmesh-sh/devmesh/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
