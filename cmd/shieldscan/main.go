package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/dshills/shieldscan/internal/cli"
)

func main() {
	_, _ = maxprocs.Set()
	os.Exit(cli.Run())
}
