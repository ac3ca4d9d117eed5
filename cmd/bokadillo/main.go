package main

import (
	"os"

	"github.com/elifred2022/bokadillo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
