package main

import (
	"fmt"
	"os"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/cli"
)

func main() {
	if err := cli.New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
