package main

import (
	"os"

	"github.com/moodlog-app/moodlog/internal/client/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
