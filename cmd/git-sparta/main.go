package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kb-dev/git-sparta/internal/cli"
	"github.com/kb-dev/git-sparta/internal/sparta"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := cli.NewRootCmd().Execute(); err != nil {
		if errors.Is(err, sparta.ErrAborted) {
			fmt.Fprintln(os.Stderr, "aborted by user")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
