package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/cdf/internal/cli"
	"github.com/ppiankov/cdf/internal/executor"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		var failed *cli.TestsFailedError
		if errors.As(err, &failed) {
			// details were already printed by the reporter
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		var buildErr *executor.BuildError
		if errors.As(err, &buildErr) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
