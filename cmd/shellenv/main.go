// cmd/shellenv/main.go
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arc-language/shellenv/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(cli.ExitCode(err))
}
