// Command safety-net blocks destructive shell commands proposed by coding
// agents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Dicklesworthstone/safetynet/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
