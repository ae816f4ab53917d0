// Command crewd runs the agent backend: an HTTP API over sessions and
// role-based agent runs, plus an interactive chat for local use.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
