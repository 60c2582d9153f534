package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd := NewRootCmd(run)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pgmirror: %v\n", err)
		os.Exit(1)
	}
}
