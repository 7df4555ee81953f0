package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/zviryatko/github-to-azure-migration/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the github-to-azure-migration command-line application.
func main() {
	_ = godotenv.Load()

	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
