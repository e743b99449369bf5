package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/config"
)

// Cfg is the global variable that will contain the loaded configuration.
// It is accessible to all Cobra commands throughout the application.
var Cfg *config.Config

// RootCmd is the base command for the CLI application.
// All other commands (create, run-server, stats, migrate) are added as subcommands.
var RootCmd = &cobra.Command{
	Use:   "qrgen",
	Short: "A QR code generation and redirect-resolution service",
	Long: `A QR code service that mints static and dynamic QR codes,
repoints dynamic destinations without reprinting, and resolves
scans through a redirect-and-record path.`,
}

// Execute is the main entry point for the Cobra application.
// It is called from main.go and handles command execution and error handling.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Load configuration before any command executes. Commands register
	// themselves with RootCmd via their own init() functions, which keeps
	// this package free of import cycles.
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration.
// Called at the beginning of every Cobra command execution.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
