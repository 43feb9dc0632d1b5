// Command vigild runs the vigil daemon standalone, outside the CLI's
// hidden daemon subcommand. Useful for service managers that want a
// dedicated daemon binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"vigil/internal/config"
	"vigil/internal/daemonrun"
)

func main() {
	var socketPath string
	var configPath string
	var logLevel string
	flag.StringVar(&socketPath, "socket", "", "Path to the daemon socket")
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.StringVar(&logLevel, "log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		SocketPath: socketPath,
		LogLevel:   logLevel,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
