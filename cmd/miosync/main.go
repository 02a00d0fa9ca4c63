// miosync: patient health-data MCP server.
//
// Syncs a patient's controls, measurements, services, campaigns,
// appointments and educational content from the HOMA backend and exposes
// them to AI clients over MCP (stdio transport).
//
// Usage:
//
//	miosync serve    # Start MCP server (stdio transport)
//	miosync update   # Update to the latest version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	miosrv "github.com/miosalud/miosync/internal/server"
	"github.com/miosalud/miosync/internal/updater"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("miosync v%s\n", miosrv.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := miosrv.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Background version check — prints to stderr so it doesn't
	// interfere with MCP's stdio transport on stdout.
	go checkForUpdates()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. Best-effort — network failures are
// silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(miosrv.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Run: miosync update\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest version.
func runUpdate() {
	fmt.Fprintf(os.Stderr, "🔍 Checking for updates...\n")

	result := updater.CheckVersion(miosrv.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "📦 New version available: v%s → v%s\n", result.CurrentVersion, result.LatestVersion)
	fmt.Fprintf(os.Stderr, "⬇️  Downloading...\n")

	if err := updater.SelfUpdate(miosrv.Version); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\n   You can download manually from:\n   %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✅ Updated to v%s!\n", result.LatestVersion)
	fmt.Fprintf(os.Stderr, "   Restart miosync to use the new version.\n")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `miosync v%s — patient health-data MCP server

Usage:
  miosync serve    Start the MCP server (stdio transport)
  miosync update   Update to the latest version

Configuration (environment or .env):
  HOMA_BASE_URL          required — HOMA API base URL
  HOMA_CENTER_BASE_URL   write-path base URL (default: HOMA_BASE_URL)
  FIREBASE_API_KEY       identity provider web key
  REQUEST_TIMEOUT        per-request timeout in seconds (default: 10)
  STORAGE_PATH           SQLite file (default: ~/.miosync/miosync.db)
  LOG_LEVEL              debug|info|warn|error (default: info)
  LOG_FORMAT             json|console (default: json)

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "miosync": {
        "command": "miosync",
        "args": ["serve"]
      }
    }
  }
`, miosrv.Version)
}
