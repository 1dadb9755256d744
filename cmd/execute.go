// Package cmd contains the application entry points: command routing,
// initialization, and the HTTP server lifecycle.
package cmd

import (
	"fmt"
	"os"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point. It routes the subcommand and leaves
// main.go as a minimal shim.
func Execute() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			return printVersionInfo()
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "serve":
			return runServe()
		default:
			printHelp()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	// Serving is the default behavior.
	return runServe()
}

// printVersionInfo displays version information.
func printVersionInfo() error {
	fmt.Printf("perplexity v%s\n", AppVersion)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
	return nil
}

// printHelp displays the help message.
func printHelp() {
	fmt.Println("perplexity - streaming conversational agent backend")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  perplexity               Start the HTTP server (default)")
	fmt.Println("  perplexity serve         Start the HTTP server")
	fmt.Println("  perplexity --version     Show version information")
	fmt.Println("  perplexity --help        Show this help")
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  GET /chat_stream/{message}?checkpoint_id=   SSE chat stream")
	fmt.Println("  GET /api/sessions                           List sessions")
	fmt.Println("  GET /health, /ready                         Probes")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY            Required: Gemini API key")
	fmt.Println("  TAVILY_API_KEY            Required: Tavily search API key")
	fmt.Println("  DATABASE_URL              Optional: PostgreSQL session storage")
	fmt.Println("  PERPLEXITY_ADDR           Optional: listen address (default :8000)")
	fmt.Println("  PERPLEXITY_LOG_LEVEL      Optional: debug, info, warn, error")
}
