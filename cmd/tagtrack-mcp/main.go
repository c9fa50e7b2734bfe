package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/tag-tracker/internal/batch"
	"github.com/ironsheep/tag-tracker/internal/codebook"
	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("tagtrack-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("tagtrack-mcp - MCP server for fiducial tag decoding")
			fmt.Println()
			fmt.Println("Usage: tagtrack-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  TAGTRACK_CONFIG=path         Configuration file (default tagtrack.json)")
			fmt.Println("  TAGTRACK_CODEBOOK=path       Tag codebook file (default codebook.json)")
			fmt.Println("  TAGTRACK_LOG_LEVEL=debug     Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var debug *log.Logger
	if os.Getenv("TAGTRACK_LOG_LEVEL") == "debug" {
		log.Printf("Tag MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		debug = log.Default()
	}

	cfg, err := config.Load(envOr("TAGTRACK_CONFIG", "tagtrack.json"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	book, err := codebook.Load(envOr("TAGTRACK_CODEBOOK", "codebook.json"))
	if err != nil {
		log.Fatalf("Failed to load codebook: %v", err)
	}
	decoders, err := batch.NewDecoderSet(cfg, book, debug)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	srv := server.New(decoders)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
