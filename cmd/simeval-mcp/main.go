package main

import (
	"fmt"
	"os"

	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/logging"
	"github.com/ludo-technologies/simeval/internal/version"
	"github.com/ludo-technologies/simeval/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	flag "github.com/spf13/pflag"
)

const serverName = "simeval"

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	// MCP uses stdout for JSON-RPC
	log := logging.Init(logging.Options{Level: "info", Format: logging.FormatConsole, Writer: os.Stderr})

	cwd, _ := os.Getwd()
	cfg, err := config.LoadConfig(*configPath, cwd)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	deps, err := mcp.NewDependencies(cfg, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scoring engine")
	}

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)
	mcp.RegisterTools(server, mcp.NewHandlerSet(deps))

	log.Info().
		Str("version", version.Short()).
		Strs("tools", []string{"compare_functions", "evaluate_corpus"}).
		Msg("MCP server ready, waiting for client on stdio")

	// Blocks until the client disconnects
	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
