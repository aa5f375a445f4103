package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/auto-assign/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing incident assignment and escalation tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		s, err := newStack(context.Background(), cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "autoassign MCP server started on stdio (storage=%s, teams=%d)\n", cfg.Storage.Driver, len(s.matrix.Teams()))

		srv := mcpserver.NewServer(mcpserver.Deps{
			Assignments: s.assignments,
			Governance:  s.governance,
			Escalations: s.escalations,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
