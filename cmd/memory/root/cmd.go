// Package rootcmd wires the root cobra.Command for the memory CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	configcmd "github.com/agentvault/vaultmem/cmd/memory/config"
	contextcmd "github.com/agentvault/vaultmem/cmd/memory/context"
	deletecmd "github.com/agentvault/vaultmem/cmd/memory/delete"
	detailscmd "github.com/agentvault/vaultmem/cmd/memory/details"
	initcmd "github.com/agentvault/vaultmem/cmd/memory/init"
	mcpcmd "github.com/agentvault/vaultmem/cmd/memory/mcp"
	reindexcmd "github.com/agentvault/vaultmem/cmd/memory/reindex"
	replacecmd "github.com/agentvault/vaultmem/cmd/memory/replace"
	savecmd "github.com/agentvault/vaultmem/cmd/memory/save"
	searchcmd "github.com/agentvault/vaultmem/cmd/memory/search"
	sessionscmd "github.com/agentvault/vaultmem/cmd/memory/sessions"
	setupcmd "github.com/agentvault/vaultmem/cmd/memory/setup"
	"github.com/agentvault/vaultmem/cmd/memory/shared"
	uninstallcmd "github.com/agentvault/vaultmem/cmd/memory/uninstall"
)

// New creates and returns the root cobra.Command for the memory CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "memory",
		Short:         "VaultMem — local memory for coding agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.MemoryHome, "memory-home", "",
		"Override memory home directory (default: $MEMORY_HOME env → persisted config → ~/.memory)",
	)

	root.AddCommand(
		initcmd.New(ctx).Cmd(),
		savecmd.New(ctx).Cmd(),
		searchcmd.New(ctx).Cmd(),
		detailscmd.New(ctx).Cmd(),
		deletecmd.New(ctx).Cmd(),
		replacecmd.New(ctx).Cmd(),
		contextcmd.New(ctx).Cmd(),
		reindexcmd.New(ctx).Cmd(),
		sessionscmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		setupcmd.New(ctx).Cmd(),
		uninstallcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
