// Package cli wires the orchestration operations to the command line.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kb-dev/git-sparta/internal/gitutil"
	"github.com/kb-dev/git-sparta/internal/sparta"
	"github.com/kb-dev/git-sparta/internal/ui"
)

func deps(attribute string) sparta.Deps {
	return sparta.Deps{
		Run:       gitutil.ExecRunner{},
		Out:       ui.NewStderrSink(),
		Attribute: attribute,
	}
}

// NewRootCmd builds the git-sparta command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "git-sparta",
		Short:         "Sparse, tag-scoped submodule checkouts for shared asset repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newSetupCmd())
	root.AddCommand(newTeardownCmd())
	return root
}

func newSetupCmd() *cobra.Command {
	var configDir string
	var yes bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure a sparse submodule clone from JSON metadata",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return sparta.Setup(deps(""), configDir, ui.TerminalConfirmer(yes))
		},
	}
	cmd.Flags().StringVar(&configDir, "config-dir", ".", "directory holding the JSON configuration")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip interactive confirmation")
	return cmd
}

func newTeardownCmd() *cobra.Command {
	var configDir string
	var yes bool

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove a previously configured sparse submodule clone",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return sparta.Teardown(deps(""), configDir, ui.TerminalConfirmer(yes))
		},
	}
	cmd.Flags().StringVar(&configDir, "config-dir", ".", "directory holding the JSON configuration")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip interactive confirmation")
	return cmd
}
