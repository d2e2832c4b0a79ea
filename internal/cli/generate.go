package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kb-dev/git-sparta/internal/attrs"
	"github.com/kb-dev/git-sparta/internal/sparta"
	"github.com/kb-dev/git-sparta/internal/ui"
)

func newGenerateCmd() *cobra.Command {
	var yes bool
	var repoDir string
	var attribute string

	cmd := &cobra.Command{
		Use:   "generate [tag]",
		Short: "Print sparse-checkout patterns for a project tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			d := deps(attribute)

			var tag string
			if len(args) == 1 {
				tag = args[0]
			} else {
				if yes {
					return errors.New("tag argument is required with --yes; run without --yes to select interactively")
				}
				selected, err := selectTag(d, repoDir)
				if err != nil {
					return err
				}
				tag = selected
			}

			resolution, err := sparta.GeneratePatterns(d, repoDir, tag)
			if err != nil {
				return err
			}

			// With an explicitly provided tag, hand the resolved token
			// set and pattern count over for confirmation before
			// printing anything.
			if len(args) == 1 && !yes {
				d.Out.LabelValue("Matched tokens", strings.Join(resolution.Tokens, ", "))
				d.Out.LabelValue("Patterns", len(resolution.Patterns))
				accepted, err := ui.TerminalConfirmer(false)("Print pattern list?", true)
				if err != nil {
					return err
				}
				if !accepted {
					return sparta.ErrAborted
				}
			}

			for _, pattern := range resolution.Patterns {
				fmt.Println(pattern)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip interactive confirmation")
	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&attribute, "attribute", attrs.DefaultAttribute, "attribute key to resolve tags against")
	return cmd
}

// selectTag lists the discovered tags with occurrence counts and reads
// a choice from stdin.
func selectTag(d sparta.Deps, repoDir string) (string, error) {
	counts, err := sparta.DiscoverTags(d, repoDir)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "", fmt.Errorf("no %q attributes found in %s", d.Attribute, repoDir)
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	d.Out.Heading("Available project tags:")
	for _, name := range names {
		d.Out.Note(fmt.Sprintf("  %s (%d files)", name, counts[name]))
	}
	fmt.Fprint(os.Stderr, "Select a project tag: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return "", errors.New("no tag selected")
	}
	tag := strings.TrimSpace(line)
	if tag == "" {
		return "", errors.New("no tag selected")
	}
	return tag, nil
}
