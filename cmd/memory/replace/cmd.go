// Package replacecmd implements the `memory replace` command.
package replacecmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentvault/vaultmem/cmd/memory/shared"
	"github.com/agentvault/vaultmem/internal/models"
	"github.com/agentvault/vaultmem/internal/service"
)

// Command implements `memory replace`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	title        string
	what         string
	why          string
	impact       string
	tags         string
	category     string
	relatedFiles string
	details      string
	detailsFile  string
}

// New creates the replace command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "replace <memory-id>",
		Short: "Overwrite a memory's content in place, by ID or prefix",
		Long: `Fully overwrites an existing memory's mutable fields and re-embeds it.
Unlike save, this never merges with a near-duplicate — it replaces exactly
the memory identified by <memory-id>.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.title, "title", "", "Title of the memory (required)")
	f.StringVar(&c.what, "what", "", "What happened or was learned (required)")
	f.StringVar(&c.why, "why", "", "Why it matters")
	f.StringVar(&c.impact, "impact", "", "Impact or consequences")
	f.StringVar(&c.tags, "tags", "", "Comma-separated tags")
	f.StringVar(&c.category, "category", "", "Category: decision, pattern, bug, context, learning")
	f.StringVar(&c.relatedFiles, "related-files", "", "Comma-separated file paths")
	f.StringVar(&c.details, "details", "", "Extended details or context")
	f.StringVar(&c.detailsFile, "details-file", "", "Path to a file containing extended details")

	_ = c.cmd.MarkFlagRequired("title")
	_ = c.cmd.MarkFlagRequired("what")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	if c.details != "" && c.detailsFile != "" {
		return fmt.Errorf("use either --details or --details-file, not both")
	}

	resolvedDetails := c.details
	if c.detailsFile != "" {
		data, err := os.ReadFile(c.detailsFile)
		if err != nil {
			return fmt.Errorf("failed to read details file %q: %w", c.detailsFile, err)
		}
		resolvedDetails = string(data)
	}

	svc, err := service.New(c.ctx.MemoryHome)
	if err != nil {
		return err
	}
	defer svc.Close()

	raw := &models.RawMemoryInput{
		Title:        c.title,
		What:         c.what,
		Why:          c.why,
		Impact:       c.impact,
		Tags:         splitCSV(c.tags),
		Category:     c.category,
		RelatedFiles: splitCSV(c.relatedFiles),
		Details:      resolvedDetails,
	}

	result, err := svc.Replace(cmd.Context(), args[0], raw)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Replaced: %s (id: %s)\n", c.title, result.ID)
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
