package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/tasks"
)

var (
	flagList  bool
	flagWidth int
)

var showCmd = &cobra.Command{
	Use:   "show [vendor/type/file.md]",
	Short: "Print one document, or list the groups with --list",
	Args: func(cmd *cobra.Command, args []string) error {
		if flagList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&flagList, "list", false, "list groups and their document counts")
	showCmd.Flags().IntVar(&flagWidth, "width", 100, "word wrap width")
	showCmd.Flags().StringVar(&flagVendor, "vendor", "", "with --list, list one vendor's document types")
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	view := cfg.Browse.View

	if flagList {
		sources, err := sourcesFor(view, flagVendor)
		if err != nil {
			return err
		}
		for _, s := range sources {
			if s.Err != nil {
				fmt.Fprintf(out, "%-24s unavailable: %v\n", s.ID, s.Err)
				continue
			}
			fmt.Fprintf(out, "%-24s %d\n", s.ID, len(s.Cards))
		}
		return nil
	}

	doc, content, err := catalog.Read(cfg.DataDir, view, args[0])
	if err != nil {
		return err
	}

	md := documentMarkdown(doc, content, view == catalog.ViewAnalyzed)
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(flagWidth))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render %s: %w", args[0], err)
	}
	fmt.Fprint(out, rendered)
	return nil
}

// documentMarkdown lays an analysed document out as one heading per task
// section; raw documents print as they are.
func documentMarkdown(doc catalog.Document, content string, analysed bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Meta.Title)
	fmt.Fprintf(&b, "*%s · %s · %s*\n\n", doc.Meta.Date, doc.Vendor, strings.ToUpper(doc.Type))
	if !analysed {
		b.WriteString(tasks.Strip(content))
		return b.String()
	}

	sections := tasks.Extract(content)
	if len(sections) == 0 {
		fmt.Fprintf(&b, "> %s\n\n", tasks.NoTasksWarning)
		b.WriteString(content)
		return b.String()
	}
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Name, s.Content)
	}
	return b.String()
}
