package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/brandonbloom/scripts/internal/config"
	"github.com/brandonbloom/scripts/internal/scripts"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const columnGap = 2

var (
	listHeaderColor = color.New(color.FgBlue, color.Bold).SprintFunc()
	listAliasColor  = color.New(color.FgCyan).SprintFunc()
)

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in scripts and project aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.projectErr != nil {
				return opts.projectErr
			}
			return runList(cmd.OutOrStdout(), opts.projectConfig())
		},
	}
}

type listRow struct {
	Name        string
	Kind        string
	Description string
	alias       bool
}

func listRows(cfg config.Config) []listRow {
	var rows []listRow
	for _, t := range scripts.All() {
		rows = append(rows, listRow{Name: t.Name, Kind: "built-in", Description: t.Short})
	}
	for _, name := range cfg.AliasNames() {
		alias := cfg.Alias[name]
		desc := "runs " + alias.Script
		if alias.Config != "" {
			desc += " with " + alias.Config
		}
		rows = append(rows, listRow{Name: name, Kind: "alias", Description: desc, alias: true})
	}
	return rows
}

func runList(out io.Writer, cfg config.Config) error {
	rows := listRows(cfg)
	width, interactive := terminalWidth(out)
	layout := buildColumnLayout(rows, width)

	header := layout.format("NAME", "KIND", "DESCRIPTION")
	if interactive {
		header = listHeaderColor(header)
	}
	if _, err := fmt.Fprintln(out, header); err != nil {
		return err
	}
	for _, row := range rows {
		line := layout.format(row.Name, row.Kind, row.Description)
		if interactive && row.alias {
			line = listAliasColor(line)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

type columnLayout struct {
	nameWidth int
	kindWidth int
	// descWidth is zero when descriptions are not truncated.
	descWidth int
}

func buildColumnLayout(rows []listRow, totalWidth int) columnLayout {
	layout := columnLayout{
		nameWidth: runewidth.StringWidth("NAME"),
		kindWidth: runewidth.StringWidth("KIND"),
	}
	for _, row := range rows {
		layout.nameWidth = max(layout.nameWidth, runewidth.StringWidth(row.Name))
		layout.kindWidth = max(layout.kindWidth, runewidth.StringWidth(row.Kind))
	}
	if totalWidth > 0 {
		remaining := totalWidth - layout.nameWidth - layout.kindWidth - 2*columnGap
		layout.descWidth = max(remaining, len("DESCRIPTION"))
	}
	return layout
}

func (l columnLayout) format(name, kind, desc string) string {
	if l.descWidth > 0 {
		desc = runewidth.Truncate(desc, l.descWidth, "…")
	}
	gap := strings.Repeat(" ", columnGap)
	return runewidth.FillRight(name, l.nameWidth) + gap +
		runewidth.FillRight(kind, l.kindWidth) + gap + desc
}

// terminalWidth reports the width of out when it is a terminal.
func terminalWidth(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}
