package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	perrors "github.com/matzehuels/plexsim/pkg/errors"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// pluginsCommand creates the plugins command.
func (c *CLI) pluginsCommand() *cobra.Command {
	var (
		typ    string
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "plugins [id]",
		Short: "List the available models and graph builders",
		Long: `List the registered plugins with their attributes.

Given an id, the full description of that plugin is printed as YAML.`,
		Example: `  plexsim plugins
  plexsim plugins --type model
  plexsim plugins growth`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := c.registry()
			if len(args) == 1 {
				e, ok := reg.Lookup(args[0])
				if !ok {
					return perrors.New(perrors.ErrCodePluginNotFound, "no plugin with id %q", args[0])
				}
				return printYAML(e.Meta)
			}

			entries, err := listPlugins(reg, typ)
			if err != nil {
				return err
			}
			if asYAML {
				metas := make([]plugin.Meta, len(entries))
				for i, e := range entries {
					metas[i] = e.Meta
				}
				return printYAML(metas)
			}
			fmt.Fprintln(stdout, pluginTable(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "only list plugins of this type (model or graph)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the descriptions as YAML")

	return cmd
}

func listPlugins(reg *plugin.Registry, typ string) ([]*plugin.Entry, error) {
	switch plugin.Type(typ) {
	case "", plugin.TypeModel, plugin.TypeGraph:
		return reg.List(plugin.Type(typ)), nil
	}
	return nil, perrors.New(perrors.ErrCodeInvalidInput, "unknown plugin type %q (want model or graph)", typ)
}

func pluginTable(entries []*plugin.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		runsOn := "any"
		switch {
		case len(e.Meta.Graphs) > 0:
			runsOn = strings.Join(e.Meta.Graphs, ", ")
		case len(e.Meta.Kinds) > 0:
			kinds := make([]string, len(e.Meta.Kinds))
			for i, k := range e.Meta.Kinds {
				kinds[i] = k.String()
			}
			runsOn = strings.Join(kinds, ", ")
		}
		attributes := e.Scope.String()
		if e.NodeScope != nil && !e.NodeScope.IsEmpty() {
			attributes += StyleDim.Render(" nodes: ") + e.NodeScope.String()
		}
		rows = append(rows, []string{StyleHighlight.Render(e.ID()), string(e.Type), e.Meta.Title, runsOn, attributes})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Type", "Title", "Runs on", "Attributes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return perrors.Wrap(perrors.ErrCodeInternal, err, "encode yaml")
	}
	return enc.Close()
}
