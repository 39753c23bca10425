package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vk/addonkit/internal/app"
	"github.com/vk/addonkit/internal/env"
)

func newInspectCommand(boot bootFunc) *cobra.Command {
	var modelName, targetName, category string
	cmd := &cobra.Command{
		Use:   "inspect [MANIFEST_PATH...]",
		Short: "Load every addon and describe the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd, args, 0)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case modelName != "":
				return inspectModel(out, a.Env(), modelName)
			case targetName != "":
				return inspectTarget(out, a.Env(), targetName)
			case category != "":
				inspectCategory(out, a.Env(), category)
				return nil
			default:
				inspectSummary(out, a)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&modelName, "model", "", "Describe the fields of one model.")
	cmd.Flags().StringVar(&targetName, "target", "", "Describe the layers of one patch target.")
	cmd.Flags().StringVar(&category, "category", "", "List the entries of one registry category.")
	cmd.MarkFlagsMutuallyExclusive("model", "target", "category")
	return cmd
}

func inspectSummary(out io.Writer, a *app.App) {
	e := a.Env()
	fmt.Fprintf(out, "Addons:     %s\n", joinNames(a.Order()))
	fmt.Fprintf(out, "Models:     %s\n", joinNames(e.Models.Models()))
	fmt.Fprintf(out, "Targets:    %s\n", joinNames(e.Patches.Targets()))
	fmt.Fprintf(out, "Categories: %s\n", joinNames(e.Registry.Categories()))
}

func inspectModel(out io.Writer, e *env.Env, name string) error {
	m, err := e.Models.Model(name)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	fmt.Fprintf(out, "Model %s (declared by %s)\n", m.Name(), joinNames(m.Sources()))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tRELATION\tREQUIRED\tDEFAULT")
	for _, f := range m.Fields() {
		def := "-"
		if !f.Default.IsNull() {
			def = f.Default.GoString()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", f.Name, f.Type, orDash(f.Relation), f.Required, def)
	}
	return tw.Flush()
}

func inspectTarget(out io.Writer, e *env.Env, name string) error {
	t, err := e.Patches.Target(name)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	fmt.Fprintf(out, "Target %s\n", t.Name())
	fmt.Fprintf(out, "Members: %s\n", joinNames(t.Members()))
	fmt.Fprintf(out, "Layers (oldest first): %s\n", joinNames(t.Layers()))
	return nil
}

func inspectCategory(out io.Writer, e *env.Env, category string) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQUENCE\tKEY\tVALUE")
	for _, entry := range e.Registry.Entries(category) {
		fmt.Fprintf(tw, "%d\t%s\t%v\n", entry.Sequence, entry.Key, entry.Value)
	}
	_ = tw.Flush()
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
