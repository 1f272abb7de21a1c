package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classkit/internal/service"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <class>",
	Short: "Describe a decoded class",
	Long: `Decode a class from the configured sources and print its header, fields,
methods and annotations. Names may be internal (a/b/C), dotted (a.b.C) or
carry a .class suffix. Renamed names come from the configured mapping file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emit(report, func() { printClass(report) })
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printClass(r *service.ClassReport) {
	header := r.Name
	if r.MappedName != "" {
		header += " -> " + r.MappedName
	}
	fmt.Printf("%s %s\n", bold(header), r.Access)
	fmt.Printf("  version:    %s\n", r.Version)
	fmt.Printf("  category:   %s\n", r.Category)
	if r.Super != "" {
		fmt.Printf("  extends:    %s\n", r.Super)
	}
	if len(r.Interfaces) > 0 {
		fmt.Printf("  implements: %s\n", strings.Join(r.Interfaces, ", "))
	}
	if r.SourceFile != "" {
		fmt.Printf("  source:     %s\n", r.SourceFile)
	}
	for _, a := range r.Annotations {
		fmt.Printf("  %s\n", a)
	}

	printMembers("fields", r.Fields)
	printMembers("methods", r.Methods)
}

func printMembers(title string, members []service.MemberReport) {
	if len(members) == 0 {
		return
	}
	fmt.Printf("\n%s (%d)\n", bold(title), len(members))
	for _, m := range members {
		line := strings.TrimSpace(m.Access + " " + m.Name + m.Desc)
		if m.MappedName != "" {
			line += " -> " + m.MappedName
		}
		if m.Instructions > 0 {
			line += fmt.Sprintf(" [%d insns]", m.Instructions)
		}
		fmt.Println("  " + line)
		for _, a := range m.Annotations {
			fmt.Printf("      %s\n", a)
		}
	}
}
