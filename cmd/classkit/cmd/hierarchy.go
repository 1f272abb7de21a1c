package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var includeSelf bool

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <class>",
	Short: "List every supertype and interface of a class",
	Long: `Walk the supertypes and interfaces of a class breadth first. Classes no
source can supply are listed as missing rather than failing the walk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.Hierarchy(cmd.Context(), args[0], includeSelf)
		if err != nil {
			return err
		}
		return emit(report, func() {
			for _, name := range report.Classes {
				fmt.Println(name)
			}
			for _, name := range report.Missing {
				fmt.Println(yellow(name + " (missing)"))
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
	hierarchyCmd.Flags().BoolVar(&includeSelf, "include-self", false, "Include the class itself")
}
