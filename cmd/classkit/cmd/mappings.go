package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classkit/internal/mapping"
	"github.com/classkit/internal/service"
)

var (
	// Mappings command flags
	showEntries    bool
	mappingDialect string
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings [file]",
	Short: "Load and summarize a rename table",
	Long: `Parse a mapping file in the srg or directive dialect and print how many
package, class, field and method renames it holds. Without a file the table
configured under mapping is used. Parse errors report the offending line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withEntries := showEntries || jsonOutput || outputFile != ""
		file := cfg.Mapping.File

		var report *service.MappingReport
		var err error
		if len(args) == 1 {
			file = args[0]
			report, err = loadMappingFile(file, withEntries)
		} else {
			report, err = svc.Mappings(cmd.Context(), withEntries)
		}
		if err != nil {
			return err
		}

		return emit(report, func() {
			fmt.Printf("%s (%s)\n", bold(file), report.Dialect)
			for _, kind := range []mapping.Kind{mapping.KindPackage, mapping.KindClass, mapping.KindField, mapping.KindMethod} {
				fmt.Printf("  %-8s %d\n", kind, report.Counts[kind])
			}
			if !showEntries {
				return
			}
			for _, e := range report.Entries {
				switch e.Kind {
				case mapping.KindPackage, mapping.KindClass:
					fmt.Printf("%s %s -> %s\n", e.Kind, e.Name, e.NewName)
				default:
					fmt.Printf("%s %s.%s%s -> %s\n", e.Kind, e.Owner, e.Name, e.Desc, e.NewName)
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(mappingsCmd)
	mappingsCmd.Flags().BoolVar(&showEntries, "entries", false, "Print every rename")
	mappingsCmd.Flags().StringVar(&mappingDialect, "dialect", mapping.DialectSRG, "Dialect of the file argument: srg or directive")
}

func loadMappingFile(path string, withEntries bool) (*service.MappingReport, error) {
	loader, err := mapping.NewLoader(mappingDialect, mapping.FromFile(path), mapping.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	table, err := loader.Mappings()
	if err != nil {
		return nil, err
	}
	report := &service.MappingReport{Dialect: mappingDialect, Counts: table.Counts()}
	if withEntries {
		report.Entries = table.Entries()
	}
	return report, nil
}
