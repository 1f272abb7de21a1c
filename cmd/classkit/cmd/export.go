package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/classkit/internal/service"
	"github.com/classkit/pkg/filter"
)

var (
	// Export command flags
	exportPrefix      string
	exportCompression string
	exportStorage     bool
	exportDatabase    bool
	exportWorkers     int
	exportInclude     []string
	exportExclude     []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy every listable class to storage or the database",
	Long: `Decode every class the configured sources can list and copy the well-formed
ones to object storage (as <prefix>a/b/C.class plus the codec suffix), to the
class_blobs table, or both. The copies can be read back with storage and
database sources.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "Storage key prefix (default export.prefix)")
	exportCmd.Flags().StringVar(&exportCompression, "compression", "", "zstd, gzip or none (default export.compression)")
	exportCmd.Flags().BoolVar(&exportStorage, "storage", false, "Write to object storage")
	exportCmd.Flags().BoolVar(&exportDatabase, "database", false, "Write to the database")
	exportCmd.Flags().IntVarP(&exportWorkers, "jobs", "j", 0, "Number of parallel writers (default one per CPU)")
	exportCmd.Flags().StringSliceVar(&exportInclude, "include", nil, "Only export classes under these packages")
	exportCmd.Flags().StringSliceVar(&exportExclude, "exclude", nil, "Skip classes under these packages")
}

func runExport(cmd *cobra.Command, args []string) error {
	selection := filter.NewClassFilter()
	selection.Include(exportInclude...)
	selection.Exclude(exportExclude...)

	report, err := svc.Export(cmd.Context(), service.ExportOptions{
		Prefix:      exportPrefix,
		Compression: exportCompression,
		ToStorage:   exportStorage || !exportDatabase,
		ToDatabase:  exportDatabase,
		Workers:     exportWorkers,
		Filter:      selection,
		Progress:    func(done, total int64) {
			logger.Info("Exported %d/%d classes", done, total)
		},
	})
	if err != nil {
		return err
	}

	return emit(report, func() {
		fmt.Printf("%s %d classes, %d skipped, %d failed in %v\n",
			green("exported"), report.Exported, report.Skipped, len(report.Failed), report.Elapsed)
		if report.RawBytes > 0 {
			fmt.Printf("  %d bytes stored as %d (%.1f%%)\n", report.RawBytes, report.StoredBytes,
				float64(report.StoredBytes)/float64(report.RawBytes)*100)
		}
		for _, name := range slices.Sorted(maps.Keys(report.Failed)) {
			fmt.Println(red(fmt.Sprintf("  %s: %s", name, report.Failed[name])))
		}
	})
}
