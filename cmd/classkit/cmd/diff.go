package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/compare"
)

var (
	// Diff command flags
	ignoreTags []string
	diffStrict bool
	diffJobs   int
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-dir-or-archive> [class]",
	Short: "Compare method bodies against another build",
	Long: `Compare the methods of a class in an older build with the version served
by the configured sources. Without a class, every class both builds can list is
compared and only differences are printed.

Line numbers and stack map frames are ignored unless --strict is given;
--ignore replaces the ignored tags (insn, label, line, frame).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringSliceVar(&ignoreTags, "ignore", nil, "Instruction tags to ignore (default frame,line)")
	diffCmd.Flags().BoolVar(&diffStrict, "strict", false, "Compare every instruction node, including lines and frames")
	diffCmd.Flags().IntVarP(&diffJobs, "jobs", "j", 0, "Number of parallel comparisons (default one per CPU)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	ignore := compare.DefaultIgnore
	switch {
	case diffStrict:
		ignore = 0
	case len(ignoreTags) > 0:
		var err error
		if ignore, err = compare.ParseTagSet(ignoreTags); err != nil {
			return err
		}
	}

	old, err := openOldBuild(args[0])
	if err != nil {
		return err
	}
	defer bytesource.Close(old)

	if len(args) == 2 {
		d, err := svc.Diff(cmd.Context(), old, args[1], ignore)
		if err != nil {
			return err
		}
		return emit(d, func() { printClassDiff(d) })
	}

	report, err := svc.DiffAll(cmd.Context(), old, ignore, diffJobs)
	if err != nil {
		return err
	}
	return emit(report, func() {
		for _, name := range report.RemovedClasses {
			fmt.Println(red("- " + name))
		}
		for _, name := range report.AddedClasses {
			fmt.Println(green("+ " + name))
		}
		for _, d := range report.Changed {
			printClassDiff(d)
		}
		fmt.Printf("%d classes compared, %d changed\n", report.Compared, len(report.Changed))
	})
}

// openOldBuild opens a class directory or a jar, zip or jmod archive.
func openOldBuild(path string) (bytesource.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return bytesource.NewDirSource(path), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip", ".jmod":
		return bytesource.OpenArchive(path)
	default:
		return nil, fmt.Errorf("%s is neither a directory nor an archive", path)
	}
}

func printClassDiff(d *compare.ClassDiff) {
	fmt.Println(bold(d.Name))
	for _, m := range d.Removed {
		fmt.Println(red("  - " + m))
	}
	for _, m := range d.Added {
		fmt.Println(green("  + " + m))
	}
	for _, m := range d.Changed {
		fmt.Println(yellow("  ~ " + m))
	}
	if d.Identical() {
		fmt.Println("  identical")
	}
}
