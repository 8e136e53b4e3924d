package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/curvefit/internal/dataset"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/session"
	"github.com/cwbudde/curvefit/internal/store"
	"github.com/spf13/cobra"
)

var (
	datasetDataDir string
	importCSVPath  string
	importMethod   string
	importDegree   int
	exportOutPath  string
	keepLast       int
	olderThanDays  int
	forceClean     bool
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage saved datasets",
	Long: `Manage named datasets in the data directory: point lists saved together
with the fitting method chosen for them. Fitted models are never stored; they
are recomputed whenever a dataset is loaded.`,
}

var listDatasetsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved datasets",
	Long:  `Display all datasets with name, timestamp, point count, method and size on disk.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListDatasets(cmd.OutOrStdout())
	},
}

var importDatasetCmd = &cobra.Command{
	Use:   "import NAME",
	Short: "Save points from a CSV file as a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImportDataset(cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
	},
}

var exportDatasetCmd = &cobra.Command{
	Use:   "export NAME",
	Short: "Write a dataset's points as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExportDataset(cmd.OutOrStdout(), args[0])
	},
}

var historyDatasetCmd = &cobra.Command{
	Use:   "history NAME",
	Short: "Show the fits recorded each time a dataset was saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDatasetHistory(cmd.OutOrStdout(), args[0])
	},
}

var cleanDatasetsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old datasets",
	Long: `Delete datasets based on a retention policy.
You can keep only the N most recent datasets or delete datasets older than N days.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCleanDatasets(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)

	datasetsCmd.AddCommand(listDatasetsCmd)
	datasetsCmd.AddCommand(importDatasetCmd)
	datasetsCmd.AddCommand(exportDatasetCmd)
	datasetsCmd.AddCommand(historyDatasetCmd)
	datasetsCmd.AddCommand(cleanDatasetsCmd)

	datasetsCmd.PersistentFlags().StringVar(&datasetDataDir, "data-dir", "./data", "Base directory for dataset storage")

	importDatasetCmd.Flags().StringVar(&importCSVPath, "csv", "-", "CSV file with x,y rows (- for stdin)")
	importDatasetCmd.Flags().StringVarP(&importMethod, "method", "m", "regression", "Fitting method saved with the dataset")
	importDatasetCmd.Flags().IntVarP(&importDegree, "degree", "d", 2, "Polynomial degree (polynomial method only)")

	exportDatasetCmd.Flags().StringVarP(&exportOutPath, "out", "o", "", "Output file (default stdout)")

	cleanDatasetsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the N most recent datasets (0 = keep all)")
	cleanDatasetsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete datasets older than N days (0 = no age limit)")
	cleanDatasetsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openStore() (*store.FSStore, error) {
	s, err := store.NewFSStore(datasetDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset store: %w", err)
	}
	return s, nil
}

func runListDatasets(out io.Writer) error {
	datasets, err := openStore()
	if err != nil {
		return err
	}

	infos, err := datasets.List()
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No datasets found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTIMESTAMP\tPOINTS\tMETHOD\tSIZE")
	fmt.Fprintln(w, "----\t---------\t------\t------\t----")

	for _, info := range infos {
		sizeStr := "unknown"
		if size, err := getDirSize(datasets.DatasetDir(info.Name)); err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			info.Name,
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Points,
			info.Method,
			sizeStr,
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal datasets: %d\n", len(infos))
	return nil
}

func runImportDataset(stdin io.Reader, out io.Writer, name string) error {
	method, err := fit.ParseMethod(importMethod)
	if err != nil {
		return err
	}
	cfg := fit.MethodConfig{Method: method, Degree: importDegree}

	r := stdin
	if importCSVPath != "-" {
		f, err := os.Open(importCSVPath)
		if err != nil {
			return fmt.Errorf("failed to open CSV: %w", err)
		}
		defer f.Close()
		r = f
	}

	points, stats, err := dataset.Import(r)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", importCSVPath, err)
	}
	set := fit.NewPointSet()
	if err := set.ReplaceAll(points); err != nil {
		return err
	}
	points = set.Points()

	datasets, err := openStore()
	if err != nil {
		return err
	}
	d := store.NewDataset(name, points, cfg)
	if err := datasets.Save(d); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	if err := datasets.AppendHistory(name, fitHistory(d)); err != nil {
		slog.Warn("Failed to record dataset history", "name", name, "error", err)
	}

	slog.Info("Imported dataset", "name", name, "rows", stats.Rows, "skipped", stats.Skipped)
	fmt.Fprintf(out, "Saved %s: %d points (%d rows skipped), method %s\n", name, len(points), stats.Skipped, cfg)
	return nil
}

// fitHistory fits a dataset the way a session would and records the outcome.
func fitHistory(d *store.Dataset) store.HistoryEntry {
	sess, err := session.New(d.Name, d.Config)
	if err != nil {
		return store.NewHistoryEntry(d, nil, err)
	}
	if err := sess.Apply(session.Replace{Points: d.Points}); err != nil {
		return store.NewHistoryEntry(d, nil, err)
	}
	report, fitErr := sess.Report()
	return store.NewHistoryEntry(d, report, fitErr)
}

func runExportDataset(out io.Writer, name string) error {
	datasets, err := openStore()
	if err != nil {
		return err
	}
	d, err := datasets.Load(name)
	if err != nil {
		return err
	}

	if exportOutPath == "" {
		return dataset.Export(out, d.Points)
	}

	f, err := os.Create(exportOutPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := dataset.Export(f, d.Points); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", exportOutPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", exportOutPath, err)
	}
	fmt.Fprintf(out, "Wrote %d points to %s\n", len(d.Points), exportOutPath)
	return nil
}

func runDatasetHistory(out io.Writer, name string) error {
	datasets, err := openStore()
	if err != nil {
		return err
	}
	entries, err := datasets.History(name)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No history for %s.\n", name)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tMETHOD\tPOINTS\tMSE\tEQUATION")
	for _, e := range entries {
		mse, equation := "-", e.Equation
		if e.MSE != nil {
			mse = fmt.Sprintf("%.6g", *e.MSE)
		}
		if e.Error != "" {
			equation = "(" + e.Error + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Method, e.Points, mse, equation)
	}
	return w.Flush()
}

func runCleanDatasets(stdin io.Reader, out io.Writer) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	datasets, err := openStore()
	if err != nil {
		return err
	}

	infos, err := datasets.List()
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No datasets to clean.")
		return nil
	}

	toDelete := selectDatasetsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No datasets match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d dataset(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%d points, %s)\n",
			info.Name,
			info.Points,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		response, _ := bufio.NewReader(stdin).ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := datasets.Delete(info.Name); err != nil {
			slog.Error("Failed to delete dataset", "name", info.Name, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted dataset", "name", info.Name)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d dataset(s), %d failed.\n", deleted, failed)
	return nil
}

// selectDatasetsForDeletion applies the retention policy: everything older
// than olderThanDays, plus everything beyond the keepLast most recent.
// Zero disables a rule. The result is ordered oldest first.
func selectDatasetsForDeletion(infos []store.DatasetInfo, keepLast, olderThanDays int, now time.Time) []store.DatasetInfo {
	sorted := slices.Clone(infos)
	slices.SortStableFunc(sorted, func(a, b store.DatasetInfo) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	var cutoff time.Time
	if olderThanDays > 0 {
		cutoff = now.AddDate(0, 0, -olderThanDays)
	}
	excess := 0
	if keepLast > 0 {
		excess = max(len(sorted)-keepLast, 0)
	}

	var toDelete []store.DatasetInfo
	for i, info := range sorted {
		if i < excess || (olderThanDays > 0 && info.Timestamp.Before(cutoff)) {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
