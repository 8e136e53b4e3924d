package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/curvefit/internal/dataset"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/session"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// fitOptions holds everything the fit command needs, decoupled from flags.
type fitOptions struct {
	csvPath string
	points  []string
	method  string
	degree  int
	evals   []float64
	samples int
	asJSON  bool
}

var fitOpts fitOptions

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a curve to points from a CSV file or the command line",
	Long: `Fits the selected method to the given points and prints the equation,
the mean squared error and any requested evaluations.

Points come from --csv (rows of "x,y"; "-" reads stdin) or from repeated
--point x,y flags. Methods: regression, linear, quadratic, polynomial, lagrange.`,
	Example: `  curvefit fit --point 0,1 --point 1,3 --point 2,5
  curvefit fit --csv data.csv --method polynomial --degree 3 --eval 2.5
  curvefit fit --csv - --method lagrange --samples 50 --json < data.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFit(cmd.InOrStdin(), cmd.OutOrStdout(), fitOpts)
	},
}

func init() {
	fitCmd.Flags().StringVar(&fitOpts.csvPath, "csv", "", "CSV file with x,y rows (- for stdin)")
	fitCmd.Flags().StringArrayVarP(&fitOpts.points, "point", "p", nil, "Point as x,y (repeatable)")
	fitCmd.Flags().StringVarP(&fitOpts.method, "method", "m", "regression", "Fitting method")
	fitCmd.Flags().IntVarP(&fitOpts.degree, "degree", "d", 2, "Polynomial degree (polynomial method only)")
	fitCmd.Flags().Float64SliceVar(&fitOpts.evals, "eval", nil, "Evaluate the fitted curve at x (repeatable)")
	fitCmd.Flags().IntVar(&fitOpts.samples, "samples", 0, "Sample the curve over the padded data range in N steps (0 = off)")
	fitCmd.Flags().BoolVar(&fitOpts.asJSON, "json", false, "Print the result as JSON")

	fitCmd.MarkFlagsMutuallyExclusive("csv", "point")
	fitCmd.MarkFlagsOneRequired("csv", "point")
	rootCmd.AddCommand(fitCmd)
}

type evaluation struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"` // null where the model is undefined
}

type curveOutput struct {
	Range   fit.PlotRange `json:"range"`
	Samples []fit.Point   `json:"samples"`
}

type fitOutput struct {
	Session     session.View `json:"session"`
	Evaluations []evaluation `json:"evaluations,omitempty"`
	Curve       *curveOutput `json:"curve,omitempty"`
}

func runFit(stdin io.Reader, out io.Writer, opts fitOptions) error {
	method, err := fit.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	cfg := fit.MethodConfig{Method: method, Degree: opts.degree}

	points, err := loadPoints(stdin, opts)
	if err != nil {
		return err
	}

	sess, err := session.New("cli", cfg)
	if err != nil {
		return err
	}
	if err := sess.Apply(session.Replace{Points: points}); err != nil {
		return err
	}

	report, err := sess.Report()
	if err != nil {
		return fmt.Errorf("%s fit of %d points failed: %w", cfg, len(points), err)
	}
	slog.Debug("Fit complete", "method", cfg.String(), "points", len(points), "mse", report.MSE)

	result := fitOutput{}
	for _, x := range opts.evals {
		e := evaluation{X: x}
		if y, ok := sess.Evaluate(x); ok {
			e.Y = &y
		}
		result.Evaluations = append(result.Evaluations, e)
	}
	if opts.samples > 0 {
		pr, samples := sess.Curve(opts.samples)
		result.Curve = &curveOutput{Range: pr, Samples: samples}
	}
	result.Session = sess.Snapshot()

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printFit(out, report, result)
}

func loadPoints(stdin io.Reader, opts fitOptions) ([]fit.Point, error) {
	if opts.csvPath == "" {
		points := make([]fit.Point, 0, len(opts.points))
		for _, raw := range opts.points {
			p, err := parsePoint(raw)
			if err != nil {
				return nil, err
			}
			points = append(points, p)
		}
		return points, nil
	}

	r := stdin
	if opts.csvPath != "-" {
		f, err := os.Open(opts.csvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV: %w", err)
		}
		defer f.Close()
		r = f
	}

	points, stats, err := dataset.Import(r)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", opts.csvPath, err)
	}
	if stats.Skipped > 0 {
		slog.Warn("Skipped invalid rows", "file", opts.csvPath, "rows", stats.Rows, "skipped", stats.Skipped)
	}
	return points, nil
}

// parsePoint reads "x,y".
func parsePoint(raw string) (fit.Point, error) {
	xs, ys, ok := strings.Cut(raw, ",")
	if !ok {
		return fit.Point{}, fmt.Errorf("invalid point %q: want x,y", raw)
	}
	x, err := cast.ToFloat64E(strings.TrimSpace(xs))
	if err != nil {
		return fit.Point{}, fmt.Errorf("invalid point %q: %w", raw, err)
	}
	y, err := cast.ToFloat64E(strings.TrimSpace(ys))
	if err != nil {
		return fit.Point{}, fmt.Errorf("invalid point %q: %w", raw, err)
	}
	return fit.Point{X: x, Y: y}, nil
}

func printFit(out io.Writer, report *fit.Report, result fitOutput) error {
	fmt.Fprintf(out, "Method:    %s\n", report.Config)
	if report.Config.Method == fit.PolynomialInterp && report.Degree != report.RequestedDegree {
		fmt.Fprintf(out, "Degree:    %d (requested %d)\n", report.Degree, report.RequestedDegree)
	}
	fmt.Fprintf(out, "Points:    %d used of %d\n", report.PointsUsed, len(result.Session.Points))
	fmt.Fprintf(out, "Equation:  %s\n", report.Model.Equation())
	fmt.Fprintf(out, "MSE:       %.6g\n", report.MSE)
	if report.PerfectFit {
		fmt.Fprintln(out, "Perfect fit: the curve passes through every point.")
	}

	if len(result.Evaluations) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "X\tY")
		for _, e := range result.Evaluations {
			y := "undefined"
			if e.Y != nil {
				y = fmt.Sprintf("%.6g", *e.Y)
			}
			fmt.Fprintf(w, "%g\t%s\n", e.X, y)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if result.Curve != nil {
		fmt.Fprintf(out, "\nCurve over [%g, %g]:\n", result.Curve.Range.MinX, result.Curve.Range.MaxX)
		for _, p := range result.Curve.Samples {
			fmt.Fprintf(out, "%g,%g\n", p.X, p.Y)
		}
	}
	return nil
}
