package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/curvefit/internal/session"
	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Query server sessions",
	Long: `Queries a running server for session information.
If no session-id is provided, lists all sessions.
If session-id is provided, shows its points and current fit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

var statusClient = &http.Client{Timeout: 10 * time.Second}

func runStatus(cmd *cobra.Command, args []string) error {
	base := strings.TrimRight(serverURL, "/")
	if len(args) == 0 {
		return listSessions(cmd.OutOrStdout(), base+"/api/v1/sessions")
	}
	return showSession(cmd.OutOrStdout(), base+"/api/v1/sessions/"+args[0])
}

// getJSON fetches url and decodes the JSON body into v.
func getJSON(url string, v any) error {
	resp, err := statusClient.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func listSessions(out io.Writer, url string) error {
	var sessions []session.Summary
	if err := getJSON(url, &sessions); err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION ID\tMETHOD\tPOINTS\tMSE\tUPDATED")
	for _, s := range sessions {
		mse := "-"
		if s.MSE != nil {
			mse = fmt.Sprintf("%.6g", *s.MSE)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Config, s.Points, mse, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal sessions: %d\n", len(sessions))
	return nil
}

func showSession(out io.Writer, url string) error {
	var v session.View
	if err := getJSON(url, &v); err != nil {
		return err
	}

	fmt.Fprintf(out, "Session:   %s (revision %d)\n", v.ID, v.Revision)
	fmt.Fprintf(out, "Method:    %s, %s\n", v.Config, v.Requirement.Hint())
	fmt.Fprintf(out, "Points:    %d\n", len(v.Points))
	for i, p := range v.Points {
		fmt.Fprintf(out, "  [%d] (%g, %g)\n", i, p.X, p.Y)
	}

	switch {
	case v.Report != nil:
		fmt.Fprintf(out, "Equation:  %s\n", v.Report.Equation)
		fmt.Fprintf(out, "MSE:       %.6g\n", v.Report.MSE)
		if v.Report.EvaluationPoint != nil {
			fmt.Fprintf(out, "Evaluated: f(%g) = %.6g\n", v.Report.EvaluationPoint.X, v.Report.EvaluationPoint.Y)
		}
	case v.FitError != nil:
		fmt.Fprintf(out, "No fit:    %s\n", v.FitError.Message)
	}
	return nil
}
