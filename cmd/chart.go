package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/stargazers/internal/domain"
	"github.com/naka-gawa/stargazers/internal/render"
	"github.com/naka-gawa/stargazers/internal/usecase"
)

var chartCmd = &cobra.Command{
	Use:   "chart [owner/name ...]",
	Short: "Loads stargazer history and outputs the chart as JSON",
	Long: `Loads the stargazer history of each repository in turn and prints the
resulting chart specification as JSON. Press Ctrl-C to stop the repository
that is currently loading and continue with the next one; press it again, or
while nothing is loading, to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}

		share, _ := cmd.Flags().GetString("share")
		jsonPath, _ := cmd.Flags().GetString("json")
		pngPath, _ := cmd.Flags().GetString("png")
		svgPath, _ := cmd.Flags().GetString("svg")
		showTable, _ := cmd.Flags().GetBool("table")
		printShare, _ := cmd.Flags().GetBool("print-share")

		var ids []domain.RepositoryIdentifier
		if share != "" {
			ids, err = usecase.ParseShareURL(share)
			if err != nil {
				return err
			}
		}
		for _, arg := range args {
			ids = append(ids, domain.ParseIdentifier(arg))
		}
		if len(ids) == 0 {
			return fmt.Errorf("no repositories given; pass owner/name arguments or --share")
		}

		stderr := cmd.ErrOrStderr()
		app.Subscribe(func(s domain.State) {
			if line := render.Progress(s.Loading); line != "" {
				fmt.Fprintf(stderr, "\r%s", line)
			}
		})

		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt)
		defer signal.Stop(interrupts)
		go watchInterrupts(app, interrupts, stderr, os.Exit)

		loadAll(cmd.Context(), app, ids, stderr)

		state := app.State()
		if len(state.Repos) > 0 {
			fmt.Fprintln(stderr, render.Badges(state.Repos))
		}
		if showTable {
			summaries, err := usecase.Summarize(state.Repos)
			if err != nil {
				return err
			}
			fmt.Fprintln(stderr, render.SummaryTable(summaries))
		}
		if printShare {
			link, err := usecase.ShareURL(cfg.ShareBaseURL, state.Repos)
			if err != nil {
				return err
			}
			fmt.Fprintln(stderr, link)
		}

		if pngPath != "" {
			if err := writeFile(pngPath, func(w io.Writer) error {
				return render.PNG(w, state.Chart, render.DefaultWidth, render.DefaultHeight)
			}); err != nil {
				return err
			}
		}
		if svgPath != "" {
			if err := writeFile(svgPath, func(w io.Writer) error {
				return render.SVG(w, state.Chart, render.DefaultWidth, render.DefaultHeight)
			}); err != nil {
				return err
			}
		}

		if jsonPath == "" || jsonPath == "-" {
			return writeJSON(cmd.OutOrStdout(), state.Chart)
		}
		return writeFile(jsonPath, func(w io.Writer) error {
			return writeJSON(w, state.Chart)
		})
	},
}

// watchInterrupts turns Ctrl-C into a stop of the current load. A Ctrl-C
// with nothing loading, or a second one while the load is stopping, calls
// exit.
func watchInterrupts(app *usecase.App, interrupts <-chan os.Signal, out io.Writer, exit func(int)) {
	for range interrupts {
		if app.Stopping() || !app.RequestCancel() {
			fmt.Fprintln(out, "\nInterrupted")
			exit(130)
			return
		}
		fmt.Fprintln(out, "\nStopping... (Ctrl-C again to quit)")
	}
}

// loadAll loads each repository in order. Rejections and failures are shown
// and dismissed so the next repository starts from a clean alert slot.
func loadAll(ctx context.Context, app *usecase.App, ids []domain.RepositoryIdentifier, out io.Writer) {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, id := range ids {
		outcome, _ := app.RequestLoad(ctx, id)
		switch outcome {
		case usecase.OutcomeAdded:
			fmt.Fprintf(out, "\rLoaded %s\n", id)
		case usecase.OutcomeCancelled:
			fmt.Fprintf(out, "\rStopped loading %s\n", id)
		}
		if alert := app.State().Alert; alert.Visible {
			fmt.Fprintln(out, render.Alert(alert))
			app.DismissAlert()
		}
	}
}

// writeJSON writes v as pretty-printed JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chart to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().String("share", "", "Share link or comma-separated owner/name list to load")
	chartCmd.Flags().String("json", "-", "Write the chart JSON to this file (- for stdout)")
	chartCmd.Flags().String("png", "", "Also render the chart to this PNG file")
	chartCmd.Flags().String("svg", "", "Also render the chart to this SVG file")
	chartCmd.Flags().Bool("table", false, "Print the statistics table to stderr")
	chartCmd.Flags().Bool("print-share", false, "Print a share link for the loaded repositories to stderr")
}
