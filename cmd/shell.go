package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/stargazers/internal/config"
	"github.com/naka-gawa/stargazers/internal/domain"
	"github.com/naka-gawa/stargazers/internal/render"
	"github.com/naka-gawa/stargazers/internal/usecase"
)

const shellHelp = `Commands:
  add owner/name   start loading a repository
  stop             stop the current load
  wait             block until the current load finishes
  rm owner/name    remove a repository
  dismiss          dismiss the alert
  ls               list repositories and their statistics
  chart FILE       write the chart to FILE (.png or .svg)
  json             print the chart specification
  share            print a share link
  quit             leave the shell`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Starts an interactive session",
	Long:  `Starts an interactive session where repositories can be added, stopped and removed while the chart updates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		return runShell(cmd.Context(), app, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// shell reads one command per line. Loads run in the background so that
// "stop" can be typed while one is in progress.
type shell struct {
	ctx  context.Context
	app  *usecase.App
	cfg  *config.Config
	out  io.Writer
	mu   sync.Mutex
	busy sync.WaitGroup
}

func runShell(ctx context.Context, app *usecase.App, cfg *config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sh := &shell{ctx: ctx, app: app, cfg: cfg, out: out}
	app.Subscribe(func(s domain.State) {
		if line := render.Progress(s.Loading); line != "" {
			sh.printf("\r%s", line)
		}
	})

	sh.printf("%s\n", shellHelp)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}
		sh.handle(fields[0], fields[1:])
	}
	app.RequestCancel()
	sh.busy.Wait()
	return scanner.Err()
}

func (sh *shell) printf(format string, args ...any) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) showAlert() {
	if alert := sh.app.State().Alert; alert.Visible {
		sh.printf("%s\n", render.Alert(alert))
	}
}

func (sh *shell) handle(command string, args []string) {
	arg := strings.Join(args, " ")
	switch command {
	case "add":
		session, err := sh.app.Begin(domain.ParseIdentifier(arg))
		if err != nil {
			sh.showAlert()
			return
		}
		sh.busy.Add(1)
		go func() {
			defer sh.busy.Done()
			outcome, _ := sh.app.Run(sh.ctx, session)
			sh.printf("\r%s: %s\n", session.Target, outcome)
			sh.showAlert()
		}()
	case "stop":
		if !sh.app.RequestCancel() {
			sh.printf("nothing is loading\n")
		}
	case "wait":
		sh.busy.Wait()
	case "rm":
		if !sh.app.RequestRemove(domain.ParseIdentifier(arg)) {
			sh.printf("%s is not loaded\n", arg)
		}
	case "dismiss":
		sh.app.DismissAlert()
	case "ls":
		records := sh.app.Records()
		summaries, err := usecase.Summarize(records)
		if err != nil {
			sh.printf("%v\n", err)
			return
		}
		sh.printf("%s\n%s\n", render.Badges(records), render.SummaryTable(summaries))
	case "chart":
		sh.writeChart(arg)
	case "json":
		sh.printJSON()
	case "share":
		link, err := usecase.ShareURL(sh.cfg.ShareBaseURL, sh.app.Records())
		if err != nil {
			sh.printf("%v\n", err)
			return
		}
		sh.printf("%s\n", link)
	case "help":
		sh.printf("%s\n", shellHelp)
	default:
		sh.printf("unknown command %q (try help)\n", command)
	}
}

func (sh *shell) writeChart(path string) {
	if path == "" {
		sh.printf("usage: chart FILE\n")
		return
	}
	spec := sh.app.State().Chart
	err := writeFile(path, func(w io.Writer) error {
		if strings.HasSuffix(path, ".svg") {
			return render.SVG(w, spec, render.DefaultWidth, render.DefaultHeight)
		}
		return render.PNG(w, spec, render.DefaultWidth, render.DefaultHeight)
	})
	if err != nil {
		os.Remove(path)
		sh.printf("%v\n", err)
		return
	}
	sh.printf("wrote %s\n", path)
}

func (sh *shell) printJSON() {
	var buf bytes.Buffer
	if err := writeJSON(&buf, sh.app.State().Chart); err != nil {
		sh.printf("%v\n", err)
		return
	}
	sh.printf("%s", buf.String())
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
