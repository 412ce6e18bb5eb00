package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ushlint/internal/diag"
	"ushlint/internal/logging"
	"ushlint/internal/observ"
	"ushlint/internal/policy"
	"ushlint/internal/rules"
	"ushlint/internal/settings"
	"ushlint/internal/workspace"
)

var diagnoseCmd = &cobra.Command{
	Use:          "diagnose [flags] <file.cs|directory>...",
	Short:        "Run the rule set over UdonSharp source files",
	Long:         `Run every enabled rule over the given files or all *.cs files within a directory and print the diagnostics`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runDiagnoseCmd,
}

func init() {
	diagnoseCmd.Flags().String("profile", "latest", "severity profile (latest|legacy_0.x|strict_experimental)")
	diagnoseCmd.Flags().Bool("ui", false, "render interactive progress while analysing")
	diagnoseCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	diagnoseCmd.Flags().Bool("timings", false, "show timing information")
}

func runDiagnoseCmd(cmd *cobra.Command, args []string) error {
	files, err := collectSourceFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .cs files found")
	}

	profile, _ := cmd.Flags().GetString("profile")
	useUI, _ := cmd.Flags().GetBool("ui")
	jobs, _ := cmd.Flags().GetInt("jobs")
	showTimings, _ := cmd.Flags().GetBool("timings")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	maxDiagnostics, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	configureColor(cmd)

	logger := logging.New(logging.Config{Level: logging.ParseLevel("warn"), Quiet: quiet})
	defer logger.Close()

	cfg := settings.Default()
	cfg.Profile = profile
	cfg.MaxDiagnostics = maxDiagnostics

	timer := observ.NewTimer()
	loadPhase := timer.Begin("load")
	manager := workspace.NewManager(logger.Logger, executableDir())
	if err := manager.Initialise(cfg); err != nil {
		return fmt.Errorf("initialise workspace: %w", err)
	}
	uris := make([]string, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file) // #nosec G304 -- paths come from the command line
		if err != nil {
			logger.Warn("skipping unreadable file", "path", file, "error", err)
			continue
		}
		uri := workspace.PathToURI(file)
		manager.OpenOrUpdate(uri, string(data), 1)
		uris = append(uris, uri)
	}
	timer.End(loadPhase, fmt.Sprintf("%d files", len(uris)))
	parsePhase := timer.Begin("parse")
	snap, err := manager.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	timer.End(parsePhase, "")

	analyzePhase := timer.Begin("analyze")
	engine := rules.NewEngine(logger.Logger, policy.FromDescriptors())
	var diagnostics []diag.Diagnostic
	if useUI && isTerminal(os.Stdout) {
		diagnostics, err = analyzeWithUI(cmd.Context(), engine, snap, uris, files, cfg)
	} else {
		diagnostics, err = analyzeAll(cmd.Context(), engine, snap, uris, cfg, jobs, nil)
	}
	if err != nil {
		return err
	}
	timer.End(analyzePhase, fmt.Sprintf("%d diagnostics", len(diagnostics)))
	if showTimings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		if diagnostics[i].FilePath != diagnostics[j].FilePath {
			return diagnostics[i].FilePath < diagnostics[j].FilePath
		}
		if diagnostics[i].StartLine != diagnostics[j].StartLine {
			return diagnostics[i].StartLine < diagnostics[j].StartLine
		}
		return diagnostics[i].ID < diagnostics[j].ID
	})
	printDiagnostics(diagnostics, quiet)

	for _, d := range diagnostics {
		if d.Severity == diag.SevError {
			return fmt.Errorf("%d diagnostics, errors present", len(diagnostics))
		}
	}
	return nil
}

func analyzeAll(ctx context.Context, engine *rules.Engine, snap *workspace.Snapshot, uris []string, cfg settings.Settings, jobs int, report func(uri string, diags []diag.Diagnostic, err error)) ([]diag.Diagnostic, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	if jobs > 0 {
		group.SetLimit(jobs)
	}
	var mu sync.Mutex
	var out []diag.Diagnostic
	for _, uri := range uris {
		group.Go(func() error {
			diags, err := engine.Analyze(groupCtx, snap, uri, cfg)
			if report != nil {
				report(uri, diags, err)
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, diags...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func printDiagnostics(diagnostics []diag.Diagnostic, quiet bool) {
	errorColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)
	infoColor := color.New(color.FgCyan)
	locColor := color.New(color.Faint)

	for _, d := range diagnostics {
		var sevText string
		switch d.Severity {
		case diag.SevError:
			sevText = errorColor.Sprint("error")
		case diag.SevWarning:
			sevText = warnColor.Sprint("warning")
		default:
			sevText = infoColor.Sprint("info")
		}
		loc := locColor.Sprintf("%s:%d:%d", d.FilePath, d.StartLine, d.StartCol)
		fmt.Fprintf(os.Stderr, "%s %s[%s] %s\n", loc, sevText, d.ID, d.Message)
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "%d diagnostics\n", len(diagnostics))
	}
}

func configureColor(cmd *cobra.Command) {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch strings.ToLower(mode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stderr)
	}
}

func collectSourceFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".cs") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
