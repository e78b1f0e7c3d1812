package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/rq/packages/core/config"
	"github.com/abdul-hamid-achik/rq/packages/core/env"
	"github.com/abdul-hamid-achik/rq/packages/core/runner"
	"github.com/abdul-hamid-achik/rq/packages/history"
	"github.com/abdul-hamid-achik/rq/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Send the requests in request files",
	Long: `Send the requests defined in .http or .rest files.

Examples:
  rq run api.http
  rq run api.http --var host=localhost:8080
  rq run api.http --index 2
  rq run ./requests/ --name "create*" --parallel
  rq run api.http --select data.items.0.id
  rq run api.http --wait-for http://localhost:8080/health`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	varFlags        []string
	envFileFlags    []string
	configFlag      string
	indexFlags      []int
	nameFlag        string
	verboseFlag     bool
	noColorFlag     bool
	noBodyFlag      bool
	selectFlag      string
	outputFlag      string
	outputFileFlag  string
	bailFlag        bool
	timeoutFlag     string
	parallelFlag    bool
	concurrencyFlag int
	rateFlag        float64
	watchFlag       bool
	proxyFlag       string
	insecureFlag    bool
	noHistoryFlag   bool
	waitForFlag     string
	waitStatusFlag  int
	waitTimeoutFlag string
)

func init() {
	// Variable flags
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable, overriding the file (name=value, repeatable)")
	runCmd.Flags().StringArrayVar(&envFileFlags, "env-file", envList("RQ_ENV_FILE"), "Path to .env file for variables (repeatable) (env: RQ_ENV_FILE)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("RQ_CONFIG", ""), "Path to config file (env: RQ_CONFIG)")

	// Selection flags
	runCmd.Flags().IntSliceVarP(&indexFlags, "index", "i", nil, "Send only the request at this 1-based position (repeatable)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Send only requests matching name pattern")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("RQ_VERBOSE", false), "Show request and response headers (env: RQ_VERBOSE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("RQ_NO_COLOR", false), "Disable colored output (env: RQ_NO_COLOR)")
	runCmd.Flags().BoolVar(&noBodyFlag, "no-body", false, "Do not print response bodies")
	runCmd.Flags().StringVarP(&selectFlag, "select", "s", "", "Print only this path of JSON bodies (gjson syntax, e.g. data.items.0.id)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("RQ_OUTPUT", "console"), "Output format: console, json (env: RQ_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("RQ_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: RQ_OUTPUT_FILE)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("RQ_BAIL", false), "Stop on first failure (env: RQ_BAIL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("RQ_TIMEOUT", "30s"), "Request timeout (e.g., 30s, 1m) (env: RQ_TIMEOUT)")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("RQ_PARALLEL", false), "Send requests in parallel (env: RQ_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("RQ_CONCURRENCY", 5), "Number of concurrent requests when running in parallel (env: RQ_CONCURRENCY)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Maximum requests per second, 0 for no limit")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and send again")
	runCmd.Flags().BoolVar(&noHistoryFlag, "no-history", getEnvBool("RQ_NO_HISTORY", false), "Do not record requests in history (env: RQ_NO_HISTORY)")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("RQ_PROXY", ""), "Proxy URL for HTTP requests (env: RQ_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("RQ_INSECURE", false), "Disable SSL certificate validation (env: RQ_INSECURE)")
	runCmd.Flags().StringVar(&waitForFlag, "wait-for", "", "Wait until this URL answers before sending (may use variables)")
	runCmd.Flags().IntVar(&waitStatusFlag, "wait-status", 200, "Status code --wait-for expects")
	runCmd.Flags().StringVar(&waitTimeoutFlag, "wait-timeout", "30s", "How long --wait-for keeps polling")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// envList splits a path-list environment variable (a:b on Unix).
func envList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	return filepath.SplitList(val)
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := collectFiles(args)
	if err != nil {
		return &usageError{err}
	}
	if len(files) == 0 {
		return &usageError{fmt.Errorf("no .http or .rest files found")}
	}

	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return &configError{err}
	}

	cfg, err := buildRunConfig(cmd, fileConfig)
	if err != nil {
		return err
	}

	// Setup output writer
	var outWriter io.Writer = cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		outWriter = f
	}

	outputOpts := output.Options{
		Writer:   outWriter,
		Verbose:  verboseFlag,
		NoColor:  noColorFlag || fileConfig.GetNoColor(),
		Select:   selectFlag,
		ShowBody: !noBodyFlag,
	}
	formatter, err := output.NewFormatter(strings.ToLower(outputFlag), outputOpts)
	if err != nil {
		return &usageError{err}
	}
	if h, ok := formatter.(interface{ FormatHeader(string) }); ok {
		h.FormatHeader(version)
	}

	var store *history.Store
	if !noHistoryFlag && fileConfig.GetHistory() {
		store, err = openHistory(fileConfig)
		if err != nil {
			warnf("history disabled: %v", err)
		} else {
			defer store.Close()
		}
	}

	var currentFile string
	runnerOpts := []runner.Option{runner.WithWarnFunc(warnf)}
	if store != nil {
		runnerOpts = append(runnerOpts, runner.WithResultFunc(func(rr *runner.RequestResult) {
			entry := history.FromResult(currentFile, rr)
			if entry == nil {
				return
			}
			if err := store.Append(ctx, entry); err != nil {
				warnf("recording history: %v", err)
			}
		}))
	}
	r := runner.NewRunner(cfg, runnerOpts...)

	// runAll sends every file once and returns the error that decides the
	// exit code.
	runAll := func(formatter output.Formatter) error {
		var firstErr error
		failed := 0
		start := time.Now()

		for _, file := range files {
			currentFile = file
			result, err := r.RunFile(ctx, file)
			if err != nil {
				formatter.FormatError(err)
				if firstErr == nil {
					firstErr = err
				}
				if bailFlag {
					break
				}
				continue
			}

			formatter.FormatResult(result)
			failed += result.Failed
			if firstErr == nil {
				firstErr = firstFailure(result)
			}
			if bailFlag && result.Failed > 0 {
				break
			}
		}

		if flushable, ok := formatter.(output.Flushable); ok {
			if err := flushable.Flush(time.Since(start)); err != nil {
				return fmt.Errorf("error writing output: %w", err)
			}
		}

		switch {
		case failed > 0 && firstErr != nil:
			return &reportedError{fmt.Errorf("%d request(s) failed: %w", failed, firstErr)}
		case firstErr != nil:
			return &reportedError{firstErr}
		}
		return nil
	}

	runErr := runAll(formatter)
	if !watchFlag {
		return runErr
	}

	return watchFiles(ctx, cmd, args, files, func() {
		formatter, err := output.NewFormatter(strings.ToLower(outputFlag), outputOpts)
		if err != nil {
			return
		}
		_ = runAll(formatter)
	})
}

// buildRunConfig combines the config file with command-line flags. Flags
// win whenever they were set explicitly.
func buildRunConfig(cmd *cobra.Command, fileConfig *config.Config) (*runner.Config, error) {
	flags := cmd.Flags()

	timeout := time.Duration(fileConfig.Timeout) * time.Millisecond
	if flags.Changed("timeout") || os.Getenv("RQ_TIMEOUT") != "" || timeout == 0 {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, &usageError{fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)}
		}
		timeout = d
	}

	proxy := fileConfig.Proxy
	if proxyFlag != "" {
		proxy = proxyFlag
	}

	validateSSL := fileConfig.GetValidateSSL()
	if insecureFlag {
		validateSSL = false
	}

	concurrency := concurrencyFlag
	if !flags.Changed("concurrency") && fileConfig.Concurrency > 0 {
		concurrency = fileConfig.Concurrency
	}

	rate := fileConfig.Rate
	if flags.Changed("rate") {
		rate = rateFlag
	}
	if rate < 0 {
		return nil, &usageError{fmt.Errorf("--rate must not be negative")}
	}

	indexes := make([]int, 0, len(indexFlags))
	for _, i := range indexFlags {
		if i < 1 {
			return nil, &usageError{fmt.Errorf("--index must be 1 or greater, got %d", i)}
		}
		indexes = append(indexes, i-1)
	}

	sources, err := loadSources(fileConfig)
	if err != nil {
		return nil, err
	}

	cfg := &runner.Config{
		Timeout:        timeout,
		FollowRedirect: fileConfig.GetFollowRedirects(),
		MaxRedirects:   fileConfig.MaxRedirects,
		ValidateSSL:    validateSSL,
		Proxy:          proxy,
		Headers:        fileConfig.Headers,
		Sources:        sources,
		Indexes:        indexes,
		NameFilter:     nameFlag,
		Parallel:       parallelFlag || fileConfig.GetParallel(),
		Concurrency:    concurrency,
		Rate:           rate,
		Bail:           bailFlag,
	}

	if waitForFlag != "" {
		waitTimeout, err := time.ParseDuration(waitTimeoutFlag)
		if err != nil {
			return nil, &usageError{fmt.Errorf("invalid wait timeout %q: %w", waitTimeoutFlag, err)}
		}
		cfg.WaitFor = &runner.WaitFor{
			URL:     waitForFlag,
			Status:  waitStatusFlag,
			Timeout: waitTimeout,
		}
	}
	return cfg, nil
}

// loadSources gathers every variable layer outside the request file itself.
func loadSources(fileConfig *config.Config) (env.Sources, error) {
	paths := append(append([]string{}, fileConfig.EnvFiles...), envFileFlags...)
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	dotenv, err := env.LoadDotEnvFiles(paths...)
	if err != nil {
		return env.Sources{}, &configError{err}
	}

	assigned, err := env.ParseAssignments(varFlags)
	if err != nil {
		return env.Sources{}, &usageError{err}
	}

	overrides := make(map[string]string, len(fileConfig.Variables)+len(assigned))
	for k, v := range fileConfig.Variables {
		overrides[k] = v
	}
	for k, v := range assigned {
		overrides[k] = v
	}

	return env.Sources{
		DotEnv:    dotenv,
		System:    env.LoadSystemEnv(env.SystemPrefix),
		Overrides: overrides,
	}, nil
}

// firstFailure returns the error of the first failed request in result.
func firstFailure(result *runner.RunResult) error {
	for _, rr := range result.Results {
		if !rr.Passed && !rr.Skipped && rr.Error != nil {
			return rr.Error
		}
	}
	return nil
}

func openHistory(fileConfig *config.Config) (*history.Store, error) {
	path := fileConfig.HistoryPath
	if path == "" {
		path = config.DefaultHistoryPath
	}
	if !filepath.IsAbs(path) {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path)
	}
	return history.Open(path)
}

// watchFiles calls rerun whenever one of the request files changes, until
// ctx is cancelled.
func watchFiles(ctx context.Context, cmd *cobra.Command, args, files []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Add files and directories to watch
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				warnf("failed to watch %s: %v", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	// Also watch the original args if they're directories
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// rerun must not overlap itself
	var mu sync.Mutex
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write) && isRequestFile(event.Name) {
				// Debounce: reset timer on each event
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				name := event.Name
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nSending again...\n\n", name)
					rerun()
					fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warnf("watcher error: %v", err)
		}
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isRequestFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			files = append(files, arg)
		}
	}

	return files, nil
}

func isRequestFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".http" || ext == ".rest"
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
