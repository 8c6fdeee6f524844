package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kingrea/prospector/internal/config"
	"github.com/kingrea/prospector/internal/llm"
	"github.com/kingrea/prospector/internal/logbook"
	"github.com/kingrea/prospector/internal/pipeline"
	"github.com/kingrea/prospector/internal/stage"
	"github.com/kingrea/prospector/internal/stages"
	"github.com/kingrea/prospector/internal/tui"
)

const usage = `prospector finds B2B leads through a staged research pipeline.

Usage:
  prospector [flags] run [runflags] [stage]   run the pipeline, or one stage by id
  prospector [flags] dashboard                browse pipeline artifacts in the terminal
  prospector stages                           list stage ids in execution order

Flags:
`

func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	verbose := flag.Bool("verbose", false, "mirror the run log to stderr")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitProspectorDir(absoluteProject); err != nil {
		die("init %s: %v", config.ProspectorDir, err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}
	lb, err := logbook.New(filepath.Join(cfg.LogsDir(), "run.log"))
	if err != nil {
		die("open logbook: %v", err)
	}
	if *verbose {
		lb.Mirror(os.Stderr)
	}

	switch flag.Arg(0) {
	case "", "run":
		runFlags := flag.NewFlagSet("run", flag.ExitOnError)
		metricsAddr := runFlags.String("metrics-addr", "", "serve prometheus /metrics on this address for the run (e.g. :9090)")
		_ = runFlags.Parse(flag.Args()[min(1, flag.NArg()):])
		runPipeline(cfg, lb, runFlags.Arg(0), *metricsAddr)
	case "dashboard":
		if err := tui.Run(cfg, lb); err != nil {
			die("dashboard: %v", err)
		}
	case "stages":
		for _, id := range pipeline.Order {
			fmt.Println(id)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runPipeline(cfg *config.Config, lb *logbook.Logbook, stageID, metricsAddr string) {
	env, err := buildStageContext(cfg, lb)
	if err != nil {
		die("%v", err)
	}
	registry := stage.NewRegistry()
	stages.RegisterBuiltins(registry)
	store := pipeline.NewStateStore(cfg.RunStatePath())
	runner, err := pipeline.NewRunner(registry, env, store)
	if err != nil {
		die("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		go serveMetrics(metricsAddr, lb)
	}

	var state pipeline.RunState
	if stageID == "" {
		state, err = runner.RunAll(ctx)
	} else {
		state, err = runner.RunOne(ctx, stageID)
	}
	report(state, stageID)
	if err != nil {
		die("%v", err)
	}
}

// buildStageContext assembles the shared stage runtime: the artifact store
// plus the two chat-completions clients keyed from the environment.
func buildStageContext(cfg *config.Config, lb *logbook.Logbook) (*stage.Context, error) {
	limits := cfg.Project.Limits
	research, err := llm.NewChatClient(llm.ChatConfig{
		Service: "research",
		APIKey:  cfg.ResearchKey(),
		BaseURL: cfg.Project.Research.Endpoint,
		Model:   cfg.Project.Research.Model,
		Timeout: limits.CallTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("research client: %w (set %s)", err, config.ResearchKeyEnv)
	}
	writer, err := llm.NewChatClient(llm.ChatConfig{
		Service: "writer",
		APIKey:  cfg.WriterKey(),
		BaseURL: cfg.Project.Writer.Endpoint,
		Model:   cfg.Project.Writer.Model,
		Timeout: limits.CallTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("writer client: %w (set %s)", err, config.WriterKeyEnv)
	}
	return stage.NewContext(cfg, lb).WithResearch(research).WithWriter(writer), nil
}

func serveMetrics(addr string, lb *logbook.Logbook) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	lb.Info("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		lb.Warn("metrics server: %v", err)
	}
}

// report prints per-stage outcomes for the run (or the single stage).
func report(state pipeline.RunState, only string) {
	for _, id := range pipeline.Order {
		if only != "" && id != only {
			continue
		}
		st := state.StageStatus(id)
		if st.Status == stage.StatusNotRun && only == "" {
			fmt.Printf("%-13s not run\n", id)
			continue
		}
		line := fmt.Sprintf("%-13s %-20s processed=%d failed=%d", id, st.Status, st.Processed, st.Failed)
		if st.Message != "" {
			line += "  " + st.Message
		}
		fmt.Println(line)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "prospector: "+format+"\n", args...)
	os.Exit(1)
}
