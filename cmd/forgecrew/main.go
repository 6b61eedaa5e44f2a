// Command forgecrew runs a multi-agent project-generation crew against a
// YAML requirements document.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"

	"github.com/forgecrew/forgecrew"
	"github.com/forgecrew/forgecrew/config"
	"github.com/forgecrew/forgecrew/logging"
	"github.com/forgecrew/forgecrew/model"
	"github.com/forgecrew/forgecrew/model/anthropic"
	"github.com/forgecrew/forgecrew/model/openai"
)

type cli struct {
	Requirements string `arg:"" help:"YAML requirements file." type:"existingfile"`
	Root         string `help:"Project output directory." default:"project_output"`
	Provider     string `help:"Model provider (anthropic or openai)." default:"anthropic"`
	Model        string `help:"Override the provider's default model id."`
	Checkpoint   string `help:"Checkpoint file path." default:"checkpoint.json"`
	FinalContext string `help:"Final context file path." default:"final_context.json"`
	Rounds       int    `help:"Max model round-trips per agent." default:"10"`
	RPM          int    `help:"Model calls per minute ceiling." default:"30"`
	Strict       bool   `help:"Require exact artifact-key matches for agent dependencies."`
	Verbose      bool   `help:"Enable debug logging."`
}

func main() {
	var args cli
	kctx := kong.Parse(&args,
		kong.Name("forgecrew"),
		kong.Description("Multi-agent orchestration harness for generating software projects."),
	)
	kctx.FatalIfErrorf(run(args))
}

func run(args cli) error {
	// .env is optional; the environment itself may already carry the key.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if args.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(&logging.Config{Level: level, Format: "text", Output: os.Stderr})

	cfg := config.Default()
	cfg.Provider = args.Provider
	cfg.Model = args.Model
	cfg.ProjectRoot = args.Root
	cfg.RequirementsFile = args.Requirements
	cfg.CheckpointPath = args.Checkpoint
	cfg.FinalContextPath = args.FinalContext
	cfg.MaxRounds = args.Rounds
	cfg.CallsPerMinute = args.RPM
	cfg.StrictDependencies = args.Strict
	if err := cfg.Resolve(); err != nil {
		return err
	}

	requirements, err := config.LoadRequirements(cfg.RequirementsFile)
	if err != nil {
		return err
	}

	m, err := buildModel(cfg)
	if err != nil {
		return err
	}

	crew := forgecrew.New(m, func(o *forgecrew.Options) {
		o.ProjectRoot = cfg.ProjectRoot
		o.CheckpointPath = cfg.CheckpointPath
		o.FinalContextPath = cfg.FinalContextPath
		o.CallsPerMinute = cfg.CallsPerMinute
		o.MaxRounds = cfg.MaxRounds
		o.StrictDependencies = cfg.StrictDependencies
		o.Logger = logger
	})
	crew.DefaultCrew()

	// SIGINT cancels the run; the orchestrator flushes a checkpoint on the
	// way out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, _, runErr := crew.Run(ctx, requirements)

	fmt.Printf("\ncompleted: %d  failed: %d  files: %d  duration: %s\n",
		len(summary.Completed), len(summary.Failed), summary.FileCount, summary.Duration.Round(summaryRound))
	for agent, reason := range summary.Failures {
		fmt.Printf("  %s failed: %s\n", agent, reason)
	}
	if runErr != nil {
		return runErr
	}
	if !summary.Success {
		return fmt.Errorf("run finished with failures: %s", strings.Join(summary.Failed, ", "))
	}
	return nil
}

const summaryRound = 100 * time.Millisecond

func buildModel(cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	default:
		return nil, &config.Error{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}
