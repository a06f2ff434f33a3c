package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"

	"github.com/linuxmatters/soundcheck/internal/cli"
	"github.com/linuxmatters/soundcheck/internal/config"
	"github.com/linuxmatters/soundcheck/internal/logging"
	"github.com/linuxmatters/soundcheck/internal/mediaerr"
	"github.com/linuxmatters/soundcheck/internal/pipeline"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Config   string        `short:"c" type:"path" help:"Path to YAML config file (optional)"`
	LogLevel string        `name:"log-level" placeholder:"level" help:"Log level: trace, debug, info, warn, error"`
	Options  string        `type:"existingfile" placeholder:"file" help:"YAML processing options applied to every file"`
	Timeout  time.Duration `help:"Abort the command after this long (0 = no limit)"`
	JSON     bool          `help:"Print results as JSON"`
	NoTUI    bool          `name:"no-tui" help:"Plain output even on a terminal"`

	Probe   ProbeCmd   `cmd:"" help:"Show container and stream metadata"`
	Extract ExtractCmd `cmd:"" help:"Extract the audio track to a new file"`
	Analyze AnalyzeCmd `cmd:"" help:"Measure audio quality and score it"`
	Enhance EnhanceCmd `cmd:"" help:"Apply an enhancement filter chain to an audio file"`
	Process ProcessCmd `cmd:"" help:"Extract, then optionally analyse and enhance, one file"`
	Batch   BatchCmd   `cmd:"" help:"Process several files in small concurrent waves"`
	Watch   WatchCmd   `cmd:"" help:"Process media files as they land in a directory"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// app carries what every command needs once flags and config are resolved
type app struct {
	cli    *CLI
	cfg    *config.Config
	logger hclog.Logger
	svc    *pipeline.Service
	opts   pipeline.ProcessOptions
	tui    bool
	out    io.Writer

	// logFile is set while the TUI sends logs to a file
	logFile *os.File
}

// close releases the log file, if any
func (a *app) close() {
	if a != nil && a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("soundcheck"),
		kong.Description("Media audio extraction, quality analysis and enhancement"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	command := ctx.Command()
	if command == "version" {
		ctx.FatalIfErrorf(ctx.Run(&app{cli: cliArgs, out: os.Stdout}))
		return
	}

	a, err := newApp(cliArgs, command)
	if err != nil {
		a.close()
		cli.PrintError(err.Error())
		os.Exit(exitCode(err))
	}

	err = ctx.Run(a)
	a.close()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(exitCode(err))
	}
}

func newApp(c *CLI, command string) (*app, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	a := &app{cli: c, cfg: cfg, out: os.Stdout}
	a.tui = !c.NoTUI && !c.JSON && isatty.IsTerminal(os.Stdout.Fd()) &&
		(strings.HasPrefix(command, "batch") || strings.HasPrefix(command, "analyze"))

	// The TUI owns the terminal, so logs go to a file beside the outputs
	var logOut io.Writer = os.Stderr
	if a.tui {
		if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
			return a, err
		}
		f, err := os.OpenFile(filepath.Join(cfg.AudioDir, "soundcheck.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return a, err
		}
		a.logFile = f
		logOut = f
	}
	a.logger = logging.New("soundcheck", cfg.Level(), logOut)

	if c.Options != "" {
		data, err := os.ReadFile(c.Options)
		if err != nil {
			return a, fmt.Errorf("failed to read options: %w", err)
		}
		if a.opts, err = pipeline.ParseProcessOptions(data); err != nil {
			return a, err
		}
	}

	if a.svc, err = pipeline.New(cfg, a.logger); err != nil {
		return a, err
	}
	if err := a.svc.CheckEngine(); err != nil {
		return a, err
	}
	return a, nil
}

// context returns the command context: cancelled on SIGINT/SIGTERM and
// bounded by --timeout when set
func (a *app) context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if a.cli.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, a.cli.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// exitCode maps validation failures to 2 and everything else to 1
func exitCode(err error) int {
	if mediaerr.IsValidation(err) {
		return 2
	}
	return 1
}
