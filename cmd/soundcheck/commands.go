package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/soundcheck/internal/batch"
	"github.com/linuxmatters/soundcheck/internal/cli"
	"github.com/linuxmatters/soundcheck/internal/logging"
	"github.com/linuxmatters/soundcheck/internal/pipeline"
	"github.com/linuxmatters/soundcheck/internal/processor"
	"github.com/linuxmatters/soundcheck/internal/quality"
	"github.com/linuxmatters/soundcheck/internal/ui"
	"github.com/linuxmatters/soundcheck/internal/watch"
)

// ProbeCmd prints media metadata
type ProbeCmd struct {
	File string `arg:"" type:"existingfile" help:"Media file to inspect"`
}

func (c *ProbeCmd) Run(a *app) error {
	ctx, cancel := a.context()
	defer cancel()

	return a.printJSON(a.svc.Probe(ctx, c.File))
}

// ExtractFlags override the extract section of --options
type ExtractFlags struct {
	Format      string  `help:"Output format: wav, mp3, flac, m4a, ogg"`
	SampleRate  int     `name:"sample-rate" help:"Output sample rate in Hz"`
	Channels    int     `help:"Output channel count"`
	Bitrate     string  `help:"Bitrate for lossy formats, e.g. 128k"`
	MaxDuration float64 `name:"max-duration" help:"Only extract the first N seconds"`
	HiFi        bool    `name:"hifi" help:"Extract 44.1 kHz stereo instead of speech defaults"`
}

func (f ExtractFlags) apply(opts *pipeline.ProcessOptions) error {
	if f.Format != "" {
		format, err := processor.ParseFormat(f.Format)
		if err != nil {
			return err
		}
		opts.Extract.Format = format
	}
	if f.SampleRate != 0 {
		opts.Extract.SampleRate = f.SampleRate
	}
	if f.Channels != 0 {
		opts.Extract.Channels = f.Channels
	}
	if f.Bitrate != "" {
		opts.Extract.Bitrate = f.Bitrate
	}
	if f.MaxDuration != 0 {
		opts.Extract.MaxDuration = f.MaxDuration
	}
	opts.HiFi = opts.HiFi || f.HiFi
	return nil
}

// ExtractCmd extracts one file's audio track
type ExtractCmd struct {
	File string `arg:"" type:"existingfile" help:"Media file to extract from"`
	ExtractFlags
}

func (c *ExtractCmd) Run(a *app) error {
	ctx, cancel := a.context()
	defer cancel()

	opts := a.opts
	if err := c.apply(&opts); err != nil {
		return err
	}

	var (
		path string
		err  error
	)
	if opts.HiFi {
		path, err = a.svc.HiFiExtract(ctx, c.File, opts.Extract)
	} else {
		path, err = a.svc.ExtractAudio(ctx, c.File, opts.Extract)
	}
	if err != nil {
		return err
	}

	if a.cli.JSON {
		return a.printJSON(map[string]string{"input_path": c.File, "audio_path": path})
	}
	cli.PrintKeyValue("Audio", path)
	return nil
}

// AnalyzeCmd measures and scores one audio file
type AnalyzeCmd struct {
	File string `arg:"" type:"existingfile" help:"Audio or media file to analyse"`
}

func (c *AnalyzeCmd) Run(a *app) error {
	ctx, cancel := a.context()
	defer cancel()

	meta := a.svc.Probe(ctx, c.File)
	var info *quality.Info

	if a.tui {
		p := tea.NewProgram(ui.NewAnalysisModel())
		go func() {
			p.Send(ui.AnalysisStartMsg{FilePath: c.File})
			p.Send(ui.AnalysisCompleteMsg{Metadata: meta, Info: a.svc.AnalyzeQuality(ctx, c.File)})
		}()
		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("UI error: %w", err)
		}
		m, ok := final.(ui.AnalysisModel)
		if !ok || !m.Done {
			return errors.New("analysis interrupted")
		}
		info = m.Info
	} else {
		info = a.svc.AnalyzeQuality(ctx, c.File)
	}

	if a.cli.JSON {
		return a.printJSON(info)
	}
	logging.DisplayAnalysisResults(a.out, c.File, meta, info)
	return nil
}

// EnhanceCmd runs the planner and executor over one audio file
type EnhanceCmd struct {
	File string `arg:"" type:"existingfile" help:"Audio file to enhance"`

	NoiseReduction bool    `name:"noise-reduction" help:"Reduce broadband noise"`
	Normalize      bool    `help:"Normalise loudness"`
	Target         float64 `help:"Loudness target in LUFS (0 = -16)"`
	TwoPass        bool    `name:"two-pass" help:"Measure loudness first, then normalise linearly"`
	Compressor     bool    `help:"Apply a gentle compressor"`
	Hum            bool    `help:"Notch out mains hum"`
	HumFrequency   int     `name:"hum-frequency" help:"Mains frequency, 50 or 60 (0 = from local timezone)"`
	Auto           bool    `help:"Add stages from the measured quality of the input"`
	Compare        bool    `help:"Analyse before and after"`
	Format         string  `help:"Output format (default wav)"`
}

func (c *EnhanceCmd) options(base *processor.EnhanceOptions) (processor.EnhanceOptions, error) {
	var opts processor.EnhanceOptions
	if base != nil {
		opts = *base
	}
	opts.NoiseReduction = opts.NoiseReduction || c.NoiseReduction
	opts.LoudnessNormalization = opts.LoudnessNormalization || c.Normalize || c.TwoPass
	opts.LoudnessTwoPass = opts.LoudnessTwoPass || c.TwoPass
	opts.Compressor = opts.Compressor || c.Compressor
	opts.HumNotch = opts.HumNotch || c.Hum || c.HumFrequency != 0
	opts.EnhanceAudio = opts.EnhanceAudio || c.Auto
	opts.CompareQuality = opts.CompareQuality || c.Compare
	if c.Target != 0 {
		opts.LoudnessTarget = c.Target
	}
	if c.HumFrequency != 0 {
		opts.HumFrequency = c.HumFrequency
	}
	if c.Format != "" {
		format, err := processor.ParseFormat(c.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}
	return opts, opts.Validate()
}

func (c *EnhanceCmd) Run(a *app) error {
	ctx, cancel := a.context()
	defer cancel()

	opts, err := c.options(a.opts.Enhance)
	if err != nil {
		return err
	}

	result, err := a.svc.Enhance(ctx, c.File, opts)
	if err != nil {
		return err
	}

	if a.cli.JSON {
		return a.printJSON(result)
	}
	cli.PrintKeyValue("Enhanced", result.OutputPath)
	cli.PrintKeyValue("Stages", strings.Join(result.Stages, ", "))
	for _, imp := range result.Improvements {
		fmt.Fprintf(a.out, "  - %s\n", imp)
	}
	if delta, ok := result.QualityImprovement(); ok {
		cli.PrintKeyValue("Quality change", fmt.Sprintf("%+.0f", delta))
	}
	return nil
}

// ProcessFlags are the step toggles shared by process, batch and watch
type ProcessFlags struct {
	ExtractFlags
	Analyze bool `help:"Measure the extracted audio"`
	Auto    bool `help:"Enhance using stages chosen from the measured quality"`
	Report  bool `help:"Write a text report next to each output"`
}

func (f ProcessFlags) options(base pipeline.ProcessOptions) (pipeline.ProcessOptions, error) {
	opts := base
	if err := f.apply(&opts); err != nil {
		return opts, err
	}
	opts.Analyze = opts.Analyze || f.Analyze
	opts.Report = opts.Report || f.Report
	if f.Auto {
		enhance := processor.EnhanceOptions{}
		if opts.Enhance != nil {
			enhance = *opts.Enhance
		}
		enhance.EnhanceAudio = true
		enhance.CompareQuality = true
		opts.Enhance = &enhance
	}
	return opts, opts.Validate()
}

// ProcessCmd runs the full pipeline over one file
type ProcessCmd struct {
	File string `arg:"" type:"existingfile" help:"Media file to process"`
	ProcessFlags
}

func (c *ProcessCmd) Run(a *app) error {
	ctx, cancel := a.context()
	defer cancel()

	opts, err := c.options(a.opts)
	if err != nil {
		return err
	}

	result, err := a.svc.ProcessMedia(ctx, c.File, opts)
	if err != nil {
		return err
	}

	if a.cli.JSON {
		return a.printJSON(result)
	}
	printResult(result)
	return nil
}

// BatchCmd processes several files in waves
type BatchCmd struct {
	Files       []string `arg:"" type:"existingfile" help:"Media files to process"`
	Concurrency int      `short:"j" help:"Files per wave (0 = from config, then CPU count)"`
	ProcessFlags
}

func (c *BatchCmd) Run(a *app) error {
	ctx, cancel := a.context()
	defer cancel()

	opts, err := c.options(a.opts)
	if err != nil {
		return err
	}

	concurrency := c.Concurrency
	if concurrency < 1 {
		concurrency = a.cfg.Concurrency
	}
	if concurrency < 1 {
		concurrency = batch.DefaultConcurrency()
	}

	var report batch.Report[*pipeline.ProcessingResult]
	if a.tui {
		report, err = runBatchTUI(ctx, a, c.Files, opts, concurrency)
		if err != nil {
			return err
		}
	} else {
		report = a.svc.BatchProcess(ctx, c.Files, opts, concurrency)
	}

	if a.cli.JSON {
		if err := a.printJSON(report); err != nil {
			return err
		}
	} else if !a.tui {
		printSummary(report)
	}

	if failed := report.Summary.Failed; failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, report.Summary.Total)
	}
	return nil
}

// WatchCmd processes files as they settle in a directory
type WatchCmd struct {
	Dir string `arg:"" optional:"" type:"existingdir" help:"Directory to watch (default: the upload directory)"`
	ProcessFlags
}

func (c *WatchCmd) Run(a *app) error {
	ctx, cancel := a.context()
	defer cancel()

	opts, err := c.options(a.opts)
	if err != nil {
		return err
	}

	dir := c.Dir
	if dir == "" {
		dir = a.cfg.UploadDir
	}

	w := watch.New(dir, a.cfg.Watch, func(ctx context.Context, paths []string) {
		report := a.svc.BatchProcess(ctx, paths, opts, 0)
		for _, f := range report.Failures() {
			a.logger.Error("file failed", "path", f.Path, "error", f.Error)
		}
	}, a.logger)

	a.logger.Info("watching", "dir", dir)
	return w.Run(ctx)
}

// VersionCmd prints version information
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	ffmpeg := ""
	if a.svc != nil {
		ffmpeg = a.svc.FFmpegPath()
	}
	cli.PrintVersion(version, ffmpeg)
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(r *pipeline.ProcessingResult) {
	cli.PrintKeyValue("Audio", r.AudioPath)
	if r.Quality != nil {
		cli.PrintKeyValue("Score", fmt.Sprintf("%.0f/100", r.Quality.Score))
	}
	if r.EnhancedPath != "" {
		cli.PrintKeyValue("Enhanced", r.EnhancedPath)
		cli.PrintKeyValue("Stages", strings.Join(r.Enhancements, ", "))
	}
	if r.EnhancedQuality != nil {
		cli.PrintKeyValue("Enhanced score", fmt.Sprintf("%.0f/100", r.EnhancedQuality.Score))
	}
	if r.ReportPath != "" {
		cli.PrintKeyValue("Report", r.ReportPath)
	}
}

func printSummary(report batch.Report[*pipeline.ProcessingResult]) {
	for _, e := range report.Entries {
		if e.Success {
			cli.PrintKeyValue("✓ "+e.Path, e.Result.AudioPath)
		} else {
			cli.PrintError(fmt.Sprintf("%s: %s", e.Path, e.Error))
		}
	}
	s := report.Summary
	fmt.Printf("\n%d succeeded, %d failed, %d total in %s\n", s.Succeeded, s.Failed, s.Total, s.TotalTime.Round(time.Millisecond))
}
