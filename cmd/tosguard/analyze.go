package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/config"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/infrastructure"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

type analyzeOptions struct {
	videoContext string
	channel      string
	niche        string
	media        string
	transcript   string
	metadata     map[string]string
	output       string
	timeout      time.Duration
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze FILE|-",
		Short: "Analyze a script or transcript for policy risk",
		Long: `Analyze reads text from FILE, or from stdin when FILE is "-", and runs it
through the staged analysis pipeline.

Examples:
  # Analyze a script
  tosguard analyze script.txt

  # Analyze stdin with channel context
  cat transcript.txt | tosguard analyze - --channel "Range Day" --niche firearms

  # Include a keyframe for multi-modal analysis
  tosguard analyze script.txt --media thumb.png -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.videoContext, "video-context", "", "Short description of the video")
	cmd.Flags().StringVar(&opts.channel, "channel", "", "Channel name; enables content origin detection")
	cmd.Flags().StringVar(&opts.niche, "niche", "", "Channel niche")
	cmd.Flags().StringVar(&opts.media, "media", "", "Path to a keyframe or thumbnail image")
	cmd.Flags().StringVar(&opts.transcript, "transcript", "", "Path to a transcript used when media cannot be processed")
	cmd.Flags().StringToStringVar(&opts.metadata, "meta", nil, "Media metadata as key=value pairs")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "human", "Output format (human, json)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall analysis timeout")

	return cmd
}

func runAnalyze(cmd *cobra.Command, source string, opts *analyzeOptions) error {
	if opts.output != "human" && opts.output != "json" {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	text, err := readSource(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	req := risk.Request{
		Text:          text,
		VideoContext:  opts.videoContext,
		MediaRef:      opts.media,
		MediaMetadata: opts.metadata,
	}
	if opts.channel != "" {
		req.Channel = &risk.ChannelContext{Name: opts.channel, Niche: opts.niche}
	}
	if opts.transcript != "" {
		data, err := os.ReadFile(opts.transcript)
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
		req.Transcript = string(data)
	}

	cfg, err := config.LoadPipeline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger()
	pipeline, err := infrastructure.NewPipeline(cfg, logger, fileMedia{}, nil)
	if err != nil {
		return err
	}
	analyzer := pipeline.Analyzer(nil, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Analyzing content..."
	if opts.output == "human" && !verbose {
		s.Start()
	}

	result, err := analyzer.Analyze(ctx, req)
	s.Stop()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if opts.output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	displayResult(cmd.OutOrStdout(), result)
	return nil
}

func readSource(stdin io.Reader, source string) (string, error) {
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", source, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%s: %w", source, risk.ErrEmptyInput)
	}
	return string(data), nil
}
