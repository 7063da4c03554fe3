package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"golang.org/x/sync/errgroup"

	"edge-speech-go/internal/core/audio"
	"edge-speech-go/internal/core/communicate"
	"edge-speech-go/internal/core/retry"
	"edge-speech-go/internal/core/submaker"
	"edge-speech-go/internal/core/voices"
	"edge-speech-go/internal/platform/config"
	"edge-speech-go/internal/platform/logging"
)

type cliArgs struct {
	text           string
	file           string
	voice          string
	rate           string
	volume         string
	pitch          string
	proxy          string
	writeMedia     string
	writeSubtitles string
	subFormat      string
	wordsInCue     int
	listVoices     bool
	configPath     string
}

func parseArgs() *cliArgs {
	args := &cliArgs{}
	flag.StringVar(&args.text, "text", "", "what TTS will say")
	flag.StringVar(&args.text, "t", "", "shorthand for -text")
	flag.StringVar(&args.file, "file", "", "same as -text but read from a file, or - for stdin")
	flag.StringVar(&args.file, "f", "", "shorthand for -file")
	flag.StringVar(&args.voice, "voice", "", "voice for TTS")
	flag.StringVar(&args.voice, "v", "", "shorthand for -voice")
	flag.StringVar(&args.rate, "rate", "", "set TTS rate, e.g. +10%")
	flag.StringVar(&args.volume, "volume", "", "set TTS volume, e.g. -20%")
	flag.StringVar(&args.pitch, "pitch", "", "set TTS pitch, e.g. +5Hz")
	flag.StringVar(&args.proxy, "proxy", "", "use a proxy for TTS and the voice list")
	flag.StringVar(&args.writeMedia, "write-media", "", "send media output to file instead of stdout")
	flag.StringVar(&args.writeSubtitles, "write-subtitles", "", "send subtitle output to the provided file")
	flag.StringVar(&args.subFormat, "sub-format", "srt", "subtitle format: srt, vtt or txt")
	flag.IntVar(&args.wordsInCue, "words-in-cue", 10, "number of words in a subtitle cue")
	flag.BoolVar(&args.listVoices, "list-voices", false, "list available voices and exit")
	flag.BoolVar(&args.listVoices, "l", false, "shorthand for -list-voices")
	flag.StringVar(&args.configPath, "config", "", "path to a yaml config file")
	flag.Parse()
	return args
}

func main() {
	if err := run(parseArgs()); err != nil {
		fmt.Fprintf(os.Stderr, "edge-speech: %v\n", err)
		os.Exit(1)
	}
}

func run(args *cliArgs) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader()
	if args.configPath != "" {
		loader.WithPath(args.configPath)
	}
	result, err := loader.Load()
	if err != nil {
		return err
	}
	cfg := result.Config
	applyOverrides(cfg, args)

	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	if args.listVoices {
		return printVoices(ctx, cfg)
	}

	text, err := resolveText(args)
	if err != nil {
		return err
	}

	return synthesize(ctx, cfg, args, logger, text)
}

func applyOverrides(cfg *config.Config, args *cliArgs) {
	if args.voice != "" {
		cfg.Synthesis.Voice = args.voice
	}
	if args.rate != "" {
		cfg.Synthesis.Rate = args.rate
	}
	if args.volume != "" {
		cfg.Synthesis.Volume = args.volume
	}
	if args.pitch != "" {
		cfg.Synthesis.Pitch = args.pitch
	}
	if args.proxy != "" {
		cfg.Network.Proxy = args.proxy
	}
}

func resolveText(args *cliArgs) (string, error) {
	switch {
	case args.text != "":
		return args.text, nil
	case args.file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case args.file != "":
		data, err := os.ReadFile(args.file)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("one of -text, -file or -list-voices is required")
	}
}

func printVoices(ctx context.Context, cfg *config.Config) error {
	var opts []voices.ClientOption
	if cfg.Network.Proxy != "" {
		opts = append(opts, voices.WithProxy(cfg.Network.Proxy))
	}
	client, err := voices.NewClient(opts...)
	if err != nil {
		return err
	}

	catalog, err := client.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(catalog, func(i, j int) bool {
		return catalog[i].ShortName < catalog[j].ShortName
	})

	for i, voice := range catalog {
		if i != 0 {
			fmt.Println()
		}
		fmt.Printf("Name: %s\n", voice.ShortName)
		fmt.Printf("Gender: %s\n", voice.Gender)
		fmt.Printf("ContentCategories: %v\n", voice.VoiceTag.ContentCategories)
		fmt.Printf("VoicePersonalities: %v\n", voice.VoiceTag.VoicePersonalities)
	}
	return nil
}

func synthesize(ctx context.Context, cfg *config.Config, args *cliArgs, logger *logging.Logger, text string) error {
	subs := submaker.New()

	opts := []communicate.Option{
		communicate.WithVoice(cfg.Synthesis.Voice),
		communicate.WithRate(cfg.Synthesis.Rate),
		communicate.WithVolume(cfg.Synthesis.Volume),
		communicate.WithPitch(cfg.Synthesis.Pitch),
		communicate.WithConnectTimeout(cfg.Network.ConnectTimeout),
		communicate.WithReceiveTimeout(cfg.Network.ReceiveTimeout),
		communicate.WithReconnectConfig(retry.Config{
			MaxRetries:    cfg.Reconnect.MaxRetries,
			InitialDelay:  cfg.Reconnect.InitialDelay,
			MaxDelay:      cfg.Reconnect.MaxDelay,
			BackoffFactor: cfg.Reconnect.BackoffFactor,
		}),
		communicate.WithWordBoundaryHook(subs.Feed),
		communicate.WithLogger(logger),
	}
	if cfg.Network.Proxy != "" {
		opts = append(opts, communicate.WithProxy(cfg.Network.Proxy))
	}

	job, err := communicate.New(text, opts...)
	if err != nil {
		return err
	}

	var media bytes.Buffer
	records, errs := job.Stream(ctx)
	for record := range records {
		if record.Type == communicate.RecordAudio {
			media.Write(record.Data)
		}
	}
	if err := <-errs; err != nil {
		return err
	}

	if duration, err := audio.Duration(bytes.NewReader(media.Bytes())); err == nil {
		logger.Info("[CLI] synthesized %d bytes of audio (%s)", media.Len(), duration.Round(10_000_000))
	}

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		if args.writeMedia == "" {
			_, err := os.Stdout.Write(media.Bytes())
			return err
		}
		return os.WriteFile(args.writeMedia, media.Bytes(), 0o644)
	})
	group.Go(func() error {
		if args.writeSubtitles == "" {
			return nil
		}
		if err := subs.MergeCues(args.wordsInCue); err != nil {
			return err
		}
		var rendered string
		switch args.subFormat {
		case "srt":
			rendered = subs.SRT()
		case "vtt":
			rendered = subs.WebVTT()
		case "txt":
			rendered = subs.Plain()
		default:
			return fmt.Errorf("unknown subtitle format %q", args.subFormat)
		}
		return os.WriteFile(args.writeSubtitles, []byte(rendered), 0o644)
	})
	return group.Wait()
}
