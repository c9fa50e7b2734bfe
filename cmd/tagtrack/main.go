package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ironsheep/tag-tracker/internal/annotate"
	"github.com/ironsheep/tag-tracker/internal/batch"
	"github.com/ironsheep/tag-tracker/internal/codebook"
	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/detection"
	"github.com/ironsheep/tag-tracker/internal/sink"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("tagtrack %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	var (
		configPath   string
		codebookPath string
		outPath      string
		processed    string
		population   string
		channel      string
		sweepMode    string
		overlayPath  string
		merge        bool
		keepDups     bool
	)
	flag.StringVar(&configPath, "config", "tagtrack.json", "Configuration file (defaults apply when missing)")
	flag.StringVar(&codebookPath, "codebook", "codebook.json", "Tag codebook file")
	flag.StringVar(&outPath, "out", "tags.csv", "CSV archive to append records to")
	flag.StringVar(&processed, "processed", "processed.log", "Resume file listing decoded frames; empty disables")
	flag.StringVar(&population, "population", "", "Population label for every frame (default: from the directory path)")
	flag.StringVar(&channel, "channel", "", "Override the grayscale channel (blue, green, red, none)")
	flag.StringVar(&sweepMode, "sweep", "", "Override the offset sweep mode (first, best)")
	flag.StringVar(&overlayPath, "overlay", "", "Decode a single frame and write an annotated copy to this path")
	flag.BoolVar(&merge, "merge", false, "Merge CSV archives given as arguments into -out, dropping duplicates")
	flag.BoolVar(&keepDups, "keep-duplicates", false, "Write every record, even repeated (population, time, id)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	// Configure logging to stderr
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var debug *log.Logger
	if os.Getenv("TAGTRACK_LOG_LEVEL") == "debug" {
		log.Printf("tagtrack v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		debug = log.Default()
	}

	if merge {
		if err := mergeArchives(outPath, args); err != nil {
			log.Fatalf("Merge failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if channel != "" {
		cfg.Channel = channel
	}
	if sweepMode != "" {
		cfg.SweepMode = sweepMode
	}

	book, err := codebook.Load(codebookPath)
	if err != nil {
		log.Fatalf("Failed to load codebook: %v", err)
	}
	decoders, err := batch.NewDecoderSet(cfg, book, debug)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if overlayPath != "" {
		if err := writeOverlay(decoders, population, args[0], overlayPath); err != nil {
			log.Fatalf("Overlay failed: %v", err)
		}
		return
	}

	out, err := sink.AppendCSV(outPath)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}
	defer out.Close()

	var records detection.Sink = out
	if !keepDups {
		records = sink.NewDedup(out)
	}

	runner, err := batch.NewRunner(decoders, batch.Options{
		Population:   population,
		ProcessedLog: processed,
		Sink:         records,
	})
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var total batch.Summary
	for _, dir := range args {
		sum, err := runner.Run(ctx, dir)
		total.Frames += sum.Frames
		total.Skipped += sum.Skipped
		total.Failed += sum.Failed
		total.Detections += sum.Detections
		if err != nil {
			log.Printf("Run stopped in %s: %v", dir, err)
			break
		}
	}

	log.Printf("Decoded %d frames (%d skipped, %d failed), %d tags written to %s",
		total.Frames, total.Skipped, total.Failed, total.Detections, outPath)
	if total.Failed > 0 {
		out.Close()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("tagtrack - decode fiducial tags in field photographs")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tagtrack [options] DIR...                    decode every frame under DIR")
	fmt.Println("  tagtrack [options] -overlay OUT.png FRAME    annotate one frame")
	fmt.Println("  tagtrack -merge -out ALL.csv A.csv B.csv...  merge archives")
	fmt.Println()
	fmt.Println("Options:")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  TAGTRACK_LOG_LEVEL=debug    Log every accepted candidate")
}

// writeOverlay decodes one frame and saves it with the detections drawn.
func writeOverlay(decoders *batch.DecoderSet, population, framePath, outPath string) error {
	runner, err := batch.NewRunner(decoders, batch.Options{Population: population, Sink: &sink.Collect{}})
	if err != nil {
		return err
	}
	res, err := runner.DecodeFile(framePath)
	if err != nil {
		return err
	}

	drawn, err := annotate.DrawResult(res, annotate.DefaultOptions())
	if err != nil {
		return err
	}
	if err := annotate.Save(drawn, outPath); err != nil {
		return err
	}
	log.Printf("%s: %d tags %v, offset %d -> %s", framePath, len(res.Detections), res.IDs(), res.Offset, outPath)
	return nil
}

// mergeArchives appends the records of every input archive to outPath,
// keeping the first record of each (population, time, id). Records already
// in outPath count as first.
func mergeArchives(outPath string, inputs []string) error {
	existing, err := readArchive(outPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	out, err := sink.AppendCSV(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	written := sink.NewDedup(out)
	for _, rec := range existing {
		written.Remember(rec)
	}

	total := 0
	for _, path := range inputs {
		recs, err := readArchive(path)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := written.Emit(rec); err != nil {
				return err
			}
		}
		total += len(recs)
	}
	log.Printf("Merged %d records from %d archives, %d duplicates dropped", total, len(inputs), written.Dropped())
	return out.Close()
}

// readArchive loads the records of a CSV archive. A missing file is
// reported with an error satisfying os.IsNotExist.
func readArchive(path string) ([]detection.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := sink.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}
