package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/detection"
	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// Options controls a batch run.
type Options struct {
	// Population, when set, labels every frame and overrides the label found
	// in the frame's directory path.
	Population string

	// ProcessedLog is the resume file. Empty disables resuming.
	ProcessedLog string

	// Sink receives the records of every decoded frame.
	Sink detection.Sink
}

// Summary counts the outcome of a run.
type Summary struct {
	Frames     int `json:"frames"`     // frames decoded, with or without tags
	Skipped    int `json:"skipped"`    // already processed, or no timestamp
	Failed     int `json:"failed"`     // unreadable or undecodable frames
	Detections int `json:"detections"` // records emitted
}

// Runner decodes frame directories.
type Runner struct {
	decoders *DecoderSet
	opts     Options
}

// NewRunner returns a runner that decodes with decoders and emits to
// opts.Sink.
func NewRunner(decoders *DecoderSet, opts Options) (*Runner, error) {
	if decoders == nil {
		return nil, fmt.Errorf("%w: no decoders", config.ErrConfiguration)
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("%w: no record sink", config.ErrConfiguration)
	}
	return &Runner{decoders: decoders, opts: opts}, nil
}

// Run decodes every frame under root in case-insensitive path order.
//
// The context is checked between frames; a frame in progress always
// completes. Run returns early on cancellation or when the sink fails, with
// the summary of the frames handled so far.
func (r *Runner) Run(ctx context.Context, root string) (Summary, error) {
	var sum Summary

	files, err := listFrames(root)
	if err != nil {
		return sum, err
	}
	done, err := openProcessed(r.opts.ProcessedLog)
	if err != nil {
		return sum, err
	}
	defer done.Close()

	log.Printf("Found %d frames under %s", len(files), root)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if done.has(path) {
			sum.Skipped++
			continue
		}

		start := time.Now()
		res, err := r.DecodeFile(path)
		if errors.Is(err, ErrNoTimestamp) {
			log.Printf("Skipping %s: %v", path, err)
			sum.Skipped++
			continue
		}
		if err != nil {
			log.Printf("Failed to decode %s: %v", path, err)
			sum.Failed++
			continue
		}

		for _, rec := range res.Records() {
			if err := r.opts.Sink.Emit(rec); err != nil {
				return sum, fmt.Errorf("failed to emit record: %w", err)
			}
		}
		sum.Frames++
		sum.Detections += len(res.Detections)

		if err := done.mark(path); err != nil {
			return sum, err
		}

		log.Printf("[%d/%d] %s: %d tags %v, offset %d, %s",
			i+1, len(files), filepath.Base(path), len(res.Detections), res.IDs(),
			res.Offset, time.Since(start).Round(time.Millisecond))
	}
	return sum, nil
}

// DecodeFile loads, prepares and decodes one frame file without emitting.
func (r *Runner) DecodeFile(path string) (*detection.Result, error) {
	ts, err := ParseTimestamp(path)
	if err != nil {
		return nil, err
	}
	pop := r.opts.Population
	if pop == "" {
		pop = PopulationFromPath(path)
	}

	dec, err := r.decoders.For(pop)
	if err != nil {
		return nil, err
	}

	cfg := r.decoders.Config()
	img, err := imaging.LoadFrame(path, cfg.ResizeFor(path))
	if err != nil {
		return nil, err
	}
	frame, err := PrepareFrame(cfg, img)
	if err != nil {
		return nil, err
	}
	frame.Population = pop
	frame.Time = ts

	return dec.Decode(frame)
}

// PrepareFrame applies the configured region of interest to an already
// scaled frame. The crop's top-left corner becomes the frame origin so that
// records stay in full-frame coordinates.
func PrepareFrame(cfg *config.Config, img image.Image) (detection.Frame, error) {
	if cfg.ROI == nil {
		return detection.Frame{Image: img}, nil
	}
	cropped, err := imaging.Crop(img, *cfg.ROI)
	if err != nil {
		return detection.Frame{}, fmt.Errorf("failed to apply roi: %w", err)
	}
	return detection.Frame{
		Image:  cropped,
		Origin: image.Pt(cfg.ROI.X1, cfg.ROI.Y1),
	}, nil
}

// listFrames returns the non-empty image files under root, sorted by path
// ignoring case.
func listFrames(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !imaging.IsFrameFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > 0 {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := strings.ToLower(files[i]), strings.ToLower(files[j])
		if a != b {
			return a < b
		}
		return files[i] < files[j]
	})
	return files, nil
}
