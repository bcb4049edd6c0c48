// Package pipeline wires the trigger listener, the frame stitcher and the
// recognition stage into one service. The stages run as goroutines connected
// by channels; a trigger fans out into stitched frames, frames feed the
// accumulator, and the end of a pass resolves and reports the train identity.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/railsight/sidenum/internal/accumulator"
	"github.com/railsight/sidenum/internal/objdet"
	"github.com/railsight/sidenum/internal/ocr"
	"github.com/railsight/sidenum/internal/resolver"
	"github.com/railsight/sidenum/internal/transport"
	"github.com/railsight/sidenum/internal/utils"
)

// Frame-level detection post-processing constants, matched to the capture
// geometry.
const (
	composeMargin = 5.0
	borderPx      = 20.0
	expandFrac    = 0.01
)

const defaultDedupWindow = 10 * time.Second

// Transport carries trigger datagrams in and result datagrams out.
type Transport interface {
	Recv(ctx context.Context) (string, error)
	Send(msg string) error
}

// Recognizer is the text recognition engine the pipeline drives.
type Recognizer interface {
	Recognize(img image.Image) (*ocr.Result, error)
	RecognizeBoxes(img image.Image, boxes []utils.Box) (*ocr.Result, error)
}

// Config tunes the pipeline stages.
type Config struct {
	// Channel is the camera channel identifier, e.g. "105-x". Triggers on
	// other channels are ignored and capture filenames derive from it.
	Channel string `mapstructure:"channel" yaml:"channel" json:"channel"`
	// Side identifies which side of the track the camera watches; it is
	// echoed in every result datagram.
	Side string `mapstructure:"side" yaml:"side" json:"side"`
	// TrainType selects the fleet resolver: 0 metro, 2 high-speed. Other
	// values report the raw pass string unresolved.
	TrainType int `mapstructure:"train_type" yaml:"train_type" json:"train_type"`
	// RecMode selects fragment extraction: 0 composes the number from
	// detector labels, 1 runs text recognition inside the detector boxes.
	RecMode int `mapstructure:"rec_mode" yaml:"rec_mode" json:"rec_mode"`

	// ImageRoot is the directory the cameras write capture folders into,
	// one folder per trigger timestamp.
	ImageRoot string `mapstructure:"image_root" yaml:"image_root" json:"image_root"`
	// ResizeWidth and ResizeHeight set the stitch canvas size.
	ResizeWidth  int `mapstructure:"resize_width" yaml:"resize_width" json:"resize_width"`
	ResizeHeight int `mapstructure:"resize_height" yaml:"resize_height" json:"resize_height"`

	// SaveFrames writes stitched frames that produced a fragment under
	// SavePath/<timestamp>/<seq>.jpg.
	SaveFrames bool   `mapstructure:"save_frames" yaml:"save_frames" json:"save_frames"`
	SavePath   string `mapstructure:"save_path" yaml:"save_path" json:"save_path"`

	// DedupWindow suppresses identical triggers arriving within it.
	DedupWindow time.Duration `mapstructure:"dedup_window" yaml:"dedup_window" json:"dedup_window"`
}

// Orchestrator runs the three pipeline stages.
type Orchestrator struct {
	cfg     Config
	tr      Transport
	codec   *transport.Codec
	frameRe *regexp.Regexp

	eng      Recognizer
	det      objdet.Detector
	acc      *accumulator.Accumulator
	resolver resolver.Resolver

	log *slog.Logger

	pass pass
}

// New assembles a pipeline. det may be nil; then RecMode 1 falls back to the
// engine's internal text detection and RecMode 0 is rejected, since label
// composition has nothing to compose from.
func New(cfg Config, tr Transport, eng Recognizer, det objdet.Detector,
	acc *accumulator.Accumulator, res resolver.Resolver, logger *slog.Logger,
) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RecMode == 0 && det == nil {
		return nil, fmt.Errorf("rec_mode 0 requires a character detector")
	}
	if cfg.ResizeWidth <= 0 || cfg.ResizeHeight <= 0 {
		return nil, fmt.Errorf("invalid stitch canvas %dx%d", cfg.ResizeWidth, cfg.ResizeHeight)
	}
	if cfg.Side == "" {
		cfg.Side = "2"
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = defaultDedupWindow
	}
	codec, err := transport.NewCodec(cfg.Channel)
	if err != nil {
		return nil, err
	}
	frameRe, err := frameFilePattern(cfg.Channel)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:      cfg,
		tr:       tr,
		codec:    codec,
		frameRe:  frameRe,
		eng:      eng,
		det:      det,
		acc:      acc,
		resolver: res,
		log:      logger,
	}, nil
}

// Run starts the stages and blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	triggers := make(chan transport.Trigger, 16)
	frames := make(chan Frame, 16)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		defer close(triggers)
		o.receiveLoop(ctx, triggers)
	}()
	go func() {
		defer wg.Done()
		defer close(frames)
		o.stitchLoop(ctx, triggers, frames)
	}()
	go func() {
		defer wg.Done()
		o.processLoop(frames)
	}()
	wg.Wait()
	return ctx.Err()
}

// receiveLoop reads trigger datagrams, drops duplicates inside the dedup
// window and forwards the rest.
func (o *Orchestrator) receiveLoop(ctx context.Context, out chan<- transport.Trigger) {
	var lastRaw string
	var lastAt time.Time

	for {
		msg, err := o.tr.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.log.Error("trigger receive failed", "error", err)
			continue
		}
		now := time.Now()
		if msg == lastRaw && now.Sub(lastAt) < o.cfg.DedupWindow {
			triggersTotal.WithLabelValues("duplicate").Inc()
			o.log.Info("duplicate trigger ignored", "msg", msg)
			continue
		}
		lastRaw, lastAt = msg, now

		trig, err := o.codec.ParseTrigger(msg)
		if err != nil {
			triggersTotal.WithLabelValues("invalid").Inc()
			o.log.Warn("trigger rejected", "msg", msg, "error", err)
			continue
		}
		triggersTotal.WithLabelValues("accepted").Inc()
		o.log.Info("trigger accepted", "timestamp", trig.Timestamp, "channel", trig.Channel)

		select {
		case out <- trig:
		case <-ctx.Done():
			return
		}
	}
}

// stitchLoop turns each trigger into a series of stitched frames: the
// capture files are listed, every sliding window of three is stitched onto
// the canvas and the lower half is forwarded.
func (o *Orchestrator) stitchLoop(ctx context.Context, in <-chan transport.Trigger, out chan<- Frame) {
	for trig := range in {
		dir := filepath.Join(o.cfg.ImageRoot, trig.Timestamp)
		files, err := listFrames(dir, o.frameRe)
		if err != nil {
			o.log.Error("failed to list capture files", "dir", dir, "error", err)
			continue
		}
		if len(files) < 3 {
			o.log.Error("not enough capture files to stitch", "dir", dir, "count", len(files))
			continue
		}

		total := len(files) - 2
		o.log.Info("stitching capture files", "dir", dir, "files", len(files), "groups", total)

		for i := 0; i < total; i++ {
			imgs, err := loadThree([3]string{files[i].path, files[i+1].path, files[i+2].path})
			if err != nil {
				o.log.Error("failed to load capture group", "error", err)
				continue
			}
			frame := Frame{
				Image:     stitchLowerHalf(imgs, o.cfg.ResizeWidth, o.cfg.ResizeHeight),
				Timestamp: trig.Timestamp,
				Seq:       files[i].seq,
				Flag:      groupFlag(i, total),
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
		}
	}
}

// processLoop runs recognition on each frame, feeds the accumulator and, at
// the end of a pass, resolves and reports the result.
func (o *Orchestrator) processLoop(in <-chan Frame) {
	for f := range in {
		o.processFrame(f)
	}
}

func (o *Orchestrator) processFrame(f Frame) {
	start := time.Now()
	framesProcessedTotal.Inc()

	if f.Flag == FlagStart {
		o.pass.reset()
		o.acc.Reset()
	}

	fragment, err := o.extractFragment(f.Image)
	if err != nil {
		o.log.Error("frame recognition failed", "seq", f.Seq, "error", err)
	}
	if o.cfg.SaveFrames && fragment != "" {
		o.saveFrame(f)
	}

	if number, ok := o.acc.Submit(fragment); ok {
		o.recordNumber(number)
	}

	if f.Flag == FlagEnd {
		if number, ok := o.acc.Flush(); ok {
			o.recordNumber(number)
		}
		o.report(f.Timestamp)
	}
	frameProcessingDuration.Observe(time.Since(start).Seconds())
}

// extractFragment pulls the candidate number text out of one stitched frame.
func (o *Orchestrator) extractFragment(img *image.NRGBA) (string, error) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	var dets []objdet.Detection
	if o.det != nil {
		var err error
		dets, err = o.det.Predict(img)
		if err != nil {
			return "", fmt.Errorf("character detection failed: %w", err)
		}
	}

	if o.cfg.RecMode == 0 {
		return objdet.ComposeNumber(dets, w, h, composeMargin), nil
	}

	var res *ocr.Result
	var err error
	if o.det != nil {
		boxes := objdet.FilterAndExpand(dets, w, h, borderPx, expandFrac)
		if len(boxes) == 0 {
			return "", nil
		}
		res, err = o.eng.RecognizeBoxes(img, boxes)
	} else {
		res, err = o.eng.Recognize(img)
	}
	if err != nil {
		return "", err
	}
	if len(res.Texts) == 0 {
		return "", nil
	}
	return res.Texts[0], nil
}

func (o *Orchestrator) recordNumber(number string) {
	o.log.Info("number accumulated", "number", number)
	o.pass.add(number)
}

// report closes the pass: with no sightings an empty result goes out,
// otherwise the fleet resolver produces the train identity.
func (o *Orchestrator) report(timestamp string) {
	var msg string
	if o.pass.count == 0 {
		passesTotal.WithLabelValues("empty").Inc()
		msg = transport.FormatEmptyResult(timestamp, o.cfg.Side)
	} else {
		passesTotal.WithLabelValues("resolved").Inc()
		res := o.resolvePass()
		msg = transport.FormatResult(timestamp, o.cfg.Side, res.Direction, res.TrainNumber, o.pass.count, res.Corrected)
	}

	if err := o.tr.Send(msg); err != nil {
		sendErrorsTotal.Inc()
		o.log.Error("failed to send result", "msg", msg, "error", err)
		return
	}
	o.log.Info("result sent", "msg", msg)
}

func (o *Orchestrator) resolvePass() resolver.Result {
	raw := o.pass.String()
	switch o.cfg.TrainType {
	case 0, 2:
		if o.resolver != nil {
			return o.resolver.Resolve(raw)
		}
	}
	return resolver.Result{Direction: "N/A", TrainNumber: "N/A", Corrected: raw}
}

func (o *Orchestrator) saveFrame(f Frame) {
	dir := filepath.Join(o.cfg.SavePath, f.Timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		o.log.Error("failed to create save directory", "dir", dir, "error", err)
		return
	}
	path := filepath.Join(dir, f.Seq+".jpg")
	if err := utils.SaveImage(f.Image, path); err != nil {
		o.log.Error("failed to save frame", "path", path, "error", err)
	}
}
