package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/railsight/sidenum/internal/utils"
)

// Flag values carried by stitched frames. A pass opens with FlagStart and
// closes with FlagEnd; a sequence that yields a single group is all start.
const (
	FlagStart  = 0
	FlagMiddle = 1
	FlagEnd    = 2
)

// Frame is one stitched image handed from the stitch stage to the
// recognition stage.
type Frame struct {
	Image     *image.NRGBA
	Timestamp string
	Seq       string
	Flag      int
}

type frameFile struct {
	path string
	seq  string
	n    int
}

// frameFilePattern builds the capture-file matcher for a channel. Channel
// "105-x" produces files named "105-001-x.jpg", "105-002-x.jpg" and so on,
// with the sequence number between the channel halves.
func frameFilePattern(channel string) (*regexp.Regexp, error) {
	prefix, suffix, ok := strings.Cut(channel, "-")
	if !ok || prefix == "" || suffix == "" {
		return nil, fmt.Errorf("channel %q has no prefix-suffix form", channel)
	}
	expr := "^" + regexp.QuoteMeta(prefix) + `-(\d{3})-` + regexp.QuoteMeta(suffix) + `\.jpg$`
	return regexp.Compile(expr)
}

// listFrames returns the channel's capture files in a directory, ordered by
// sequence number.
func listFrames(dir string, re *regexp.Regexp) ([]frameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory %q: %w", dir, err)
	}
	var files []frameFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, frameFile{
			path: filepath.Join(dir, entry.Name()),
			seq:  m[1],
			n:    n,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })
	return files, nil
}

// groupFlag classifies group i of total sliding windows. With a single
// group the pass never closes and the group stays a start frame.
func groupFlag(i, total int) int {
	switch {
	case total == 1:
		return FlagStart
	case i == 0:
		return FlagStart
	case i == total-1:
		return FlagEnd
	default:
		return FlagMiddle
	}
}

// loadThree reads three capture files concurrently.
func loadThree(paths [3]string) ([3]image.Image, error) {
	var imgs [3]image.Image
	var errs [3]error
	var wg sync.WaitGroup
	for j := 0; j < 3; j++ {
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			imgs[j], errs[j] = utils.LoadImage(paths[j])
		}(j)
	}
	wg.Wait()
	for j, err := range errs {
		if err != nil {
			return imgs, fmt.Errorf("failed to load frame %q: %w", paths[j], err)
		}
	}
	return imgs, nil
}

// stitchLowerHalf lays three captures side by side on a width x height
// canvas, a third each, and keeps the lower half where the side number sits.
func stitchLowerHalf(imgs [3]image.Image, width, height int) *image.NRGBA {
	third := width / 3
	canvas := imaging.New(width, height, image.Black)
	for j, img := range imgs {
		resized := imaging.Resize(img, third, height, imaging.Lanczos)
		canvas = imaging.Paste(canvas, resized, image.Pt(j*third, 0))
	}
	half := height / 2
	return imaging.Crop(canvas, image.Rect(0, half, width, height))
}
