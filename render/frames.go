package render

import (
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/swdee/go-moteval/dataset"
	"github.com/swdee/go-moteval/metrics"
)

// Stats counts the outcome of rendering a set of frames
type Stats struct {
	Rendered int
	// Skipped frames had an image that could not be read or written, or an
	// image identifier that is not a local relative path
	Skipped int
	// Failed maps the image identifier of each skipped frame to its error
	Failed map[string]error
}

// RenderFrames reads the image of every scored frame from imageDir, draws
// the frame overlay and writes the result to the same relative path under
// outDir.  Frames whose image cannot be read or written, or whose image
// identifier would resolve outside of imageDir or outDir, are skipped and
// recorded in the returned Stats.  The optional progress callback is called
// once per frame
func RenderFrames(imageDir, outDir string, res *metrics.Result,
	gt, pred *dataset.Dataset, style Style, progress func(image string)) (Stats, error) {

	stats := Stats{
		Failed: make(map[string]error),
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, fmt.Errorf("error creating output directory: %w", err)
	}

	for _, fr := range res.Frames {

		if err := renderFrame(imageDir, outDir, fr, gt, pred, style); err != nil {
			stats.Skipped++
			stats.Failed[fr.Image] = err
		} else {
			stats.Rendered++
		}

		if progress != nil {
			progress(fr.Image)
		}
	}

	return stats, nil
}

func renderFrame(imageDir, outDir string, fr metrics.FrameResult,
	gt, pred *dataset.Dataset, style Style) error {

	// image identifiers come from the input files, keep them inside the
	// image and output directories
	if !filepath.IsLocal(fr.Image) {
		return fmt.Errorf("image identifier is not a local path: %q", fr.Image)
	}

	inFile := filepath.Join(imageDir, fr.Image)

	img := gocv.IMRead(inFile, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return fmt.Errorf("error reading image file: %s", inFile)
	}

	gtFrame, _ := gt.Frame(fr.Image)
	predFrame, _ := pred.Frame(fr.Image)

	Overlay(&img, fr, gtFrame, predFrame, style)

	outFile := filepath.Join(outDir, fr.Image)

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	if ok := gocv.IMWrite(outFile, img); !ok {
		return fmt.Errorf("error writing image file: %s", outFile)
	}

	return nil
}
