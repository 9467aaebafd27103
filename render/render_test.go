package render

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/swdee/go-moteval/dataset"
	"github.com/swdee/go-moteval/geometry"
	"github.com/swdee/go-moteval/metrics"
)

func testFrames(t *testing.T) (*dataset.Dataset, *dataset.Dataset, *metrics.Result) {
	t.Helper()

	gt := dataset.New(dataset.Frame{
		Image: "000001.jpg",
		Detections: []dataset.Detection{
			dataset.NewDetection(dataset.NumericID(1), geometry.NewBox(10, 30, 40, 80)),
			dataset.NewDetection(dataset.NumericID(2), geometry.NewBox(100, 30, 140, 90)),
		},
	})

	pred := dataset.New(dataset.Frame{
		Image: "000001.jpg",
		Detections: []dataset.Detection{
			dataset.NewDetection(dataset.NumericID(1), geometry.NewBox(12, 32, 42, 82)),
			dataset.NewDetection(dataset.NumericID(9), geometry.NewBox(160, 100, 190, 150)),
		},
	})

	res, err := metrics.NewScorer(metrics.DefaultOptions()).Score(gt, pred)
	require.NoError(t, err)

	return gt, pred, res
}

func TestIDColorStable(t *testing.T) {

	a := IDColor(dataset.StringID("7"))
	assert.Equal(t, a, IDColor(dataset.StringID("7")))
	assert.Contains(t, idColors, a)
	assert.Contains(t, idColors, IDColor(dataset.NumericID(7)))
}

func TestDefaultStyleColours(t *testing.T) {

	s := DefaultStyle()

	// every box outcome is told apart by its outline colour
	outcomes := []any{s.GroundTruth, s.Miss, s.Match, s.FalsePositive}
	require.ElementsMatch(t, []any{Green, Orange, Blue, Red}, outcomes)

	for i := range outcomes {
		for j := i + 1; j < len(outcomes); j++ {
			assert.NotEqual(t, outcomes[i], outcomes[j])
		}
	}

	assert.NotEqual(t, Black, s.Font.Color)
}

func TestPlaceLabel(t *testing.T) {

	rect := image.Rect(50, 40, 100, 90)
	size := image.Pt(20, 10)

	l := placeLabel(rect, "7", White, size, 3, Left, 2)
	assert.Equal(t, image.Rect(49, 24, 75, 40), l.rect)
	assert.Equal(t, image.Pt(52, 37), l.textPos)

	r := placeLabel(rect, "7", White, size, 3, Right, 2)
	assert.Equal(t, 101, r.rect.Max.X)

	// a box at the top edge gets its label inside the box
	top := placeLabel(image.Rect(0, 0, 30, 30), "7", White, size, 3, Left, 2)
	assert.Equal(t, 0, top.rect.Min.Y)
}

func TestOverlayDrawsBoxes(t *testing.T) {

	gt, pred, res := testFrames(t)

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()

	gtFrame, _ := gt.Frame("000001.jpg")
	predFrame, _ := pred.Frame("000001.jpg")

	Overlay(&img, res.Frames[0], gtFrame, predFrame, DefaultStyle())

	// outline of the false positive box
	v := img.GetVecbAt(150, 160)
	assert.NotEqual(t, []uint8{0, 0, 0}, []uint8{v[0], v[1], v[2]})

	// centre of the false positive box stays untouched
	v = img.GetVecbAt(125, 175)
	assert.Equal(t, []uint8{0, 0, 0}, []uint8{v[0], v[1], v[2]})
}

func TestRenderFrames(t *testing.T) {

	gt, pred, res := testFrames(t)

	imageDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "overlay")

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	require.True(t, gocv.IMWrite(filepath.Join(imageDir, "000001.jpg"), img))

	var seen []string

	stats, err := RenderFrames(imageDir, outDir, res, gt, pred, DefaultStyle(),
		func(image string) { seen = append(seen, image) })
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Rendered)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, []string{"000001.jpg"}, seen)

	out := gocv.IMRead(filepath.Join(outDir, "000001.jpg"), gocv.IMReadColor)
	defer out.Close()
	assert.False(t, out.Empty())
}

func TestRenderFramesMissingImage(t *testing.T) {

	gt, pred, res := testFrames(t)

	stats, err := RenderFrames(t.TempDir(), t.TempDir(), res, gt, pred, DefaultStyle(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Rendered)
	assert.Equal(t, 1, stats.Skipped)
	assert.Contains(t, stats.Failed, "000001.jpg")
}

func TestRenderFramesRejectsNonLocalImage(t *testing.T) {

	root := t.TempDir()
	imageDir := filepath.Join(root, "images")
	outDir := filepath.Join(root, "overlay")
	require.NoError(t, os.MkdirAll(imageDir, 0o755))

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()

	// a readable image sits where the escaping identifier points
	require.True(t, gocv.IMWrite(filepath.Join(root, "escape.jpg"), img))

	for _, name := range []string{"../escape.jpg", filepath.Join(root, "escape.jpg")} {

		det := dataset.NewDetection(dataset.NumericID(1), geometry.NewBox(10, 10, 50, 50))
		gt := dataset.New(dataset.Frame{Image: name, Detections: []dataset.Detection{det}})
		pred := dataset.New(dataset.Frame{Image: name, Detections: []dataset.Detection{det}})

		res, err := metrics.NewScorer(metrics.DefaultOptions()).Score(gt, pred)
		require.NoError(t, err)

		stats, err := RenderFrames(imageDir, outDir, res, gt, pred, DefaultStyle(), nil)
		require.NoError(t, err)

		assert.Equal(t, 0, stats.Rendered, name)
		assert.Equal(t, 1, stats.Skipped, name)
		require.Contains(t, stats.Failed, name)
		assert.ErrorContains(t, stats.Failed[name], "not a local path")
	}

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
