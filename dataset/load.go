package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/swdee/go-moteval/geometry"
)

// ErrMalformed is returned when the exchange format cannot be interpreted,
// such as a missing target_id or a box without four numeric coordinates
var ErrMalformed = errors.New("malformed dataset")

// object is a single detection as found in the exchange format
type object struct {
	TargetID json.RawMessage `json:"target_id"`
	Ltrb     json.RawMessage `json:"ltrb"`
}

// Load reads a dataset in the exchange format from the given file
func Load(file string) (*Dataset, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	ds, err := Parse(bufio.NewReader(f))

	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", file, err)
	}

	return ds, nil
}

// Parse reads a dataset in the exchange format.  The format is a JSON object
// keyed by image identifier, each value being a list of objects with a
// target_id and a four element ltrb box.  Frame and detection order from
// the input is preserved
func Parse(r io.Reader) (*Dataset, error) {

	dec := json.NewDecoder(r)

	tok, err := dec.Token()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object at top level", ErrMalformed)
	}

	ds := New()

	for dec.More() {

		tok, err := dec.Token()

		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		image, ok := tok.(string)

		if !ok {
			return nil, fmt.Errorf("%w: expected image identifier, got %v", ErrMalformed, tok)
		}

		var raw json.RawMessage

		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: frame %q: %v", ErrMalformed, image, err)
		}

		frame, err := parseFrame(image, raw)

		if err != nil {
			return nil, err
		}

		ds.put(frame)
	}

	// consume closing brace
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// nothing may follow the top level object
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after top level object", ErrMalformed)
	}

	return ds, nil
}

// parseFrame converts the raw list of objects for an image into a Frame
func parseFrame(image string, raw json.RawMessage) (Frame, error) {

	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 || raw[0] != '[' {
		return Frame{}, fmt.Errorf("%w: frame %q: expected list of objects", ErrMalformed, image)
	}

	var objs []json.RawMessage

	if err := json.Unmarshal(raw, &objs); err != nil {
		return Frame{}, fmt.Errorf("%w: frame %q: %v", ErrMalformed, image, err)
	}

	frame := Frame{
		Image:      image,
		Detections: make([]Detection, 0, len(objs)),
	}

	for i, rawObj := range objs {

		det, err := parseObject(rawObj)

		if err != nil {
			return Frame{}, fmt.Errorf("frame %q object %d: %w", image, i, err)
		}

		frame.Detections = append(frame.Detections, det)
	}

	return frame, nil
}

// parseObject converts a single raw exchange format object into a Detection
func parseObject(raw json.RawMessage) (Detection, error) {

	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 || raw[0] != '{' {
		return Detection{}, fmt.Errorf("%w: expected object", ErrMalformed)
	}

	var obj object

	if err := json.Unmarshal(raw, &obj); err != nil {
		return Detection{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if obj.TargetID == nil || string(obj.TargetID) == "null" {
		return Detection{}, fmt.Errorf("%w: missing target_id", ErrMalformed)
	}

	if obj.Ltrb == nil || string(obj.Ltrb) == "null" {
		return Detection{}, fmt.Errorf("%w: missing ltrb", ErrMalformed)
	}

	id, err := parseTargetID(obj.TargetID)

	if err != nil {
		return Detection{}, err
	}

	var coords []*float64

	if err := json.Unmarshal(obj.Ltrb, &coords); err != nil {
		return Detection{}, fmt.Errorf("%w: ltrb: %v", ErrMalformed, err)
	}

	if len(coords) != 4 {
		return Detection{}, fmt.Errorf("%w: ltrb must have 4 coordinates, got %d",
			ErrMalformed, len(coords))
	}

	var ltrb geometry.Ltrb

	for i, c := range coords {
		if c == nil {
			return Detection{}, fmt.Errorf("%w: ltrb coordinate %d is null", ErrMalformed, i)
		}
		ltrb[i] = *c
	}

	return NewDetection(id, geometry.BoxFromLtrb(ltrb)), nil
}

// LoadFrameList reads a list of image identifiers from the given text file.
// It should contain one identifier per line, blank lines and lines starting
// with # are skipped
func LoadFrameList(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var images []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		images = append(images, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return images, nil
}
