package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Write encodes the dataset in the exchange format preserving frame and
// detection order
func Write(w io.Writer, ds *Dataset) error {

	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, frame := range ds.Frames() {

		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(frame.Image)

		if err != nil {
			return fmt.Errorf("error encoding image identifier: %w", err)
		}

		buf.Write(key)
		buf.WriteByte(':')

		objs := make([]object, len(frame.Detections))

		for j, det := range frame.Detections {

			id, err := det.ID.MarshalJSON()

			if err != nil {
				return fmt.Errorf("error encoding target_id: %w", err)
			}

			ltrb, err := json.Marshal(det.Box.Ltrb())

			if err != nil {
				return fmt.Errorf("error encoding ltrb in frame %q: %w", frame.Image, err)
			}

			objs[j] = object{TargetID: id, Ltrb: ltrb}
		}

		list, err := json.Marshal(objs)

		if err != nil {
			return fmt.Errorf("error encoding frame %q: %w", frame.Image, err)
		}

		buf.Write(list)
	}

	buf.WriteByte('}')

	var out bytes.Buffer

	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return fmt.Errorf("error indenting output: %w", err)
	}

	out.WriteByte('\n')

	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("error writing dataset: %w", err)
	}

	return nil
}

// Save writes the dataset in the exchange format to the given file
func Save(file string, ds *Dataset) error {

	f, err := os.Create(file)

	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	bw := bufio.NewWriter(f)

	if err := Write(bw, ds); err != nil {
		f.Close()
		return err
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("error flushing file: %w", err)
	}

	return f.Close()
}
