package docgen

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// BuildZip packs the rendered documents into one zip archive, entry order
// matching the input order. Entry headers carry no timestamps, so identical
// inputs produce identical archives. Best compression keeps the mailed
// attachment under the transport's size limits.
func BuildZip(documents []RenderedDocument) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, doc := range documents {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   doc.Name,
			Method: zip.Deflate,
		})
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to create zip entry %s: %w", doc.Name, err)
		}
		if _, err := w.Write(doc.Bytes); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write zip entry %s: %w", doc.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}
	return buf.Bytes(), nil
}
