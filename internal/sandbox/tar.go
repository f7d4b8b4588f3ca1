package sandbox

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
)

// singleFileTar builds a one-entry tar stream suitable for
// client.CopyToContainer, used instead of docker/pkg/archive's
// directory-oriented helpers since WriteFile uploads in-memory bytes rather
// than a filesystem path.
func singleFileTar(name string, data []byte) (io.Reader, error) {
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := w.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("tar header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("tar write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("tar close: %w", err)
	}
	return &buf, nil
}

// firstFileFromTar extracts the content of the first regular file entry
// from a tar stream, matching the shape CopyFromContainer returns for a
// single-file path.
func firstFileFromTar(r io.Reader) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("tar read: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("tar extract: %w", err)
		}
		return data, nil
	}
}
