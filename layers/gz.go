// Package layers writes map layers out of the analysis records: common places
// as gzipped json lines for tippecanoe, cleaned sections as GeoJSON lines.
package layers

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// gzFile is an encoder writing newline delimited json into a gzip file.
type gzFile struct {
	f  *os.File
	gz *gzip.Writer
	je *json.Encoder
}

func createGZ(path string, level int) (*gzFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewWriterLevel(f, level)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzFile{f: f, gz: gz, je: json.NewEncoder(gz)}, nil
}

func (g *gzFile) JE() *json.Encoder {
	return g.je
}

func (g *gzFile) Close() error {
	if err := g.gz.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// readGZLines decodes every json line of a gzip stream into a fresh T.
func readGZLines[T any](r io.Reader) ([]T, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	dec := json.NewDecoder(gz)
	var out []T
	for {
		var v T
		if err := dec.Decode(&v); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}
