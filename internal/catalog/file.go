package catalog

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caedis/mod-update-checker/internal/library"
)

// FileCatalog is the on-disk form of an offline catalog.
type FileCatalog struct {
	Updated map[string][]string     `yaml:"updated"`
	Files   []library.RemoteModInfo `yaml:"files"`
}

// FileClient answers catalog queries from a YAML document.
//
// Each query line is answered by the first unused record whose download id,
// file name or catalog id matches the line, tried in that order. An empty answer
// is returned as a nil slice, which callers treat as "no info". Records
// without a category_id are read as having no category.
type FileClient struct {
	catalog FileCatalog
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*FileClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes a YAML catalog document.
func ParseFile(data []byte) (*FileClient, error) {
	var fc FileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	for i := range fc.Files {
		if fc.Files[i].CustomCategoryID == 0 {
			fc.Files[i].CustomCategoryID = library.CategoryUnset
		}
	}
	return &FileClient{catalog: fc}, nil
}

func (f *FileClient) GetUpdated(_ context.Context, period string) ([]string, error) {
	ids, ok := f.catalog.Updated[period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", period)
	}
	return append([]string(nil), ids...), nil
}

func (f *FileClient) GetFileListInfo(ctx context.Context, lines []QueryLine) ([]library.RemoteModInfo, error) {
	var out []library.RemoteModInfo
	used := make(map[int]bool)
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx := f.lookup(line, used); idx >= 0 {
			used[idx] = true
			out = append(out, f.catalog.Files[idx])
		}
	}
	return out, nil
}

func (f *FileClient) lookup(line QueryLine, used map[int]bool) int {
	matchers := []func(library.RemoteModInfo) bool{
		func(r library.RemoteModInfo) bool {
			return library.IsRealID(line.DownloadID) && r.DownloadID == line.DownloadID
		},
		func(r library.RemoteModInfo) bool {
			return line.FileName != "" && strings.EqualFold(path.Base(r.FileName), path.Base(line.FileName))
		},
		func(r library.RemoteModInfo) bool {
			return library.IsRealID(line.CatalogID) && r.CatalogID == line.CatalogID
		},
	}
	for _, match := range matchers {
		for i, r := range f.catalog.Files {
			if !used[i] && match(r) {
				return i
			}
		}
	}
	return -1
}
