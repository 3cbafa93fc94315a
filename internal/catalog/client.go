// Package catalog talks to the remote mod catalog: which mods were updated
// recently and what the catalog knows about a batch of local files.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/caedis/mod-update-checker/internal/library"
)

// Client is the remote catalog as seen by the reconciliation engine.
//
// GetFileListInfo returns a nil slice (and nil error) when the catalog had no
// answer this time and the call may be retried. An empty non-nil slice means
// the catalog answered with no records.
type Client interface {
	GetUpdated(ctx context.Context, period string) ([]string, error)
	GetFileListInfo(ctx context.Context, lines []QueryLine) ([]library.RemoteModInfo, error)
}

// QueryLine is one entry of a batched file info query.
//
// A legacy line carries only the catalog and download ids and renders as
// "catalogId|downloadId". Other lines render as
// "name|catalogId|downloadId|fileName" with "0" standing in for unknown ids.
type QueryLine struct {
	Name       string
	CatalogID  string
	DownloadID string
	FileName   string
	Legacy     bool
}

func (q QueryLine) String() string {
	if q.Legacy {
		return q.CatalogID + "|" + q.DownloadID
	}
	return strings.Join([]string{
		q.Name,
		orUnknown(q.CatalogID),
		orUnknown(q.DownloadID),
		q.FileName,
	}, "|")
}

// ParseQueryLine reverses QueryLine.String.
func ParseQueryLine(s string) (QueryLine, error) {
	parts := strings.Split(s, "|")
	switch len(parts) {
	case 2:
		return QueryLine{CatalogID: parts[0], DownloadID: parts[1], Legacy: true}, nil
	case 4:
		return QueryLine{
			Name:       parts[0],
			CatalogID:  parts[1],
			DownloadID: parts[2],
			FileName:   parts[3],
		}, nil
	default:
		return QueryLine{}, fmt.Errorf("invalid query line %q: want 2 or 4 fields, got %d", s, len(parts))
	}
}

// Strings renders lines in order.
func Strings(lines []QueryLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

func orUnknown(id string) string {
	if strings.TrimSpace(id) == "" {
		return library.UnknownID
	}
	return id
}
