package catalog

import (
	"context"
	"time"

	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
)

const DefaultRetryDelay = time.Second

// Retrying wraps GetFileListInfo with a bounded number of retries at a fixed
// delay. Only "no answer" results are retried; errors return immediately.
type Retrying struct {
	Client  Client
	Retries int
	Delay   time.Duration
}

// NewRetrying returns a retrying wrapper. A negative retry count is treated as
// zero and a non-positive delay falls back to DefaultRetryDelay.
func NewRetrying(c Client, retries int, delay time.Duration) *Retrying {
	if retries < 0 {
		retries = 0
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &Retrying{Client: c, Retries: retries, Delay: delay}
}

// FetchFileListInfo makes up to Retries+1 attempts and stops at the first
// non-nil answer. A nil slice with nil error means no attempt got an answer.
func (r *Retrying) FetchFileListInfo(ctx context.Context, lines []QueryLine) ([]library.RemoteModInfo, error) {
	for attempt := 0; attempt <= r.Retries; attempt++ {
		if attempt > 0 {
			logging.Debugf("Verbose: catalog returned no info, retry %d/%d after %s\n", attempt, r.Retries, r.Delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.Delay):
			}
		}

		infos, err := r.Client.GetFileListInfo(ctx, lines)
		if err != nil {
			return nil, err
		}
		if infos != nil {
			return infos, nil
		}
	}
	return nil, nil
}
