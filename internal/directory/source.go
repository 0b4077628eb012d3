// Package directory resolves which chats a user has registered as relay
// destinations, and what those chats are called. Both the directory snapshot
// and chat titles are cached with a wall-clock TTL.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/edgard/telesco/internal/resilience"
)

// maxDirectoryBytes caps the directory document size.
const maxDirectoryBytes = 4 << 20

// Directory maps a user id to the ordered chat ids that user may relay into.
// Users with no chats are absent.
type Directory map[int64][]int64

// Source fetches the current directory snapshot.
type Source interface {
	Fetch(ctx context.Context) (Directory, error)
}

// StaticSource serves a fixed directory. The zero value is an empty directory.
type StaticSource struct {
	Directory Directory
}

// Fetch returns the static directory.
func (s StaticSource) Fetch(context.Context) (Directory, error) {
	if s.Directory == nil {
		return Directory{}, nil
	}
	return s.Directory, nil
}

// HTTPSource downloads the directory as a JSON document of the form
// {"<userId>": {"chats": [<chatId>, ...]}}.
type HTTPSource struct {
	url    string
	client *http.Client
	retry  resilience.RetryConfig
	log    *slog.Logger
}

// NewHTTPSource creates a Source backed by an HTTP GET of url.
func NewHTTPSource(url string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		retry:  resilience.DefaultRetryConfig(),
		log:    logger.With("component", "directory_source"),
	}
}

// NewSource picks the source for a configured URL. An empty URL means an empty directory.
func NewSource(url string, timeout time.Duration, logger *slog.Logger) Source {
	if url == "" {
		return StaticSource{}
	}
	return NewHTTPSource(url, timeout, logger)
}

// Fetch downloads and parses the directory. Transport errors and 5xx
// responses are retried with backoff.
func (s *HTTPSource) Fetch(ctx context.Context) (Directory, error) {
	var dir Directory
	err := resilience.WithRetry(ctx, func(ctx context.Context) error {
		var err error
		dir, err = s.fetch(ctx)
		return err
	}, s.retry)
	if err != nil {
		return nil, err
	}
	return dir, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (Directory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("failed to create directory request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch directory: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.log.DebugContext(ctx, "Failed to close directory response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("unexpected status code %d fetching directory: %s", resp.StatusCode, string(body))
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDirectoryBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory body: %w", err)
	}

	dir, err := Parse(data)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	s.log.DebugContext(ctx, "Fetched destination directory", "users", len(dir))
	return dir, nil
}

type rawEntry struct {
	Chats []int64 `json:"chats"`
}

// Parse decodes the directory JSON. Entries with non-numeric user keys or an
// empty chat list are dropped.
func Parse(data []byte) (Directory, error) {
	var raw map[string]rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode directory: %w", err)
	}

	dir := make(Directory, len(raw))
	for key, entry := range raw {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || len(entry.Chats) == 0 {
			continue
		}
		dir[userID] = entry.Chats
	}
	return dir, nil
}
