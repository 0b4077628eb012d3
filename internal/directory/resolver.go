package directory

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// TitleLookup asks the platform for a chat's display title.
type TitleLookup interface {
	ChatTitle(ctx context.Context, chatID int64) (string, error)
}

// Destination is one relay target with its display label.
type Destination struct {
	ChatID int64
	Title  string
}

// titleEntry is a cached title lookup; known is false for the "unknown" sentinel.
type titleEntry struct {
	title string
	known bool
}

type snapshotKey struct{}

// DefaultFailureTTL is how long a failed directory fetch is remembered.
const DefaultFailureTTL = time.Minute

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFailureTTL sets how long a failed directory fetch short-circuits later
// lookups to an empty directory. Zero retries on every lookup.
func WithFailureTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl <= 0 {
			r.failures = nil
			return
		}
		r.failures = NewCache[snapshotKey, error](ttl)
	}
}

// Resolver turns a user id into an ordered list of labelled destinations.
type Resolver struct {
	source   Source
	titles   TitleLookup
	snapshot *Cache[snapshotKey, Directory]
	labels   *Cache[int64, titleEntry]
	failures *Cache[snapshotKey, error]
	group    singleflight.Group
	log      *slog.Logger
}

// NewResolver creates a Resolver. directoryTTL bounds the directory snapshot,
// titleTTL bounds each chat title (including cached lookup failures).
func NewResolver(source Source, titles TitleLookup, directoryTTL, titleTTL time.Duration, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		source:   source,
		titles:   titles,
		snapshot: NewCache[snapshotKey, Directory](directoryTTL),
		labels:   NewCache[int64, titleEntry](titleTTL),
		failures: NewCache[snapshotKey, error](DefaultFailureTTL),
		log:      logger.With("component", "directory_resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the destinations registered for userID in directory order.
// Unknown users, and any directory fetch failure, yield an empty result.
// A failure is remembered for the failure TTL so a down directory host does
// not delay every conversion by a full fetch and retry cycle.
func (r *Resolver) Resolve(ctx context.Context, userID int64, now time.Time) []Destination {
	chats := r.directory(ctx, now)[userID]
	if len(chats) == 0 {
		return nil
	}

	out := make([]Destination, 0, len(chats))
	for _, chatID := range chats {
		out = append(out, Destination{ChatID: chatID, Title: r.title(ctx, chatID, now)})
	}
	return out
}

func (r *Resolver) directory(ctx context.Context, now time.Time) Directory {
	if dir, ok := r.snapshot.Get(snapshotKey{}, now); ok {
		return dir
	}
	if r.failures != nil {
		if _, failed := r.failures.Get(snapshotKey{}, now); failed {
			return nil
		}
	}

	v, err, shared := r.group.Do("directory", func() (any, error) {
		dir, err := r.source.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		r.snapshot.Set(snapshotKey{}, dir, now)
		return dir, nil
	})
	if err != nil {
		r.log.WarnContext(ctx, "Failed to refresh destination directory", "error", err)
		if r.failures != nil {
			r.failures.Set(snapshotKey{}, err, now)
		}
		return nil
	}
	r.log.DebugContext(ctx, "Destination directory refreshed", "shared", shared)
	return v.(Directory)
}

func (r *Resolver) title(ctx context.Context, chatID int64, now time.Time) string {
	entry, ok := r.labels.Get(chatID, now)
	if !ok {
		entry = r.lookup(ctx, chatID)
		r.labels.Set(chatID, entry, now)
		r.log.DebugContext(ctx, "Chat title cached", "chat_id", chatID, "known", entry.known, "cached_titles", r.labels.Len())
	}
	if !entry.known {
		return strconv.FormatInt(chatID, 10)
	}
	return entry.title
}

func (r *Resolver) lookup(ctx context.Context, chatID int64) titleEntry {
	title, err := r.titles.ChatTitle(ctx, chatID)
	if err != nil {
		r.log.DebugContext(ctx, "Chat title lookup failed, caching unknown", "chat_id", chatID, "error", err)
		return titleEntry{}
	}
	if title == "" {
		return titleEntry{}
	}
	return titleEntry{title: title, known: true}
}
