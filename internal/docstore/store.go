// Package docstore implements the real-time document store client:
// collections of JSON documents held in Redis, with ordered full-snapshot
// listeners driven by pub/sub change notifications. Every change to a
// collection re-emits the complete ordered document set, never a diff.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"ember/internal/models"
	"ember/internal/observability"
	"ember/internal/stream"

	"github.com/redis/go-redis/v9"
)

// Order is the snapshot ordering applied to a listener's emissions.
type Order int

const (
	// Desc orders newest-first on the order field.
	Desc Order = iota
	// Asc orders oldest-first on the order field.
	Asc
)

// Store is the document store client. One Store is shared process-wide.
type Store struct {
	rdb *redis.Client
	log *observability.Logger
}

// Open connects to Redis at addr (host:port or redis:// URL) and verifies
// the connection.
func Open(ctx context.Context, addr string) (*Store, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, models.NewTransportError("document store unreachable", err)
	}

	return New(rdb), nil
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, log: observability.Component("docstore")}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func collectionKey(col string) string { return "docs:" + col }

func changeChannel(col string) string { return "docs:changed:" + col }

// Set writes one document into a collection and notifies listeners. The
// write is last-write-wins on id.
func (s *Store) Set(ctx context.Context, col, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		observability.WritesTotal.WithLabelValues(col, "error").Inc()
		return models.NewInternalError(err)
	}
	if err := s.rdb.HSet(ctx, collectionKey(col), id, payload).Err(); err != nil {
		observability.WritesTotal.WithLabelValues(col, "error").Inc()
		return models.NewTransportError("document write failed", err)
	}
	observability.WritesTotal.WithLabelValues(col, "ok").Inc()

	// Best-effort change notification; the document is already durable.
	if err := s.rdb.Publish(ctx, changeChannel(col), id).Err(); err != nil {
		s.log.Warn("change notification failed", "collection", col, "error", err)
	}
	return nil
}

// Get reads one document by id.
func (s *Store) Get(ctx context.Context, col, id string) (Document, error) {
	raw, err := s.rdb.HGet(ctx, collectionKey(col), id).Result()
	if errors.Is(err, redis.Nil) {
		return Document{}, models.NewNotFoundError("document", id)
	}
	if err != nil {
		return Document{}, models.NewTransportError("document read failed", err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Document{}, models.NewInternalError(err)
	}
	return Document{ID: id, fields: fields}, nil
}

// Delete removes one document and notifies listeners. Deleting a missing
// document is not an error.
func (s *Store) Delete(ctx context.Context, col, id string) error {
	if err := s.rdb.HDel(ctx, collectionKey(col), id).Err(); err != nil {
		return models.NewTransportError("document delete failed", err)
	}
	if err := s.rdb.Publish(ctx, changeChannel(col), id).Err(); err != nil {
		s.log.Warn("change notification failed", "collection", col, "error", err)
	}
	return nil
}

// Snapshot reads the complete collection ordered by the given int64 field.
// Individual malformed documents are dropped, never surfaced.
func (s *Store) Snapshot(ctx context.Context, col, orderBy string, ord Order) ([]Document, error) {
	raw, err := s.rdb.HGetAll(ctx, collectionKey(col)).Result()
	if err != nil {
		return nil, models.NewTransportError("snapshot read failed", err)
	}

	docs := make([]Document, 0, len(raw))
	for id, payload := range raw {
		var fields map[string]any
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			observability.DocsDropped.WithLabelValues(col).Inc()
			s.log.Warn("dropping malformed document", "collection", col, "id", id)
			continue
		}
		docs = append(docs, Document{ID: id, fields: fields})
	}

	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i].Int64(orderBy), docs[j].Int64(orderBy)
		if a == b {
			return docs[i].ID < docs[j].ID
		}
		if ord == Asc {
			return a < b
		}
		return a > b
	})
	return docs, nil
}

// Listen attaches a change listener to a collection and returns a live
// stream of ordered full snapshots. The first emission is the current
// snapshot; one follows for every subsequent change notification. A
// transport failure terminates the stream without retrying; it stops
// cleanly when ctx ends.
func (s *Store) Listen(ctx context.Context, col, orderBy string, ord Order) *stream.Source[[]Document] {
	src := stream.NewSource[[]Document]()
	slog := observability.NewStreamLogger(col)

	go func() {
		sub := s.rdb.Subscribe(ctx, changeChannel(col))
		defer func() { _ = sub.Close() }()

		// Confirm the subscription before the initial snapshot so no change
		// between the two is missed.
		if _, err := sub.Receive(ctx); err != nil {
			if ctx.Err() == nil {
				slog.Failed(err)
				src.Fail(models.NewTransportError("listener attach failed", err))
			}
			return
		}
		slog.Started()

		emit := func() bool {
			docs, err := s.Snapshot(ctx, col, orderBy, ord)
			if err != nil {
				if ctx.Err() == nil {
					slog.Failed(err)
					src.Fail(err)
				}
				return false
			}
			observability.StreamEmissions.WithLabelValues(col).Inc()
			slog.Emitted(len(docs))
			src.Emit(docs)
			return true
		}

		if !emit() {
			return
		}

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				slog.Stopped()
				return
			case _, ok := <-ch:
				if !ok {
					if ctx.Err() == nil {
						slog.Failed(errors.New("change feed closed"))
						src.Fail(models.NewTransportError("change feed closed", nil))
					} else {
						slog.Stopped()
					}
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return src
}
