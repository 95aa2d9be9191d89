// Package pgstore implements the Gateway on Postgres: one JSONB documents
// table, jsonb merge for partial updates, and LISTEN/NOTIFY driven push
// subscriptions.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/surajmeruva0786/restosaas2/internal/db"
	"github.com/surajmeruva0786/restosaas2/internal/store"
)

const (
	settingsCollection = "settings"
	notifyChannel      = "docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	id         text NOT NULL,
	tenant_id  text NOT NULL DEFAULT '',
	doc        jsonb NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_tenant_idx ON documents (collection, tenant_id);
CREATE UNIQUE INDEX IF NOT EXISTS documents_restaurant_slug_idx
	ON documents ((doc->>'slug')) WHERE collection = 'restaurants';
`

type subscriber struct {
	query    store.Query
	queue    *store.Queue[[]store.Document]
	settings bool
	setQueue *store.Queue[store.Document]
}

type Store struct {
	db     *db.Postgres
	log    *slog.Logger
	cancel context.CancelFunc

	mu      sync.Mutex
	subs    map[int]*subscriber
	nextSub int
}

// New creates the schema and starts the notification listener.
func New(ctx context.Context, pg *db.Postgres, logger *slog.Logger) (*Store, error) {
	if _, err := pg.Pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create documents schema: %w", err)
	}
	listenCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:     pg,
		log:    logger,
		cancel: cancel,
		subs:   make(map[int]*subscriber),
	}
	go s.listen(listenCtx)
	return s, nil
}

// Close stops the notification listener. The pool is owned by the caller.
func (s *Store) Close() {
	s.cancel()
}

func (s *Store) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func (s *Store) Add(ctx context.Context, collection string, doc store.Document) (string, error) {
	id := uuid.NewString()
	stored := make(store.Document, len(doc))
	for k, v := range doc {
		if k == "id" {
			continue
		}
		stored[k] = v
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	tenant := tenantOf(stored)
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO documents (collection, id, tenant_id, doc)
		VALUES ($1, $2, $3, $4)
	`, collection, id, tenant, raw)
	if err != nil {
		return "", fmt.Errorf("add %s: %w", collection, err)
	}
	s.notify(ctx, collection, tenant)
	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Document) error {
	delete(patch, "id")
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	var tenant string
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE documents SET doc = doc || $3
		WHERE collection = $1 AND id = $2
		RETURNING tenant_id
	`, collection, id, raw).Scan(&tenant)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update %s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection, tenant)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	var tenant string
	err := s.db.Pool.QueryRow(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
		RETURNING tenant_id
	`, collection, id).Scan(&tenant)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection, tenant)
	return nil
}

func (s *Store) GetAll(ctx context.Context, q store.Query) ([]store.Document, error) {
	sql := `SELECT id, doc FROM documents WHERE collection = $1`
	args := []any{q.Collection}
	if q.TenantID != "" {
		sql += ` AND tenant_id = $2`
		args = append(args, q.TenantID)
	}
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]store.Document, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc store.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		doc["id"] = id
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	store.SortDocs(docs, q)
	return docs, nil
}

func (s *Store) Subscribe(q store.Query, fn store.Snapshot) store.Unsubscribe {
	s.mu.Lock()
	sub := &subscriber{query: q, queue: store.NewQueue(fn)}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	s.refresh(sub)
	return func() { s.unsubscribe(id) }
}

func (s *Store) GetSettings(ctx context.Context, tenantID string) (store.Document, error) {
	var raw []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT doc FROM documents WHERE collection = $1 AND id = $2
	`, settingsCollection, tenantID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settings for %s: %w", tenantID, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) SetSettings(ctx context.Context, tenantID string, patch store.Document) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO documents (collection, id, tenant_id, doc)
		VALUES ($1, $2, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET doc = documents.doc || EXCLUDED.doc
	`, settingsCollection, tenantID, raw)
	if err != nil {
		return fmt.Errorf("set settings for %s: %w", tenantID, err)
	}
	s.notify(ctx, settingsCollection, tenantID)
	return nil
}

func (s *Store) SubscribeSettings(tenantID string, fn store.SettingsSnapshot) store.Unsubscribe {
	s.mu.Lock()
	sub := &subscriber{
		query:    store.Query{Collection: settingsCollection, TenantID: tenantID},
		settings: true,
		setQueue: store.NewQueue(fn),
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	s.refresh(sub)
	return func() { s.unsubscribe(id) }
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	sub, ok := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	if sub.settings {
		sub.setQueue.Stop()
	} else {
		sub.queue.Stop()
	}
}

func (s *Store) notify(ctx context.Context, collection, tenantID string) {
	if _, err := s.db.Pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection+"|"+tenantID); err != nil {
		s.log.Error("notify failed", "collection", collection, "err", err)
	}
}

// listen holds one dedicated connection on the notify channel and re-reads
// the affected collection for every matching subscriber.
func (s *Store) listen(ctx context.Context) {
	for {
		if err := s.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("store listener disconnected", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Store) listenOnce(ctx context.Context) error {
	conn, err := s.db.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		return err
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		collection, tenant := splitPayload(n.Payload)
		s.dispatch(collection, tenant)
	}
}

func (s *Store) dispatch(collection, tenantID string) {
	s.mu.Lock()
	matched := make([]*subscriber, 0)
	for _, sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		if sub.query.TenantID != "" && sub.query.TenantID != tenantID {
			continue
		}
		matched = append(matched, sub)
	}
	s.mu.Unlock()
	for _, sub := range matched {
		s.refresh(sub)
	}
}

func (s *Store) refresh(sub *subscriber) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sub.settings {
		doc, err := s.GetSettings(ctx, sub.query.TenantID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.Error("settings refresh failed", "tenant", sub.query.TenantID, "err", err)
			return
		}
		sub.setQueue.Push(doc)
		return
	}
	docs, err := s.GetAll(ctx, sub.query)
	if err != nil {
		s.log.Error("snapshot refresh failed", "collection", sub.query.Collection, "err", err)
		return
	}
	sub.queue.Push(docs)
}

func tenantOf(doc store.Document) string {
	t, _ := doc[store.TenantField].(string)
	return t
}

func splitPayload(payload string) (collection, tenant string) {
	collection, tenant, _ = strings.Cut(payload, "|")
	return collection, tenant
}
