// Package memstore is an in-process Gateway backend with the same push
// semantics as the Postgres backend. It backs tests and local development.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/surajmeruva0786/restosaas2/internal/store"
)

const settingsCollection = "settings"

type subscriber struct {
	query    store.Query
	queue    *store.Queue[[]store.Document]
	settings bool // settings subscribers receive a single document
	setQueue *store.Queue[store.Document]
}

type Store struct {
	mu      sync.Mutex
	cols    map[string]map[string]store.Document // collection -> id -> doc
	subs    map[int]*subscriber
	nextSub int
}

func New() *Store {
	return &Store{
		cols: make(map[string]map[string]store.Document),
		subs: make(map[int]*subscriber),
	}
}

// Health satisfies the readiness probe; an in-process store is always up.
func (s *Store) Health(ctx context.Context) error { return nil }

func (s *Store) Add(ctx context.Context, collection string, doc store.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	stored := maps.Clone(doc)
	delete(stored, "id")
	s.collection(collection)[id] = stored
	s.publishLocked(collection, tenantOf(stored))
	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collection(collection)[id]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", collection, id, store.ErrNotFound)
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	s.publishLocked(collection, tenantOf(doc))
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collection(collection)[id]
	if !ok {
		return nil
	}
	delete(s.collection(collection), id)
	s.publishLocked(collection, tenantOf(doc))
	return nil
}

func (s *Store) GetAll(ctx context.Context, q store.Query) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(q), nil
}

func (s *Store) Subscribe(q store.Query, fn store.Snapshot) store.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscriber{query: q, queue: store.NewQueue(fn)}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	sub.queue.Push(s.snapshotLocked(q))
	return func() { s.unsubscribe(id) }
}

func (s *Store) GetSettings(ctx context.Context, tenantID string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collection(settingsCollection)[tenantID]
	if !ok {
		return nil, fmt.Errorf("settings for %s: %w", tenantID, store.ErrNotFound)
	}
	return maps.Clone(doc), nil
}

func (s *Store) SetSettings(ctx context.Context, tenantID string, patch store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collection(settingsCollection)
	doc, ok := col[tenantID]
	if !ok {
		doc = make(store.Document)
		col[tenantID] = doc
	}
	for k, v := range patch {
		doc[k] = v
	}
	s.publishSettingsLocked(tenantID)
	return nil
}

func (s *Store) SubscribeSettings(tenantID string, fn store.SettingsSnapshot) store.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscriber{
		query:    store.Query{Collection: settingsCollection, TenantID: tenantID},
		settings: true,
		setQueue: store.NewQueue(fn),
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	sub.setQueue.Push(s.settingsDocLocked(tenantID))
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

func (s *Store) collection(name string) map[string]store.Document {
	col, ok := s.cols[name]
	if !ok {
		col = make(map[string]store.Document)
		s.cols[name] = col
	}
	return col
}

func (s *Store) snapshotLocked(q store.Query) []store.Document {
	docs := make([]store.Document, 0)
	for id, doc := range s.collection(q.Collection) {
		if q.TenantID != "" && tenantOf(doc) != q.TenantID {
			continue
		}
		out := maps.Clone(doc)
		out["id"] = id
		docs = append(docs, out)
	}
	store.SortDocs(docs, q)
	return docs
}

func (s *Store) settingsDocLocked(tenantID string) store.Document {
	doc, ok := s.collection(settingsCollection)[tenantID]
	if !ok {
		return nil
	}
	return maps.Clone(doc)
}

func (s *Store) publishLocked(collection, tenantID string) {
	for _, sub := range s.subs {
		if sub.settings || sub.query.Collection != collection {
			continue
		}
		if sub.query.TenantID != "" && tenantID != sub.query.TenantID {
			continue
		}
		sub.queue.Push(s.snapshotLocked(sub.query))
	}
}

func (s *Store) publishSettingsLocked(tenantID string) {
	for _, sub := range s.subs {
		if !sub.settings || sub.query.TenantID != tenantID {
			continue
		}
		sub.setQueue.Push(s.settingsDocLocked(tenantID))
	}
}

func tenantOf(doc store.Document) string {
	t, _ := doc[store.TenantField].(string)
	return t
}
