package replication

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateReplication репликация с таким идентификатором уже зарегистрирована
	ErrDuplicateReplication = errors.New("replication already registered")
	// ErrRegistryClosed реестр закрыт
	ErrRegistryClosed = errors.New("replication registry closed")
)

// Registry реестр запущенных репликаций по стабильному строковому ключу.
// Close останавливает все зарегистрированные репликации.
type Registry struct {
	items  map[string]*Replication
	mu     sync.Mutex
	closed bool
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Replication)}
}

// Register добавляет репликацию под ее Identifier
func (r *Registry) Register(rep *Replication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	id := rep.Identifier()
	if _, ok := r.items[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateReplication, id)
	}
	r.items[id] = rep
	return nil
}

// Get возвращает репликацию по идентификатору
func (r *Registry) Get(id string) (*Replication, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.items[id]
	return rep, ok
}

// IDs возвращает отсортированный список идентификаторов
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove останавливает репликацию и удаляет ее из реестра
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	rep, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()

	if ok {
		rep.Cancel()
	}
	return ok
}

// Close останавливает все репликации. Повторный вызов ничего не делает.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	items := r.items
	r.items = make(map[string]*Replication)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, rep := range items {
		wg.Add(1)
		go func(rep *Replication) {
			defer wg.Done()
			rep.Cancel()
		}(rep)
	}
	wg.Wait()
}
