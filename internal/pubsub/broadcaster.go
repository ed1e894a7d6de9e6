// Package pubsub содержит брокер событий для внутрипроцессных подписчиков.
package pubsub

import "sync"

// Broadcaster рассылает значения всем подписчикам, присутствующим в момент публикации.
// У каждого подписчика своя неограниченная очередь, поэтому медленный
// подписчик не блокирует публикацию и не теряет события.
// С replayLast новый подписчик сразу получает последнее опубликованное значение.
type Broadcaster[T any] struct {
	subs       map[int]*subscriber[T]
	last       T
	nextID     int
	mu         sync.Mutex
	replayLast bool
	hasLast    bool
	closed     bool
}

type subscriber[T any] struct {
	out     chan T
	notify  chan struct{}
	done    chan struct{}
	queue   []T
	mu      sync.Mutex
	closing bool
}

// New создает брокер. С replayLast новый подписчик получает последнее значение.
func New[T any](replayLast bool) *Broadcaster[T] {
	return &Broadcaster[T]{
		subs:       make(map[int]*subscriber[T]),
		replayLast: replayLast,
	}
}

// Subscribe возвращает канал событий и функцию отписки.
// После Close брокера канал закрывается, когда очередь подписчика опустеет.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	s := &subscriber[T]{
		out:    make(chan T),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.replayLast && b.hasLast {
		s.queue = append(s.queue, b.last)
	}
	if b.closed {
		s.closing = true
	}
	id := b.nextID
	b.nextID++
	if !b.closed {
		b.subs[id] = s
	}
	b.mu.Unlock()

	go s.pump()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.done)
		})
	}
	return s.out, unsubscribe
}

// Publish ставит значение в очередь каждому текущему подписчику
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.last = v
	b.hasLast = true
	for _, s := range b.subs {
		s.enqueue(v)
	}
}

// Last возвращает последнее опубликованное значение
func (b *Broadcaster[T]) Last() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// Close завершает брокер: подписчики дочитывают очередь, затем их каналы закрываются
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		s.finish()
		delete(b.subs, id)
	}
}

func (s *subscriber[T]) enqueue(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) finish() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			}
		}
		v := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}
