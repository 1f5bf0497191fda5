package orchestrator

import "sync"

// subscriber is an unbounded, ordered mailbox in front of a channel. Pushes
// never block the orchestrator; a goroutine forwards states to out.
type subscriber struct {
	mu     sync.Mutex
	queue  []State
	closed bool

	wake chan struct{}
	done chan struct{}
	out  chan State
}

func newSubscriber() *subscriber {
	s := &subscriber{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan State),
	}
	go s.loop()
	return s
}

func (s *subscriber) push(st State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, st)
	s.mu.Unlock()
	s.signal()
}

// close stops accepting states; queued ones are still delivered
func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

// abort drops queued states and closes out as soon as possible
func (s *subscriber) abort() {
	s.close()
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) loop() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-s.wake:
			case <-s.done:
				return
			}
			continue
		}
		next := s.queue[0]
		s.queue[0] = State{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
