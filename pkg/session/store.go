package session

import (
	"sync"
)

const subscriberBuffer = 16

// Notice transient user notification
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Event either a new state snapshot or a notice
type Event struct {
	State  *State
	Notice *Notice
}

// Store serialises actions on one session state and fans out events
type Store struct {
	lock   sync.RWMutex
	state  State
	subs   map[int]chan Event
	nextId int
}

func NewStore(init State) *Store {
	return &Store{
		state: init,
		subs:  make(map[int]chan Event),
	}
}

// State current snapshot
func (s *Store) State() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// Dispatch apply action, publish the new snapshot when accepted
func (s *Store) Dispatch(a Action) (State, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	next, err := Reduce(s.state, a)
	if err != nil {
		return s.state, err
	}
	s.state = next
	snapshot := next
	s.publish(Event{State: &snapshot})
	return next, nil
}

// Notify publish a notice to subscribers
func (s *Store) Notify(level, message string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.publish(Event{Notice: &Notice{Level: level, Message: message}})
}

// Subscribe event feed, call cancel to release it
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	id := s.nextId
	s.nextId++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.lock.Lock()
			defer s.lock.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close release all subscribers
func (s *Store) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id, c := range s.subs {
		delete(s.subs, id)
		close(c)
	}
}

// publish caller holds lock, slow subscribers lose their oldest event
func (s *Store) publish(e Event) {
	for _, c := range s.subs {
		select {
		case c <- e:
			continue
		default:
		}
		select {
		case <-c:
		default:
		}
		select {
		case c <- e:
		default:
		}
	}
}
