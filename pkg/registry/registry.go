package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/session"
)

const (
	// UserIDMaxRetries represents the maximum number of retries when generating a unique ID
	UserIDMaxRetries = 1024
	// EventBufferSize is the default capacity of the events channel
	EventBufferSize = 256
)

var (
	// ErrNotFound is returned when no connected user has the given id.
	ErrNotFound = errors.New("user not found")
)

type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
)

func (e EventType) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event reports a user joining or leaving. User is the record at the time
// of the event.
type Event struct {
	Type EventType
	User session.User
}

type NewRegistryOptions struct {
	// MaxConnections is a capacity hint reported by Full. Zero means unlimited.
	MaxConnections int
	// EventBufferSize is the capacity of the events channel.
	EventBufferSize int
}

// Registry tracks connected users by id.
type Registry struct {
	users          map[int]*session.User
	lock           sync.RWMutex
	nextID         int
	maxConnections int
	events         chan Event
}

func New(opts NewRegistryOptions) *Registry {
	size := opts.EventBufferSize
	if size <= 0 {
		size = EventBufferSize
	}
	return &Registry{
		users:          make(map[int]*session.User),
		nextID:         1,
		maxConnections: opts.MaxConnections,
		events:         make(chan Event, size),
	}
}

// Events returns the channel connection events are published on. Events
// are dropped when nobody keeps up with the channel.
func (r *Registry) Events() <-chan Event {
	return r.events
}

// Connect registers a new user and returns it with its allocated id.
func (r *Registry) Connect(conn any, ipAddress string, username string) (session.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	id, err := r.generateUniqueID(UserIDMaxRetries)
	if err != nil {
		return session.User{}, fmt.Errorf("failed to generate a unique ID: %w", err)
	}
	user := session.NewConnectedUser(id, conn, ipAddress, username)
	r.users[id] = &user
	r.publish(Event{Type: EventConnected, User: user})
	return user, nil
}

// Disconnect removes a user and returns its final record. A user removed
// while in a room is marked as having left the game.
func (r *Registry) Disconnect(id int) (session.User, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	user, ok := r.users[id]
	if !ok {
		return session.User{}, false
	}
	if user.InRoom() {
		user.SetLeftGame(true)
	}
	delete(r.users, id)
	r.publish(Event{Type: EventDisconnected, User: *user})
	return *user, true
}

// Get returns a copy of the user with the given id.
func (r *Registry) Get(id int) (session.User, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return session.User{}, false
	}
	return *user, true
}

// List returns copies of all connected users ordered by id.
func (r *Registry) List() []session.User {
	r.lock.RLock()
	defer r.lock.RUnlock()
	users := make([]session.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Update applies fn to the stored user. If fn fails the stored user is
// left unchanged.
func (r *Registry) Update(id int, fn func(u *session.User) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("failed to update user %d: %w", id, ErrNotFound)
	}
	updated := *user
	if err := fn(&updated); err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	*user = updated
	return nil
}

func (r *Registry) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.users)
}

// Full reports whether the connection capacity hint has been reached.
func (r *Registry) Full() bool {
	if r.maxConnections <= 0 {
		return false
	}
	return r.Count() >= r.maxConnections
}

// generateUniqueID generates a unique user ID with a maximum number of retries
// it reads from the users, so it needs to be locked before calling
func (r *Registry) generateUniqueID(maxRetries int) (int, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := r.nextID
		r.nextID++
		if _, ok := r.users[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

func (r *Registry) publish(event Event) {
	select {
	case r.events <- event:
	default:
		log.Warn("Registry event channel full, dropping %s event for user %d", event.Type, event.User.ID)
	}
}
