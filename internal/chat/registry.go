package chat

import "strings"

// User is a connected chat participant. ID and Name never change after
// Join; the typing flag is guarded by the owning Hub's lock.
type User struct {
	ID     string
	Name   string
	typing bool
	queue  *Queue
}

// Queue returns the user's outbound event queue.
func (u *User) Queue() *Queue {
	return u.queue
}

// registry maps user ids to users. Callers hold the Hub lock.
type registry struct {
	users map[string]*User
	newID func() string
}

func newRegistry(newID func() string) *registry {
	return &registry{
		users: make(map[string]*User),
		newID: newID,
	}
}

func (r *registry) join(name string) *User {
	id := r.newID()
	for _, taken := r.users[id]; taken; _, taken = r.users[id] {
		id = r.newID()
	}

	u := &User{ID: id, Name: name, queue: NewQueue()}
	r.users[id] = u
	return u
}

func (r *registry) lookup(id string) (*User, bool) {
	u, ok := r.users[id]
	return u, ok
}

// findByName matches display names case-insensitively. When several users
// share a name, which one is returned is unspecified.
func (r *registry) findByName(name string) (*User, bool) {
	for _, u := range r.users {
		if strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return nil, false
}

func (r *registry) setTyping(id string, typing bool) bool {
	u, ok := r.users[id]
	if !ok {
		return false
	}
	u.typing = typing
	return true
}

func (r *registry) remove(id string) (*User, bool) {
	u, ok := r.users[id]
	if ok {
		delete(r.users, id)
	}
	return u, ok
}

func (r *registry) snapshot() []Presence {
	out := make([]Presence, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, Presence{UserID: u.ID, Username: u.Name})
	}
	return out
}

func (r *registry) typingNames() []string {
	names := make([]string, 0)
	for _, u := range r.users {
		if u.typing {
			names = append(names, u.Name)
		}
	}
	return names
}

func (r *registry) each(fn func(*User)) {
	for _, u := range r.users {
		fn(u)
	}
}

func (r *registry) len() int {
	return len(r.users)
}
