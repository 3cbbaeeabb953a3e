package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrDuplicate = errors.New("repo: duplicate login")

// Memory implements Repository and MaterialRepository in process. It backs
// the server when no DATABASE_URL is configured, and tests.
type Memory struct {
	mu        sync.RWMutex
	users     []memUser
	materials map[string]Material
}

type memUser struct {
	User
	hash string
}

func NewMemory() *Memory {
	return &Memory{materials: make(map[string]Material)}
}

func (m *Memory) CreateUser(_ context.Context, login, email, password string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Login == login {
			return 0, fmt.Errorf("%w: %q", ErrDuplicate, login)
		}
	}
	id := len(m.users) + 1
	m.users = append(m.users, memUser{User: User{ID: id, Login: login, Email: email}, hash: password})
	return id, nil
}

func (m *Memory) GetBylogin(_ context.Context, login string) (int, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Login == login {
			return u.ID, u.hash, nil
		}
	}
	return 0, "", nil
}

func (m *Memory) GetUser(_ context.Context, id int) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || id > len(m.users) {
		return User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return m.users[id-1].User, nil
}

func (m *Memory) ListMaterials(context.Context) ([]Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Material, 0, len(m.materials))
	for _, mat := range m.materials {
		out = append(out, mat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetMaterial(_ context.Context, name string) (Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mat, ok := m.materials[name]
	if !ok {
		return Material{}, fmt.Errorf("%w: material %q", ErrNotFound, name)
	}
	return mat, nil
}

func (m *Memory) UpsertMaterial(_ context.Context, mat Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materials[mat.Name] = mat
	return nil
}
