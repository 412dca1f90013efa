package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"nexconnect-server/internal/model"
)

type Memory struct {
	mu sync.RWMutex

	usersByID map[string]model.User
	idByEmail map[string]string
	idByPhone map[string]string
	idByName  map[string]string
	friends   map[string]map[string]struct{}

	now func() time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithNow(time.Now)
}

func NewMemoryWithNow(now func() time.Time) *Memory {
	return &Memory{
		usersByID: make(map[string]model.User),
		idByEmail: make(map[string]string),
		idByPhone: make(map[string]string),
		idByName:  make(map[string]string),
		friends:   make(map[string]map[string]struct{}),
		now:       now,
	}
}

func (m *Memory) Register(_ context.Context, displayName, email, phone, password string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.idByEmail[email]; taken {
		return model.User{}, ErrDuplicateUser
	}
	if _, taken := m.idByName[displayName]; taken {
		return model.User{}, ErrDuplicateUser
	}
	if phone != "" {
		if _, taken := m.idByPhone[phone]; taken {
			return model.User{}, ErrDuplicateUser
		}
	}

	user := model.User{
		ID:           uuid.NewString(),
		DisplayName:  displayName,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: string(hash),
		CreatedAt:    m.now().UnixMilli(),
	}
	m.usersByID[user.ID] = user
	m.idByEmail[email] = user.ID
	m.idByName[displayName] = user.ID
	if phone != "" {
		m.idByPhone[phone] = user.ID
	}
	return user, nil
}

func (m *Memory) Authenticate(_ context.Context, email, password string) (model.User, error) {
	m.mu.RLock()
	id, ok := m.idByEmail[email]
	var user model.User
	if ok {
		user = m.usersByID[id]
	}
	m.mu.RUnlock()

	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (m *Memory) FindUserByID(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.usersByID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) FindUserByContact(_ context.Context, q ContactQuery) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var id string
	var ok bool
	switch {
	case q.Email != "":
		id, ok = m.idByEmail[q.Email]
	case q.PhoneNumber != "":
		id, ok = m.idByPhone[q.PhoneNumber]
	case q.DisplayName != "":
		id, ok = m.idByName[q.DisplayName]
	default:
		return model.User{}, ErrNoContact
	}
	if !ok {
		return model.User{}, ErrNotFound
	}
	return m.usersByID[id], nil
}

func (m *Memory) MarkVerified(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.idByEmail[email]
	if !ok {
		return ErrNotFound
	}
	user := m.usersByID[id]
	user.Verified = true
	m.usersByID[id] = user
	return nil
}

func (m *Memory) AddFriend(_ context.Context, userID, friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.usersByID[userID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.usersByID[friendID]; !ok {
		return ErrNotFound
	}

	if m.friends[userID] == nil {
		m.friends[userID] = make(map[string]struct{})
	}
	if m.friends[friendID] == nil {
		m.friends[friendID] = make(map[string]struct{})
	}
	m.friends[userID][friendID] = struct{}{}
	m.friends[friendID][userID] = struct{}{}
	return nil
}

func (m *Memory) AreFriends(_ context.Context, userID, friendID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.friends[userID]
	if set == nil {
		return false, nil
	}
	_, ok := set[friendID]
	return ok, nil
}

func (m *Memory) ListFriends(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.friends[userID]
	result := make([]string, 0, len(set))
	for id := range set {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}
