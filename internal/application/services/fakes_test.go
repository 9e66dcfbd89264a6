package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domain "users-svc/internal/domain/user"
	"users-svc/internal/infrastructure/mq"
)

var errStoreDown = errors.New("store down")

// memRepo enforces the same uniqueness rules as the postgres indexes.
type memRepo struct {
	mu     sync.Mutex
	users  map[domain.UUID]domain.User
	order  []domain.UUID
	hashes map[domain.UUID]string

	// skipExists makes the existence fast path miss, as in a concurrent registration.
	skipExists bool
	failWith   error
	saves      int
	lookups    int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:  make(map[domain.UUID]domain.User),
		hashes: make(map[domain.UUID]string),
	}
}

func (m *memRepo) Save(_ context.Context, u domain.User, passwordHash *string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
		m.order = append(m.order, u.ID)
	} else {
		stored, ok := m.users[u.ID]
		if !ok {
			return nil, domain.NotFound(domain.MsgUserNotFound)
		}
		// an update leaves provider, active and created_at as stored
		u.Provider, u.Active, u.CreatedAt = stored.Provider, stored.Active, stored.CreatedAt
	}
	for id, other := range m.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return nil, domain.Conflict(domain.MsgEmailInUse)
		}
		if strings.EqualFold(other.Username, u.Username) {
			return nil, domain.Conflict(domain.MsgUsernameInUse)
		}
	}

	m.users[u.ID] = u
	if passwordHash != nil {
		m.hashes[u.ID] = *passwordHash
	}
	m.saves++

	out := u
	return &out, nil
}

func (m *memRepo) Deactivate(_ context.Context, id domain.UUID, at time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.NotFound(domain.MsgUserNotFound)
	}
	u.Active = false
	u.UpdatedAt = at
	m.users[id] = u
	m.saves++

	out := u
	return &out, nil
}

func (m *memRepo) FindByID(_ context.Context, id domain.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memRepo) find(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, id := range m.order {
		if u := m.users[id]; match(u) {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m *memRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m *memRepo) FindAll(_ context.Context) (domain.Users, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	us := make(domain.Users, 0, len(m.order))
	for _, id := range m.order {
		u := m.users[id]
		us = append(us, &u)
	}
	return us, nil
}

func (m *memRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.lookups++
	if m.skipExists {
		return false, nil
	}
	u, err := m.FindByEmail(ctx, email)
	return u != nil, err
}

func (m *memRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	m.lookups++
	if m.skipExists {
		return false, nil
	}
	u, err := m.FindByUsername(ctx, username)
	return u != nil, err
}

func (m *memRepo) Delete(_ context.Context, id domain.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type fakeHasher struct {
	err error
}

func (f fakeHasher) Hash(plain string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "hashed:" + plain, nil
}

type fakeEvents struct {
	ch chan mq.Event
}

func (f *fakeEvents) GetInputChan() chan mq.Event { return f.ch }

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "test", Name: "general_counters"},
		[]string{"result"},
	)
}

type fixture struct {
	repo    *memRepo
	events  *fakeEvents
	counter *prometheus.CounterVec
	svc     *UserService
	query   *UserQueryService
	clock   time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:    newMemRepo(),
		events:  &fakeEvents{ch: make(chan mq.Event, 16)},
		counter: newCounter(),
		clock:   time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewUserService(f.repo, fakeHasher{}, f.events, f.counter, zap.NewNop()).(*UserService)
	f.svc.now = func() time.Time { return f.clock }
	f.query = NewUserQueryService(f.repo, zap.NewNop()).(*UserQueryService)
	return f
}

func (f *fixture) tick() { f.clock = f.clock.Add(time.Minute) }

func (f *fixture) drainEvents() []mq.Event {
	var out []mq.Event
	for {
		select {
		case e := <-f.events.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func localInput() domain.Registration {
	return domain.Registration{
		Name:     "Ana",
		Lastname: "Diaz",
		Username: "Ana01",
		Email:    "Ana@X.com",
		Password: "secret",
		Provider: "LOCAL",
	}
}

func googleInput() domain.Registration {
	return domain.Registration{
		Name:     "Luis",
		Lastname: "Perez",
		Username: "LuisP",
		Email:    "Luis@Gmail.com",
		Provider: "google",
	}
}
