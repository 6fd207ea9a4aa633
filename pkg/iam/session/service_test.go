package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/Abraxas-365/keystone/pkg/iam/hashing"
	"github.com/Abraxas-365/keystone/pkg/iam/session"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/Abraxas-365/keystone/pkg/ptrx"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*session.Session)}
}

func (s *memoryStore) Save(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sess
	s.sessions[sess.ID] = &clone
	return nil
}

func (s *memoryStore) Find(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		clone := *sess
		return &clone, nil
	}
	return nil, session.ErrRegistry.New(session.CodeSessionNotFound)
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type singleUserRepo struct {
	u *user.User
}

func (r singleUserRepo) Create(context.Context, *user.User) error { return nil }
func (r singleUserRepo) FindByID(_ context.Context, id int64) (*user.User, error) {
	if r.u != nil && r.u.ID == id {
		return r.u, nil
	}
	return nil, user.ErrUserNotFound()
}
func (r singleUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	if r.u != nil && r.u.Email == email {
		return r.u, nil
	}
	return nil, user.ErrUserNotFound()
}
func (r singleUserRepo) FindByGoogleID(context.Context, string) (*user.User, error) {
	return nil, user.ErrUserNotFound()
}
func (r singleUserRepo) Update(context.Context, *user.User) error       { return nil }
func (r singleUserRepo) EnableTFA(context.Context, int64, string) error { return nil }

func newTestService(t *testing.T) (*session.Service, *memoryStore) {
	t.Helper()

	hasher := hashing.NewBcryptHasher(4)
	digest, err := hasher.Hash(context.Background(), "hunter22")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	u := user.New("ada@example.com")
	u.ID = 1
	u.PasswordHash = ptrx.Ptr(digest)

	store := newMemoryStore()
	return session.NewService(store, singleUserRepo{u: u}, hasher), store
}

func TestSessionSignInAndResolve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignIn(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("empty session id")
	}

	principal, err := svc.Resolve(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if principal.Sub != 1 || principal.Email != "ada@example.com" {
		t.Errorf("principal = %+v", principal)
	}
}

func TestSessionSignInBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, "ada@example.com", "wrong"); !errx.IsCode(err, auth.CodeInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "hunter22"); !errx.IsCode(err, auth.CodeInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
}

func TestSessionSignOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignIn(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := svc.SignOut(ctx, sess.ID); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	if _, err := svc.Resolve(ctx, sess.ID); !errx.IsCode(err, session.CodeSessionNotFound) {
		t.Fatalf("resolve after sign-out: got %v", err)
	}
}
