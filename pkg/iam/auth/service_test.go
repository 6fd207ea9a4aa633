package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/Abraxas-365/keystone/pkg/iam/hashing"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
)

// ============================================================================
// Fakes
// ============================================================================

type memoryUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*user.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*user.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateUser()
		}
	}
	r.nextID++
	u.ID = r.nextID
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, user.ErrUserNotFound()
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *memoryUserRepo) FindByGoogleID(_ context.Context, googleID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *memoryUserRepo) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return user.ErrUserNotFound()
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *memoryUserRepo) EnableTFA(_ context.Context, id int64, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.TFASecret = &secret
	u.IsTFAEnabled = true
	return nil
}

type memoryRefreshStore struct {
	mu  sync.Mutex
	ids map[int64]string
}

func newMemoryRefreshStore() *memoryRefreshStore {
	return &memoryRefreshStore{ids: make(map[int64]string)}
}

func (s *memoryRefreshStore) Insert(_ context.Context, userID int64, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[userID] = tokenID
	return nil
}

func (s *memoryRefreshStore) Validate(_ context.Context, userID int64, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.ids[userID]
	if !ok {
		return iam.ErrUnauthorized()
	}
	if stored != tokenID {
		return auth.ErrRefreshReuseDetected()
	}
	return nil
}

func (s *memoryRefreshStore) Invalidate(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, userID)
	return nil
}

type nopAudit struct{}

func (nopAudit) LogSignUp(context.Context, int64, string)                  {}
func (nopAudit) LogSignIn(context.Context, string, bool)                   {}
func (nopAudit) LogTokenRefresh(context.Context, int64)                    {}
func (nopAudit) LogReuseDetected(context.Context, int64, string)           {}
func (nopAudit) LogFederatedSignIn(context.Context, int64, string, string) {}


type captureNotifier struct {
	mu    sync.Mutex
	users []int64
}

func (n *captureNotifier) NotifyReuseDetected(_ context.Context, u *user.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, u.ID)
}

func (n *captureNotifier) notified() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.users)
}

type staticOTP struct{ accept string }

func (v staticOTP) VerifyCode(code, _ string) bool { return code == v.accept }

// ============================================================================
// Tests
// ============================================================================

func newTestService(t *testing.T) (*auth.Service, *memoryUserRepo, *memoryRefreshStore, *captureNotifier) {
	t.Helper()
	users := newMemoryUserRepo()
	store := newMemoryRefreshStore()
	notifier := &captureNotifier{}
	svc := auth.NewService(
		users,
		hashing.NewBcryptHasher(4),
		auth.NewJWTService(testJWTConfig()),
		store,
		nopAudit{},
		notifier,
		staticOTP{accept: "123456"},
		testJWTConfig(),
	)
	return svc, users, store, notifier
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	pair, err := svc.SignIn(ctx, "ada@example.com", "hunter22", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	err := svc.SignUp(ctx, "ada@example.com", "different")
	if !errx.IsCode(err, user.CodeDuplicateUser) {
		t.Fatalf("expected duplicate user error, got %v", err)
	}
}

func TestSignInWrongCredentialsIndistinguishable(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	_, wrongPassword := svc.SignIn(ctx, "ada@example.com", "wrong", "")
	_, unknownEmail := svc.SignIn(ctx, "nobody@example.com", "whatever", "")

	if !errx.IsCode(wrongPassword, auth.CodeInvalidCredentials) {
		t.Fatalf("wrong password: got %v", wrongPassword)
	}
	if !errx.IsCode(unknownEmail, auth.CodeInvalidCredentials) {
		t.Fatalf("unknown email: got %v", unknownEmail)
	}

	var a, b *errx.Error
	errx.As(wrongPassword, &a)
	errx.As(unknownEmail, &b)
	if a.Message != b.Message {
		t.Errorf("messages differ: %q vs %q", a.Message, b.Message)
	}
}

func TestSignInWithTwoFactorEnrolled(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	u, err := users.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if err := users.EnableTFA(ctx, u.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("EnableTFA: %v", err)
	}

	if _, err := svc.SignIn(ctx, "ada@example.com", "hunter22", ""); !errx.IsCode(err, auth.CodeInvalidOTPCode) {
		t.Fatalf("missing code: got %v", err)
	}
	if _, err := svc.SignIn(ctx, "ada@example.com", "hunter22", "000000"); !errx.IsCode(err, auth.CodeInvalidOTPCode) {
		t.Fatalf("wrong code: got %v", err)
	}
	if _, err := svc.SignIn(ctx, "ada@example.com", "hunter22", "123456"); err != nil {
		t.Fatalf("valid code: got %v", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _, _, notifier := newTestService(t)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	first, err := svc.SignIn(ctx, "ada@example.com", "hunter22", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	second, err := svc.RefreshTokens(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// Replaying the consumed token is the theft signal.
	_, err = svc.RefreshTokens(ctx, first.RefreshToken)
	if !errx.IsCode(err, auth.CodeRefreshReuseDetected) {
		t.Fatalf("replay: expected reuse detection, got %v", err)
	}
	if notifier.notified() != 1 {
		t.Errorf("expected one security alert, got %d", notifier.notified())
	}

	// Reuse invalidates everything, so even the latest token is dead
	// and fails with the generic error.
	_, err = svc.RefreshTokens(ctx, second.RefreshToken)
	if err == nil {
		t.Fatal("expected refresh after invalidation to fail")
	}
	if errx.IsCode(err, auth.CodeRefreshReuseDetected) {
		t.Fatalf("post-invalidation refresh must fail generically, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	pair, err := svc.SignIn(ctx, "ada@example.com", "hunter22", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if _, err := svc.RefreshTokens(ctx, pair.AccessToken); err == nil {
		t.Fatal("expected access token to be rejected as a refresh token")
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, err := svc.RefreshTokens(context.Background(), "garbage"); err == nil {
		t.Fatal("expected malformed refresh token to be rejected")
	}
}
