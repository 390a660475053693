package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory credential store
// ---------------------------------------------------------------------------

type stubCredentialStore struct {
	mu     sync.Mutex
	byID   map[string]*domain.Principal
	nextID int
}

func newStubCredentialStore() *stubCredentialStore {
	return &stubCredentialStore{byID: make(map[string]*domain.Principal)}
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	if p == nil {
		return nil
	}
	c := *p
	c.RefreshTokens = append([]string(nil), p.RefreshTokens...)
	if p.ResetTokenExpiry != nil {
		exp := *p.ResetTokenExpiry
		c.ResetTokenExpiry = &exp
	}
	return &c
}

func (s *stubCredentialStore) Create(_ context.Context, p *domain.Principal) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == p.Email {
			return nil, domain.ErrUserExists
		}
	}
	s.nextID++
	c := clonePrincipal(p)
	c.ID = fmt.Sprintf("p%d", s.nextID)
	s.byID[c.ID] = c
	return clonePrincipal(c), nil
}

func (s *stubCredentialStore) FindByEmail(_ context.Context, email string) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.Email == email {
			return clonePrincipal(p), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubCredentialStore) FindByID(_ context.Context, id string) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clonePrincipal(p), nil
}

func (s *stubCredentialStore) SetBlocked(_ context.Context, id string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	p.IsBlocked = blocked
	if blocked {
		p.RefreshTokens = []string{}
	}
	return nil
}

func (s *stubCredentialStore) AddRefreshToken(_ context.Context, id, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	p.RefreshTokens = append(p.RefreshTokens, token)
	p.LastLogin = &at
	return nil
}

func (s *stubCredentialStore) RemoveRefreshToken(_ context.Context, id, token string) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	kept := p.RefreshTokens[:0]
	for _, t := range p.RefreshTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	p.RefreshTokens = kept
	return clonePrincipal(p), nil
}

func (s *stubCredentialStore) SetResetToken(_ context.Context, id, tokenHash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	p.ResetTokenHash = tokenHash
	p.ResetTokenExpiry = &expiry
	return nil
}

func (s *stubCredentialStore) CompletePasswordReset(_ context.Context, id, tokenHash, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok || p.ResetTokenHash == "" || p.ResetTokenHash != tokenHash {
		return domain.ErrInvalidResetToken
	}
	p.PasswordHash = passwordHash
	p.ResetTokenHash = ""
	p.ResetTokenExpiry = nil
	return nil
}

// seed inserts a principal with an already hashed password.
func (s *stubCredentialStore) seed(email, passwordHash, role string) *domain.Principal {
	p, err := s.Create(context.Background(), &domain.Principal{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if err != nil {
		panic(err)
	}
	return p
}

// ---------------------------------------------------------------------------
// In-memory OTP repository and verified-email ledger
// ---------------------------------------------------------------------------

type stubOTPRepo struct {
	mu         sync.Mutex
	records    []*domain.OTP
	seq        int
	consumeErr error
}

func (r *stubOTPRepo) Create(_ context.Context, otp *domain.OTP) (*domain.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c := *otp
	c.ID = fmt.Sprintf("otp%03d", r.seq)
	r.records = append(r.records, &c)
	out := c
	return &out, nil
}

// Latest mirrors the Mongo sort: created_at desc, then insertion order desc.
func (r *stubOTPRepo) Latest(_ context.Context, email string) (*domain.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.OTP
	for _, rec := range r.records {
		if rec.Email == email {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return nil, domain.ErrOTPNotFound
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	out := *matched[0]
	return &out, nil
}

func (r *stubOTPRepo) IncrementAttempts(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.Attempts++
		}
	}
	return nil
}

func (r *stubOTPRepo) Consume(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumeErr != nil {
		return false, r.consumeErr
	}
	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOTPRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.Email != email {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

func (r *stubOTPRepo) count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Email == email {
			n++
		}
	}
	return n
}

type stubLedger struct {
	mu       sync.Mutex
	verified map[string]bool
}

func newStubLedger() *stubLedger {
	return &stubLedger{verified: make(map[string]bool)}
}

func (l *stubLedger) MarkVerified(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verified[email] = true
	return nil
}

func (l *stubLedger) IsVerified(_ context.Context, email string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verified[email], nil
}

func (l *stubLedger) Consume(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.verified, email)
	return nil
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

type sentMail struct {
	kind string
	to   string
	body string // code or link
}

type stubMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *stubMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "otp", to: to, body: code})
	return m.err
}

func (m *stubMailer) SendPasswordReset(_ context.Context, to, link string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "reset", to: to, body: link})
	return m.err
}

func (m *stubMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

// countingHasher wraps bcrypt at minimum cost and counts comparisons.
type countingHasher struct {
	inner    *BcryptHasher
	mu       sync.Mutex
	compares int
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: NewBcryptHasher(4)}
}

func (h *countingHasher) Hash(password string) (string, error) {
	return h.inner.Hash(password)
}

func (h *countingHasher) Compare(hash, password string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	return h.inner.Compare(hash, password)
}

func (h *countingHasher) compareCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compares
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type authFixture struct {
	svc    *AuthService
	users  *stubCredentialStore
	admins *stubCredentialStore
	tokens *JWTTokenService
	hasher *countingHasher
	mailer *stubMailer
}

func newAuthFixture() *authFixture {
	tokens, err := NewJWTTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	if err != nil {
		panic(err)
	}
	f := &authFixture{
		users:  newStubCredentialStore(),
		admins: newStubCredentialStore(),
		tokens: tokens,
		hasher: newCountingHasher(),
		mailer: &stubMailer{},
	}
	f.svc = NewAuthService(
		f.users,
		f.admins,
		f.tokens,
		f.hasher,
		f.mailer,
		NewResetTokens(time.Hour),
		"https://app.example.com/",
		zerolog.Nop(),
	)
	return f
}
