// Package identity provides the learner's authenticated identity: email and
// password accounts in the remote database, signed session tokens kept in
// the local store, and change notifications for the progress engine.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/pyquest/internal/store"
)

var (
	ErrNotConfigured      = errors.New("accounts are not available: no remote database configured")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotSignedIn        = errors.New("not signed in")
)

// Local store keys.
const (
	keySession = "pyquest-session"
	keySecret  = "pyquest-jwt-secret"
)

// DefaultSessionTTL is how long a sign-in stays valid.
const DefaultSessionTTL = 720 * time.Hour

// User is an authenticated learner.
type User struct {
	ID        string
	Email     string
	ExpiresAt time.Time
}

// EventKind distinguishes identity changes.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// Event is published on every identity change. User is nil for SignedOut.
type Event struct {
	Kind EventKind
	User *User
}

// TokenStore persists the session token on the device. *store.Store
// satisfies it.
type TokenStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Put(ctx context.Context, name, value string) error
	Remove(ctx context.Context, names ...string) error
}

// Options configures a Service.
type Options struct {
	// Secret signs session tokens. When empty a random per-install secret
	// is generated once and kept in the TokenStore.
	Secret string
	TTL    time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Service is the identity provider.
type Service struct {
	accounts store.AccountRepo
	tokens   TokenStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	current *User
	subs    map[int]chan Event
	nextSub int
}

// New creates a Service. accounts may be nil, in which case sign-up and
// sign-in report ErrNotConfigured and the learner stays anonymous.
func New(ctx context.Context, accounts store.AccountRepo, tokens TokenStore, opts Options) (*Service, error) {
	s := &Service{
		accounts: accounts,
		tokens:   tokens,
		ttl:      opts.TTL,
		now:      opts.Now,
		logger:   opts.Logger,
		subs:     make(map[int]chan Event),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	secret, err := s.loadSecret(ctx, strings.TrimSpace(opts.Secret))
	if err != nil {
		return nil, err
	}
	s.secret = secret
	return s, nil
}

func (s *Service) loadSecret(ctx context.Context, configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	v, ok, err := s.tokens.Get(ctx, keySecret)
	if err != nil {
		return nil, fmt.Errorf("read session secret: %w", err)
	}
	if ok && v != "" {
		return []byte(v), nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	v = hex.EncodeToString(buf)
	if err := s.tokens.Put(ctx, keySecret, v); err != nil {
		return nil, fmt.Errorf("store session secret: %w", err)
	}
	return []byte(v), nil
}

// Configured reports whether accounts can be used at all.
func (s *Service) Configured() bool {
	return s.accounts != nil
}

// Current returns the signed-in user, or nil.
func (s *Service) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct := &store.Account{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account created", "identity", acct.ID)
	return s.startSession(ctx, &User{ID: acct.ID, Email: acct.Email})
}

// SignIn checks credentials and starts a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	acct, err := s.accounts.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if acct == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, &User{ID: acct.ID, Email: acct.Email})
}

func (s *Service) startSession(ctx context.Context, u *User) (*User, error) {
	token, err := s.issueToken(u)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Put(ctx, keySession, token); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.setCurrent(u)
	s.publish(Event{Kind: SignedIn, User: u})
	return u, nil
}

// SignOut ends the session. beforeSignOut, when non-nil, runs first while
// the identity is still current so unsaved progress can be flushed; its
// error is logged and does not prevent signing out.
func (s *Service) SignOut(ctx context.Context, beforeSignOut func(context.Context) error) error {
	u := s.Current()
	if u == nil {
		return ErrNotSignedIn
	}

	if beforeSignOut != nil {
		if err := beforeSignOut(ctx); err != nil {
			s.logger.Warn("saving before sign-out failed", "identity", u.ID, "err", err)
		}
	}

	if err := s.tokens.Remove(ctx, keySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.setCurrent(nil)
	s.publish(Event{Kind: SignedOut})
	return nil
}

// Restore resumes the session saved on this device, if any. It returns
// (nil, nil) when there is none or accounts are not configured; an expired
// or invalid token is discarded.
func (s *Service) Restore(ctx context.Context) (*User, error) {
	if !s.Configured() {
		return nil, nil
	}

	token, ok, err := s.tokens.Get(ctx, keySession)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok || token == "" {
		return nil, nil
	}

	u, err := s.parseToken(token)
	if err != nil {
		s.logger.Info("discarding saved session", "err", err)
		if rmErr := s.tokens.Remove(ctx, keySession); rmErr != nil {
			s.logger.Warn("failed to clear session", "err", rmErr)
		}
		if errors.Is(err, ErrSessionExpired) {
			return nil, ErrSessionExpired
		}
		return nil, nil
	}

	s.setCurrent(u)
	s.publish(Event{Kind: SignedIn, User: u})
	return u, nil
}

// Subscribe returns a channel receiving every subsequent identity change,
// and a function that unsubscribes and closes it.
func (s *Service) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 16)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Service) setCurrent(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.current = nil
		return
	}
	cp := *u
	s.current = &cp
}

// publish delivers ev to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (s *Service) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("identity subscriber is not keeping up", "subscriber", id, "event", ev.Kind)
		}
	}
}
