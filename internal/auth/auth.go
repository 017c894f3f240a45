// Package auth is the storefront's demo-mode authentication. Roles are
// inferred from the email address and passwords are never checked; the
// session is a user record plus an opaque token in the key-value store.
package auth

import (
	"context"
	"time"

	"storefront/internal/kv"

	"github.com/decred/slog"
	"github.com/google/uuid"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up form.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Session is the result of a login or registration.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Delays are the simulated backend latencies.
type Delays struct {
	Login    time.Duration
	Register time.Duration
	Logout   time.Duration
	Users    time.Duration
}

// DefaultDelays match the demo frontend.
var DefaultDelays = Delays{
	Login:    500 * time.Millisecond,
	Register: 500 * time.Millisecond,
	Logout:   300 * time.Millisecond,
	Users:    300 * time.Millisecond,
}

// Service owns the current session record.
type Service struct {
	store  *kv.Store
	log    slog.Logger
	delays Delays
	now    func() time.Time
}

// Option configures a Service.
type Option func(s *Service)

// WithDelays overrides the simulated latencies.
func WithDelays(d Delays) Option {
	return func(s *Service) {
		s.delays = d
	}
}

// WithClock overrides the time source used for generated user ids.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService returns a Service persisting the session in store.
func NewService(store *kv.Store, log slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, log: log, delays: DefaultDelays, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newToken() string {
	return "demo-token-" + uuid.New().String()
}

func (s *Service) start(u User) Session {
	sess := Session{User: u, Token: newToken()}
	s.store.Set(kv.KeyUser, sess.User)
	s.store.Set(kv.KeyAuthToken, sess.Token)
	return sess
}

// Login signs in as the demo user matching the email's role.
func (s *Service) Login(ctx context.Context, c Credentials) (Session, error) {
	if err := ValidateLogin(c); err != nil {
		return Session{}, err
	}
	u := demoUser(RoleForEmail(c.Email))
	if err := wait(ctx, s.delays.Login); err != nil {
		return Session{}, err
	}
	sess := s.start(u)
	s.log.Infof("Signed in %s as %s", c.Email, u.Role)
	return sess, nil
}

// Register creates a throwaway user whose role is inferred from the email.
func (s *Service) Register(ctx context.Context, r Registration) (Session, error) {
	if err := ValidateRegister(r); err != nil {
		return Session{}, err
	}
	if err := wait(ctx, s.delays.Register); err != nil {
		return Session{}, err
	}
	u := User{
		ID:     s.now().UnixMilli(),
		Name:   r.Name,
		Email:  r.Email,
		Role:   RegistrationRole(r.Email),
		Avatar: defaultAvatar,
	}
	sess := s.start(u)
	s.log.Infof("Registered %s as %s", u.Email, u.Role)
	return sess, nil
}

// Logout clears the session.
func (s *Service) Logout(ctx context.Context) error {
	if err := wait(ctx, s.delays.Logout); err != nil {
		return err
	}
	s.store.Remove(kv.KeyUser)
	s.store.Remove(kv.KeyAuthToken)
	s.log.Infof("Signed out")
	return nil
}

// Current returns the signed-in user. The stored user record is what counts;
// a token left without a user is cleared.
func (s *Service) Current() (User, bool) {
	u := kv.Get[*User](s.store, kv.KeyUser, nil)
	if u != nil {
		return *u, true
	}
	if s.store.Has(kv.KeyAuthToken) {
		s.store.Remove(kv.KeyAuthToken)
	}
	return User{}, false
}

// Token returns the current session token, if any.
func (s *Service) Token() string {
	return kv.Get(s.store, kv.KeyAuthToken, "")
}

// Users lists every known user.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	if err := wait(ctx, s.delays.Users); err != nil {
		return nil, err
	}
	return directoryUsers(), nil
}
