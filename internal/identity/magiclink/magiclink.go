// Package magiclink implements passwordless sign-in: a signed, single-use
// login link is mailed to the user and exchanged for a session.
package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/identity"
)

const loginPurpose = "login"

var (
	ErrInvalidAddress = errors.New("invalid email address")
	ErrInvalidToken   = errors.New("invalid or expired login link")
)

// Mailer delivers a login link to an address.
type Mailer interface {
	SendLoginLink(ctx context.Context, address, link string) error
}

// LogMailer writes login links to the log instead of sending mail.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendLoginLink(ctx context.Context, address, link string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "login link issued", "address", address, "link", link)
	return nil
}

type loginClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type Option func(*Provider)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func WithLoginTTL(d time.Duration) Option {
	return func(p *Provider) { p.loginTTL = d }
}

func WithSessionTTL(d time.Duration) Option {
	return func(p *Provider) { p.sessionTTL = d }
}

// Provider holds at most one signed-in session.
type Provider struct {
	secret     []byte
	linkURL    string
	mailer     Mailer
	logger     *slog.Logger
	validate   *validator.Validate
	now        func() time.Time
	loginTTL   time.Duration
	sessionTTL time.Duration

	mu      sync.Mutex
	session *identity.Identity
	expires time.Time
	used    map[string]time.Time
}

func New(secret, linkURL string, mailer Mailer, logger *slog.Logger, opts ...Option) *Provider {
	p := &Provider{
		secret:     []byte(secret),
		linkURL:    linkURL,
		mailer:     mailer,
		logger:     logger,
		validate:   validator.New(),
		now:        time.Now,
		loginTTL:   15 * time.Minute,
		sessionTTL: 7 * 24 * time.Hour,
		used:       map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ identity.Provider = (*Provider)(nil)

func (p *Provider) Current(ctx context.Context) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, nil
	}
	if !p.now().Before(p.expires) {
		p.logger.InfoContext(ctx, "session expired", "address", p.session.Address)
		p.session = nil
		return nil, nil
	}
	s := *p.session
	return &s, nil
}

// SendLoginChallenge mails a login link to address.
func (p *Provider) SendLoginChallenge(ctx context.Context, address string) error {
	address = identity.NormalizeAddress(address)
	if err := p.validate.Var(address, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	token, err := p.issue(address)
	if err != nil {
		return err
	}

	link, err := p.link(token)
	if err != nil {
		return err
	}

	if err := p.mailer.SendLoginLink(ctx, address, link); err != nil {
		return fmt.Errorf("failed to send login link: %w", err)
	}
	return nil
}

// Verify exchanges a login token for a session. Each token works once.
func (p *Provider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	claims := &loginClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return p.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrUnauthorized, ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Purpose != loginPurpose || claims.ID == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidToken)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.pruneUsed(now)
	if _, seen := p.used[claims.ID]; seen {
		return nil, fmt.Errorf("%w: %w: link already used", domain.ErrUnauthorized, ErrInvalidToken)
	}
	p.used[claims.ID] = claims.ExpiresAt.Time

	p.session = &identity.Identity{
		Subject:    claims.Subject,
		Address:    claims.Email,
		VerifiedAt: now,
	}
	p.expires = now.Add(p.sessionTTL)
	p.logger.InfoContext(ctx, "signed in", "address", claims.Email)

	s := *p.session
	return &s, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		p.logger.InfoContext(ctx, "signed out", "address", p.session.Address)
	}
	p.session = nil
	p.expires = time.Time{}
	return nil
}

func (p *Provider) issue(address string) (string, error) {
	now := p.now()
	claims := &loginClaims{
		Email:   address,
		Purpose: loginPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   address,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.loginTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (p *Provider) link(token string) (string, error) {
	u, err := url.Parse(p.linkURL)
	if err != nil {
		return "", fmt.Errorf("invalid login link url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// pruneUsed forgets tokens that have expired anyway. Caller holds p.mu.
func (p *Provider) pruneUsed(now time.Time) {
	for id, exp := range p.used {
		if now.After(exp) {
			delete(p.used, id)
		}
	}
}
