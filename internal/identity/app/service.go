package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/dwikikusuma/shopmesh/internal/identity/domain"
	"github.com/dwikikusuma/shopmesh/pkg/events"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBanned             = errors.New("user is banned")
	ErrNotFound           = errors.New("user not found")
	ErrUnknownRole        = errors.New("role not found")
)

const (
	minPasswordLen = 6
	maxPasswordLen = 20

	defaultPublishTimeout = 5 * time.Second
)

type Service struct {
	repo   UserRepo
	tokens TokenIssuer
	pub    EventPublisher
	log    *slog.Logger

	bcryptCost     int
	publishTimeout time.Duration
	now            func() time.Time
	inflight       sync.WaitGroup
}

type Option func(*Service)

// WithPublisher enables UserCreated events. Without it registration works
// but no cart is provisioned ahead of the user's first cart call.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.pub = p }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) { s.publishTimeout = d }
}

func NewService(repo UserRepo, tokens TokenIssuer, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		tokens:         tokens,
		log:            log,
		bcryptCost:     bcrypt.DefaultCost,
		publishTimeout: defaultPublishTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a USER account and returns a signed token. The
// UserCreated event is sent after the user is stored and its outcome never
// affects the result.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
	})
	if err != nil {
		return "", err
	}

	s.publishUserCreated(ctx, u.ID)

	return s.tokens.Issue(u.ID, u.Email, u.Roles)
}

func (s *Service) publishUserCreated(ctx context.Context, userID int64) {
	if s.pub == nil {
		return
	}
	ev := events.NewUserCreated(userID, s.now())
	payload, err := ev.Marshal()
	if err != nil {
		s.log.Error("encode UserCreated", slog.Int64("user_id", userID), slog.Any("err", err))
		return
	}

	// detached from the request so a client hanging up does not drop it
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.pub.Publish(pubCtx, ev.Key(), payload); err != nil {
			s.log.Error("publish UserCreated failed",
				slog.Int64("user_id", userID),
				slog.String("event_id", ev.EventID.String()),
				slog.Any("err", err),
			)
			return
		}
		s.log.Info("UserCreated published", slog.Int64("user_id", userID), slog.String("event_id", ev.EventID.String()))
	}()
}

// Drain waits for in-flight event publishes. Call it before closing the
// publisher.
func (s *Service) Drain() {
	s.inflight.Wait()
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	if u.Banned {
		return "", ErrBanned
	}
	return s.tokens.Issue(u.ID, u.Email, u.Roles)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) AddRole(ctx context.Context, userID int64, role string) (domain.User, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if userID <= 0 || role == "" {
		return domain.User{}, ErrInvalidInput
	}
	if !slices.Contains(domain.KnownRoles, role) {
		return domain.User{}, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return s.repo.AddRole(ctx, userID, role)
}

func (s *Service) Ban(ctx context.Context, userID int64, reason string) (domain.User, error) {
	reason = strings.TrimSpace(reason)
	if userID <= 0 || reason == "" {
		return domain.User{}, ErrInvalidInput
	}
	return s.repo.Ban(ctx, userID, reason)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d to %d characters", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}
	return nil
}
