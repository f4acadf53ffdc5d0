package app

import (
	"context"

	"github.com/dwikikusuma/shopmesh/internal/identity/domain"
)

type UserRepo interface {
	// Create stores the user with its roles and fails with ErrEmailTaken
	// when the email is already registered.
	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	AddRole(ctx context.Context, id int64, role string) (domain.User, error)
	Ban(ctx context.Context, id int64, reason string) (domain.User, error)
}

type TokenIssuer interface {
	Issue(id int64, email string, roles []string) (string, error)
}

// EventPublisher writes one record to the users topic.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}
