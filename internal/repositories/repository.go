package repositories

import "context"

// Repository aggregates the per-entity repository interfaces behind one
// handle that services receive.
type Repository interface {
	Question() QuestionRepository
	Pool() PoolRepository
	Test() TestRepository
	StudentTest() StudentTestRepository

	// User profiles are read-only for this service; the record of truth is
	// the identity provider.
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
