package ports

import (
	"context"
	"io"

	"github.com/waritk/go-hero-catalog/pkg/core/domain"
)

// BuildRepository defines storage operations for hero builds. Implementations
// must keep (user_id, hero_id, display_order) unique and surface a collision
// as domain.ErrOrderConflict.
type BuildRepository interface {
	// ListByHero returns every build for a hero, all owners, ordered by
	// display_order with creation time as the tie-break across owners.
	ListByHero(ctx context.Context, heroID int64) ([]domain.Build, error)
	CountByOwnerHero(ctx context.Context, userID, heroID int64) (int, error)
	// MaxOrder returns the highest display_order in the (user, hero) scope,
	// 0 when the scope is empty.
	MaxOrder(ctx context.Context, userID, heroID int64) (int, error)
	Insert(ctx context.Context, build *domain.Build) error
	// FindOwned fetches a build only if the given user owns it; the ownership
	// check lives in the query itself. Returns nil, nil when absent.
	FindOwned(ctx context.Context, buildID, userID int64) (*domain.Build, error)
	Delete(ctx context.Context, buildID int64) error
	// Reorder assigns display_order i+1 to buildIDs[i], scoped by heroID, all
	// inside one transaction.
	Reorder(ctx context.Context, heroID int64, buildIDs []int64) error
	Dump(ctx context.Context) ([]domain.Build, error)
}

// HeroRepository defines storage operations for heroes.
type HeroRepository interface {
	Create(ctx context.Context, hero *domain.Hero) error
	GetByID(ctx context.Context, id int64) (*domain.Hero, error)
	GetByName(ctx context.Context, name string) (*domain.Hero, error)
	// List returns all heroes, optionally filtered by a name substring.
	List(ctx context.Context, search string) ([]domain.Hero, error)
	Update(ctx context.Context, hero *domain.Hero) error
	// Delete removes the hero and all of its builds.
	Delete(ctx context.Context, id int64) error
	// Upsert inserts or updates by the caller-supplied id (seeder path).
	Upsert(ctx context.Context, hero *domain.Hero) error
	Dump(ctx context.Context) ([]domain.Hero, error)
}

// UserRepository defines storage operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// ImageStore owns the stored image files referenced by heroes and builds.
type ImageStore interface {
	// StoreBuildImage resizes the upload to fit 800x800, re-encodes it as
	// JPEG and returns the relative path to reference it by.
	StoreBuildImage(ctx context.Context, r io.Reader) (string, error)
	// SaveHeroImage writes the bytes as-is under the hero images dir.
	SaveHeroImage(ctx context.Context, r io.Reader, filename string) (string, error)
	// Delete removes a stored image. Removing a path that no longer exists
	// is not an error.
	Delete(ctx context.Context, path string) error
}

// BuildService defines the build ordering/quota operations.
type BuildService interface {
	ListBuilds(ctx context.Context, heroID int64) ([]domain.Build, error)
	CreateBuild(ctx context.Context, userID, heroID int64, title string, image io.Reader) (*domain.Build, error)
	DeleteBuild(ctx context.Context, userID, buildID int64) error
	ReorderBuilds(ctx context.Context, heroID int64, buildIDs []int64) error
}

// HeroService defines admin CRUD over the hero catalog.
type HeroService interface {
	CreateHero(ctx context.Context, name, role, heroImagePath, roleIconPath string) (*domain.Hero, error)
	GetHero(ctx context.Context, id int64) (*domain.Hero, error)
	ListHeroes(ctx context.Context, search string) ([]domain.Hero, error)
	UpdateHero(ctx context.Context, id int64, upd domain.HeroUpdate) (*domain.Hero, error)
	DeleteHero(ctx context.Context, id int64) error
}

// AuthService issues and backs the catalog's JWTs.
type AuthService interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	// LoginWithGoogle finds or creates the account for a Google-verified
	// email and issues the same token a password login would.
	LoginWithGoogle(ctx context.Context, email string) (string, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// SeederService runs the catalog crawl in the background.
type SeederService interface {
	// Start kicks off a crawl and returns immediately;
	// domain.ErrSeedInProgress when one is already running.
	Start() error
	Status() domain.SeedStatus
}
