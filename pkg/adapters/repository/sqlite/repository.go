package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS heroes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		hero_image_path TEXT NOT NULL,
		role_icon_path TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_heroes_name ON heroes(name);

	CREATE TABLE IF NOT EXISTS hero_builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		hero_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		image_path TEXT NOT NULL,
		display_order INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, hero_id, display_order),
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(hero_id) REFERENCES heroes(id)
	);
	CREATE INDEX IF NOT EXISTS idx_hero_builds_hero_id ON hero_builds(hero_id);
	CREATE INDEX IF NOT EXISTS idx_hero_builds_user_hero ON hero_builds(user_id, hero_id);
	`
	_, err := db.Exec(query)
	return err
}

// isUniqueViolation matches the constraint error text both drivers produce.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Build Repository Implementation ---

func (r *SQLiteRepository) ListByHero(ctx context.Context, heroID int64) ([]domain.Build, error) {
	// Ordering across owners carries no meaning for the consumer; created_at
	// then id keep the listing stable anyway.
	query := `SELECT b.id, b.user_id, b.hero_id, b.title, b.image_path, b.display_order, b.created_at, u.email
			  FROM hero_builds b
			  JOIN users u ON u.id = b.user_id
			  WHERE b.hero_id = ?
			  ORDER BY b.display_order ASC, b.created_at ASC, b.id ASC`

	rows, err := r.db.QueryContext(ctx, query, heroID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []domain.Build
	for rows.Next() {
		var b domain.Build
		if err := rows.Scan(&b.ID, &b.UserID, &b.HeroID, &b.Title, &b.ImagePath, &b.DisplayOrder, &b.CreatedAt, &b.OwnerEmail); err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

func (r *SQLiteRepository) CountByOwnerHero(ctx context.Context, userID, heroID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hero_builds WHERE user_id = ? AND hero_id = ?`,
		userID, heroID).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) MaxOrder(ctx context.Context, userID, heroID int64) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(display_order), 0) FROM hero_builds WHERE user_id = ? AND hero_id = ?`,
		userID, heroID).Scan(&max)
	return max, err
}

func (r *SQLiteRepository) Insert(ctx context.Context, build *domain.Build) error {
	query := `INSERT INTO hero_builds (user_id, hero_id, title, image_path, display_order, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		build.UserID, build.HeroID, build.Title, build.ImagePath, build.DisplayOrder, build.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderConflict
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	build.ID = id
	return nil
}

func (r *SQLiteRepository) FindOwned(ctx context.Context, buildID, userID int64) (*domain.Build, error) {
	query := `SELECT id, user_id, hero_id, title, image_path, display_order, created_at
			  FROM hero_builds WHERE id = ? AND user_id = ?`

	var b domain.Build
	err := r.db.QueryRowContext(ctx, query, buildID, userID).Scan(
		&b.ID, &b.UserID, &b.HeroID, &b.Title, &b.ImagePath, &b.DisplayOrder, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, buildID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM hero_builds WHERE id = ?`, buildID)
	return err
}

func (r *SQLiteRepository) Reorder(ctx context.Context, heroID int64, buildIDs []int64) error {
	if len(buildIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Two passes: the unique index on (user_id, hero_id, display_order) is
	// checked per statement, so a straight shuffle would collide with rows
	// not yet moved. Stage negative orders first, then assign the finals.
	for i, id := range buildIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE hero_builds SET display_order = ? WHERE id = ? AND hero_id = ?`,
			-(i + 1), id, heroID); err != nil {
			return err
		}
	}
	for i, id := range buildIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE hero_builds SET display_order = ? WHERE id = ? AND hero_id = ?`,
			i+1, id, heroID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Build, error) {
	query := `SELECT id, user_id, hero_id, title, image_path, display_order, created_at FROM hero_builds`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []domain.Build
	for rows.Next() {
		var b domain.Build
		if err := rows.Scan(&b.ID, &b.UserID, &b.HeroID, &b.Title, &b.ImagePath, &b.DisplayOrder, &b.CreatedAt); err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// --- Hero Repository Implementation ---

type heroRepo struct {
	r *SQLiteRepository
}

// Heroes exposes the hero side of the store.
func (r *SQLiteRepository) Heroes() ports.HeroRepository {
	return &heroRepo{r: r}
}

func (h *heroRepo) Create(ctx context.Context, hero *domain.Hero) error {
	query := `INSERT INTO heroes (name, role, hero_image_path, role_icon_path, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	res, err := h.r.db.ExecContext(ctx, query,
		hero.Name, hero.Role, hero.HeroImagePath, hero.RoleIconPath, hero.CreatedAt, hero.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	hero.ID = id
	return nil
}

func scanHero(row *sql.Row) (*domain.Hero, error) {
	var hero domain.Hero
	err := row.Scan(&hero.ID, &hero.Name, &hero.Role, &hero.HeroImagePath, &hero.RoleIconPath, &hero.CreatedAt, &hero.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hero, nil
}

func (h *heroRepo) GetByID(ctx context.Context, id int64) (*domain.Hero, error) {
	query := `SELECT id, name, role, hero_image_path, role_icon_path, created_at, updated_at
			  FROM heroes WHERE id = ?`
	return scanHero(h.r.db.QueryRowContext(ctx, query, id))
}

func (h *heroRepo) GetByName(ctx context.Context, name string) (*domain.Hero, error) {
	query := `SELECT id, name, role, hero_image_path, role_icon_path, created_at, updated_at
			  FROM heroes WHERE name = ?`
	return scanHero(h.r.db.QueryRowContext(ctx, query, name))
}

func (h *heroRepo) List(ctx context.Context, search string) ([]domain.Hero, error) {
	query := `SELECT id, name, role, hero_image_path, role_icon_path, created_at, updated_at FROM heroes`
	args := []interface{}{}

	if search != "" {
		query += " WHERE name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name ASC"

	rows, err := h.r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var heroes []domain.Hero
	for rows.Next() {
		var hero domain.Hero
		if err := rows.Scan(&hero.ID, &hero.Name, &hero.Role, &hero.HeroImagePath, &hero.RoleIconPath, &hero.CreatedAt, &hero.UpdatedAt); err != nil {
			return nil, err
		}
		heroes = append(heroes, hero)
	}
	return heroes, rows.Err()
}

func (h *heroRepo) Update(ctx context.Context, hero *domain.Hero) error {
	query := `UPDATE heroes SET name = ?, role = ?, hero_image_path = ?, role_icon_path = ?, updated_at = ?
			  WHERE id = ?`
	_, err := h.r.db.ExecContext(ctx, query,
		hero.Name, hero.Role, hero.HeroImagePath, hero.RoleIconPath, hero.UpdatedAt, hero.ID)
	return err
}

func (h *heroRepo) Delete(ctx context.Context, id int64) error {
	tx, err := h.r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Builds cascade with the hero.
	if _, err := tx.ExecContext(ctx, `DELETE FROM hero_builds WHERE hero_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM heroes WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (h *heroRepo) Upsert(ctx context.Context, hero *domain.Hero) error {
	query := `INSERT INTO heroes (id, name, role, hero_image_path, role_icon_path, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				role = excluded.role,
				hero_image_path = excluded.hero_image_path,
				role_icon_path = excluded.role_icon_path,
				updated_at = excluded.updated_at`
	_, err := h.r.db.ExecContext(ctx, query,
		hero.ID, hero.Name, hero.Role, hero.HeroImagePath, hero.RoleIconPath, hero.CreatedAt, hero.UpdatedAt)
	return err
}

func (h *heroRepo) Dump(ctx context.Context) ([]domain.Hero, error) {
	return h.List(ctx, "")
}

// --- User Repository Implementation ---

type userRepo struct {
	r *SQLiteRepository
}

// Users exposes the account side of the store.
func (r *SQLiteRepository) Users() ports.UserRepository {
	return &userRepo{r: r}
}

func (u *userRepo) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (email, password_hash, role, created_at) VALUES (?, ?, ?, ?)`
	res, err := u.r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Msg: "User already exists"}
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, password_hash, role, created_at FROM users WHERE email = ?`
	return scanUser(u.r.db.QueryRowContext(ctx, query, email))
}

func (u *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, email, password_hash, role, created_at FROM users WHERE id = ?`
	return scanUser(u.r.db.QueryRowContext(ctx, query, id))
}

// Ensure interface compliance
var _ ports.BuildRepository = (*SQLiteRepository)(nil)
var _ ports.HeroRepository = (*heroRepo)(nil)
var _ ports.UserRepository = (*userRepo)(nil)
