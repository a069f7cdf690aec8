package postgres

import (
	"context"
	"fmt"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// categoryRepository implements repository.CategoryRepository for PostgreSQL.
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new PostgreSQL category repository.
func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`,
		category.Name, category.Slug,
	).Scan(&category.ID)

	if err != nil {
		if isUniqueViolation(err, "categories_slug_key") {
			return fmt.Errorf("%w: %q", domain.ErrSlugTaken, category.Slug)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetBySlug retrieves a category by slug.
func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category := &domain.Category{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, slug FROM categories WHERE slug = $1`, slug,
	).Scan(&category.ID, &category.Name, &category.Slug)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// DeleteBySlug deletes a category; referencing titles keep existing with
// their category cleared (ON DELETE SET NULL).
func (r *categoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM categories WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}

	return nil
}

// List returns categories ordered by slug with pagination.
func (r *categoryRepository) List(ctx context.Context, search string, opts repository.ListOptions) (*repository.ListResult[domain.Category], error) {
	items, total, err := listNamed(ctx, r.db, "categories", search, opts, func(id int64, name, slug string) *domain.Category {
		return &domain.Category{ID: id, Name: name, Slug: slug}
	})
	if err != nil {
		return nil, err
	}

	return &repository.ListResult[domain.Category]{
		Items:  items,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// genreRepository implements repository.GenreRepository for PostgreSQL.
type genreRepository struct {
	db *DB
}

// NewGenreRepository creates a new PostgreSQL genre repository.
func NewGenreRepository(db *DB) repository.GenreRepository {
	return &genreRepository{db: db}
}

// Create creates a new genre.
func (r *genreRepository) Create(ctx context.Context, genre *domain.Genre) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO genres (name, slug) VALUES ($1, $2) RETURNING id`,
		genre.Name, genre.Slug,
	).Scan(&genre.ID)

	if err != nil {
		if isUniqueViolation(err, "genres_slug_key") {
			return fmt.Errorf("%w: %q", domain.ErrSlugTaken, genre.Slug)
		}
		return fmt.Errorf("failed to create genre: %w", err)
	}

	return nil
}

// GetBySlug retrieves a genre by slug.
func (r *genreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	genre := &domain.Genre{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, slug FROM genres WHERE slug = $1`, slug,
	).Scan(&genre.ID, &genre.Name, &genre.Slug)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrGenreNotFound
		}
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}

	return genre, nil
}

// GetBySlugs retrieves several genres, preserving input order.
func (r *genreRepository) GetBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, slug FROM genres WHERE slug = ANY($1)`, slugs)
	if err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}
	defer rows.Close()

	bySlug := make(map[string]domain.Genre, len(slugs))
	for rows.Next() {
		var g domain.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		bySlug[g.Slug] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating genres: %w", err)
	}

	genres := make([]domain.Genre, 0, len(slugs))
	for _, slug := range slugs {
		g, ok := bySlug[slug]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrGenreNotFound, slug)
		}
		genres = append(genres, g)
	}

	return genres, nil
}

// DeleteBySlug deletes a genre. Association rows cascade; titles survive.
func (r *genreRepository) DeleteBySlug(ctx context.Context, slug string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM genres WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete genre: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrGenreNotFound
	}

	return nil
}

// List returns genres ordered by slug with pagination.
func (r *genreRepository) List(ctx context.Context, search string, opts repository.ListOptions) (*repository.ListResult[domain.Genre], error) {
	items, total, err := listNamed(ctx, r.db, "genres", search, opts, func(id int64, name, slug string) *domain.Genre {
		return &domain.Genre{ID: id, Name: name, Slug: slug}
	})
	if err != nil {
		return nil, err
	}

	return &repository.ListResult[domain.Genre]{
		Items:  items,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// listNamed pages over the shared (id, name, slug) shape of categories
// and genres.
func listNamed[T any](ctx context.Context, db *DB, table, search string, opts repository.ListOptions, build func(int64, string, string) *T) ([]*T, int64, error) {
	where := ``
	args := []interface{}{}
	if search != "" {
		where = ` WHERE name ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(search)+"%")
	}

	var total int64
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	query := fmt.Sprintf(
		`SELECT id, name, slug FROM `+table+where+` ORDER BY slug LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var items []*T
	for rows.Next() {
		var id int64
		var name, slug string
		if err := rows.Scan(&id, &name, &slug); err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		items = append(items, build(id, name, slug))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating %s: %w", table, err)
	}

	return items, total, nil
}

// Ensure implementations satisfy the interfaces.
var (
	_ repository.CategoryRepository = (*categoryRepository)(nil)
	_ repository.GenreRepository    = (*genreRepository)(nil)
)
