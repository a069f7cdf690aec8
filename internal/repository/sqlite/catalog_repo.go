package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// categoryRepository implements repository.CategoryRepository for SQLite.
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new SQLite category repository.
func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, slug) VALUES (?, ?)`,
		category.Name, category.Slug,
	)
	if err != nil {
		if isUniqueViolation(err, "categories.slug") {
			return fmt.Errorf("%w: %q", domain.ErrSlugTaken, category.Slug)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	category.ID = id

	return nil
}

// GetBySlug retrieves a category by slug.
func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE slug = ?`, slug,
	).Scan(&category.ID, &category.Name, &category.Slug)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// DeleteBySlug deletes a category. The titles.category_id foreign key is
// declared ON DELETE SET NULL, so referencing titles survive with their
// category cleared.
func (r *categoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
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

// genreRepository implements repository.GenreRepository for SQLite.
type genreRepository struct {
	db *DB
}

// NewGenreRepository creates a new SQLite genre repository.
func NewGenreRepository(db *DB) repository.GenreRepository {
	return &genreRepository{db: db}
}

// Create creates a new genre.
func (r *genreRepository) Create(ctx context.Context, genre *domain.Genre) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO genres (name, slug) VALUES (?, ?)`,
		genre.Name, genre.Slug,
	)
	if err != nil {
		if isUniqueViolation(err, "genres.slug") {
			return fmt.Errorf("%w: %q", domain.ErrSlugTaken, genre.Slug)
		}
		return fmt.Errorf("failed to create genre: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	genre.ID = id

	return nil
}

// GetBySlug retrieves a genre by slug.
func (r *genreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	genre := &domain.Genre{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM genres WHERE slug = ?`, slug,
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

	placeholders := strings.Repeat("?,", len(slugs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(slugs))
	for i, s := range slugs {
		args[i] = s
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug FROM genres WHERE slug IN (`+placeholders+`)`, args...)
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
	result, err := r.db.ExecContext(ctx, `DELETE FROM genres WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete genre: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
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
// and genres. SQLite LIKE is case-insensitive for ASCII, which matches
// the case-insensitive substring search contract.
func listNamed[T any](ctx context.Context, db *DB, table, search string, opts repository.ListOptions, build func(int64, string, string) *T) ([]*T, int64, error) {
	where := ``
	args := []interface{}{}
	if search != "" {
		where = ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(search)+"%")
	}

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	query := `SELECT id, name, slug FROM ` + table + where + ` ORDER BY slug LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
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
