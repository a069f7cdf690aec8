package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// titleRepository implements repository.TitleRepository for PostgreSQL.
type titleRepository struct {
	db *DB
}

// NewTitleRepository creates a new PostgreSQL title repository.
func NewTitleRepository(db *DB) repository.TitleRepository {
	return &titleRepository{db: db}
}

// titleSelect reads a title together with its resolved category and the
// derived rating, computed from committed reviews at query time.
const titleSelect = `
	SELECT
		t.id, t.name, t.year, t.description,
		c.id, c.name, c.slug,
		(SELECT AVG(score)::float8 FROM reviews r WHERE r.title_id = t.id) AS rating
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
`

// Create creates a title and its genre associations in one transaction.
func (r *titleRepository) Create(ctx context.Context, title *domain.Title, genreIDs []int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO titles (name, year, description, category_id) VALUES ($1, $2, $3, $4) RETURNING id`,
			title.Name, title.Year, title.Description, categoryID(title),
		).Scan(&title.ID)
		if err != nil {
			return fmt.Errorf("failed to create title: %w", err)
		}

		return insertGenres(ctx, tx, title.ID, genreIDs)
	})
}

// GetByID retrieves a title by ID, rating and genres included.
func (r *titleRepository) GetByID(ctx context.Context, id int64) (*domain.Title, error) {
	row := r.db.Pool.QueryRow(ctx, titleSelect+` WHERE t.id = $1`, id)

	title, err := scanTitle(row.Scan)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTitleNotFound
		}
		return nil, fmt.Errorf("failed to get title: %w", err)
	}

	if err := r.attachGenres(ctx, []*domain.Title{title}); err != nil {
		return nil, err
	}

	return title, nil
}

// Update updates the title row, optionally replacing the whole genre set.
func (r *titleRepository) Update(ctx context.Context, title *domain.Title, genreIDs []int64, replaceGenres bool) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE titles SET name = $1, year = $2, description = $3, category_id = $4 WHERE id = $5`,
			title.Name, title.Year, title.Description, categoryID(title), title.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update title: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrTitleNotFound
		}

		if !replaceGenres {
			return nil
		}

		// Replace, never append: the genre field carries the full set.
		if _, err := tx.Exec(ctx, `DELETE FROM genre_title WHERE title_id = $1`, title.ID); err != nil {
			return fmt.Errorf("failed to clear genre associations: %w", err)
		}

		return insertGenres(ctx, tx, title.ID, genreIDs)
	})
}

// Delete deletes a title by ID. Reviews and comments cascade.
func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete title: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTitleNotFound
	}

	return nil
}

// List returns titles matching the filter, ratings and genres included.
func (r *titleRepository) List(ctx context.Context, filter repository.TitleFilter, opts repository.ListOptions) (*repository.ListResult[domain.Title], error) {
	var conds []string
	var args []interface{}

	next := func() int { return len(args) + 1 }

	if filter.CategorySlug != "" {
		conds = append(conds, fmt.Sprintf(`c.slug = $%d`, next()))
		args = append(args, filter.CategorySlug)
	}
	if filter.GenreSlug != "" {
		conds = append(conds, fmt.Sprintf(`t.id IN (
			SELECT gt.title_id FROM genre_title gt
			JOIN genres g ON g.id = gt.genre_id
			WHERE g.slug = $%d)`, next()))
		args = append(args, filter.GenreSlug)
	}
	if filter.Name != "" {
		conds = append(conds, fmt.Sprintf(`t.name ILIKE $%d ESCAPE '\'`, next()))
		args = append(args, "%"+escapeLike(filter.Name)+"%")
	}
	if filter.Year != nil {
		conds = append(conds, fmt.Sprintf(`t.year = $%d`, next()))
		args = append(args, *filter.Year)
	}

	where := ``
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}

	countQuery := `
		SELECT COUNT(*) FROM titles t
		LEFT JOIN categories c ON c.id = t.category_id` + where
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count titles: %w", err)
	}

	query := fmt.Sprintf(
		titleSelect+where+` ORDER BY t.name, t.id LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	defer rows.Close()

	var titles []*domain.Title
	for rows.Next() {
		title, err := scanTitle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating titles: %w", err)
	}

	if err := r.attachGenres(ctx, titles); err != nil {
		return nil, err
	}

	return &repository.ListResult[domain.Title]{
		Items:  titles,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// scanTitle scans one row of titleSelect.
func scanTitle(scan func(...interface{}) error) (*domain.Title, error) {
	title := &domain.Title{}
	var description sql.NullString
	var catID sql.NullInt64
	var catName, catSlug sql.NullString
	var rating sql.NullFloat64

	err := scan(
		&title.ID,
		&title.Name,
		&title.Year,
		&description,
		&catID,
		&catName,
		&catSlug,
		&rating,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		title.Description = &description.String
	}
	if catID.Valid {
		title.Category = &domain.Category{
			ID:   catID.Int64,
			Name: catName.String,
			Slug: catSlug.String,
		}
	}
	if rating.Valid {
		title.Rating = &rating.Float64
	}

	return title, nil
}

// attachGenres loads the genre sets for the given titles in one query.
func (r *titleRepository) attachGenres(ctx context.Context, titles []*domain.Title) error {
	if len(titles) == 0 {
		return nil
	}

	ids := make([]int64, len(titles))
	byID := make(map[int64]*domain.Title, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
		byID[t.ID] = t
		t.Genres = []domain.Genre{}
	}

	query := `
		SELECT gt.title_id, g.id, g.name, g.slug
		FROM genre_title gt
		JOIN genres g ON g.id = gt.genre_id
		WHERE gt.title_id = ANY($1)
		ORDER BY g.slug
	`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var titleID int64
		var g domain.Genre
		if err := rows.Scan(&titleID, &g.ID, &g.Name, &g.Slug); err != nil {
			return fmt.Errorf("failed to scan genre association: %w", err)
		}
		if t, ok := byID[titleID]; ok {
			t.Genres = append(t.Genres, g)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating genre associations: %w", err)
	}

	return nil
}

// insertGenres inserts genre association rows for a title.
func insertGenres(ctx context.Context, tx pgx.Tx, titleID int64, genreIDs []int64) error {
	for _, genreID := range genreIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO genre_title (title_id, genre_id) VALUES ($1, $2)`,
			titleID, genreID,
		); err != nil {
			return fmt.Errorf("failed to associate genre %d: %w", genreID, err)
		}
	}
	return nil
}

// categoryID extracts the nullable category foreign key.
func categoryID(title *domain.Title) interface{} {
	if title.Category == nil {
		return nil
	}
	return title.Category.ID
}

// Ensure titleRepository implements repository.TitleRepository.
var _ repository.TitleRepository = (*titleRepository)(nil)
