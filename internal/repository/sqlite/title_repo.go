package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// titleRepository implements repository.TitleRepository for SQLite.
type titleRepository struct {
	db *DB
}

// NewTitleRepository creates a new SQLite title repository.
func NewTitleRepository(db *DB) repository.TitleRepository {
	return &titleRepository{db: db}
}

// titleSelect reads a title together with its resolved category and the
// derived rating. The rating subquery runs at read time against committed
// reviews; it is never stored or cached.
const titleSelect = `
	SELECT
		t.id, t.name, t.year, t.description,
		c.id, c.name, c.slug,
		(SELECT AVG(score) FROM reviews r WHERE r.title_id = t.id) AS rating
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
`

// Create creates a title and its genre associations in one transaction.
func (r *titleRepository) Create(ctx context.Context, title *domain.Title, genreIDs []int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO titles (name, year, description, category_id) VALUES (?, ?, ?, ?)`,
			title.Name, title.Year, title.Description, categoryID(title),
		)
		if err != nil {
			return fmt.Errorf("failed to create title: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
		title.ID = id

		return insertGenres(ctx, tx, id, genreIDs)
	})
}

// GetByID retrieves a title by ID, rating and genres included.
func (r *titleRepository) GetByID(ctx context.Context, id int64) (*domain.Title, error) {
	row := r.db.QueryRowContext(ctx, titleSelect+` WHERE t.id = ?`, id)

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
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE titles SET name = ?, year = ?, description = ?, category_id = ? WHERE id = ?`,
			title.Name, title.Year, title.Description, categoryID(title), title.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update title: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return domain.ErrTitleNotFound
		}

		if !replaceGenres {
			return nil
		}

		// Replace, never append: the genre field carries the full set.
		if _, err := tx.ExecContext(ctx, `DELETE FROM genre_title WHERE title_id = ?`, title.ID); err != nil {
			return fmt.Errorf("failed to clear genre associations: %w", err)
		}

		return insertGenres(ctx, tx, title.ID, genreIDs)
	})
}

// Delete deletes a title by ID. Reviews and comments cascade.
func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM titles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete title: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrTitleNotFound
	}

	return nil
}

// List returns titles matching the filter, ratings and genres included.
func (r *titleRepository) List(ctx context.Context, filter repository.TitleFilter, opts repository.ListOptions) (*repository.ListResult[domain.Title], error) {
	var conds []string
	var args []interface{}

	if filter.CategorySlug != "" {
		conds = append(conds, `c.slug = ?`)
		args = append(args, filter.CategorySlug)
	}
	if filter.GenreSlug != "" {
		conds = append(conds, `t.id IN (
			SELECT gt.title_id FROM genre_title gt
			JOIN genres g ON g.id = gt.genre_id
			WHERE g.slug = ?)`)
		args = append(args, filter.GenreSlug)
	}
	if filter.Name != "" {
		conds = append(conds, `t.name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Name)+"%")
	}
	if filter.Year != nil {
		conds = append(conds, `t.year = ?`)
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
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count titles: %w", err)
	}

	query := titleSelect + where + ` ORDER BY t.name, t.id LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
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

	placeholders := strings.Repeat("?,", len(titles))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(titles))
	byID := make(map[int64]*domain.Title, len(titles))
	for i, t := range titles {
		args[i] = t.ID
		byID[t.ID] = t
		t.Genres = []domain.Genre{}
	}

	query := `
		SELECT gt.title_id, g.id, g.name, g.slug
		FROM genre_title gt
		JOIN genres g ON g.id = gt.genre_id
		WHERE gt.title_id IN (` + placeholders + `)
		ORDER BY g.slug
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
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
func insertGenres(ctx context.Context, tx *sql.Tx, titleID int64, genreIDs []int64) error {
	for _, genreID := range genreIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO genre_title (title_id, genre_id) VALUES (?, ?)`,
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
