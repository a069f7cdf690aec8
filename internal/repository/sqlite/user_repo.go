package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, first_name, last_name, bio, role, is_superuser, is_staff, created_at`

// Create creates a new user. Uniqueness is left to the database so that
// two concurrent signups for the same name cannot both succeed.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, bio, role, is_superuser, is_staff, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		string(user.Role),
		boolToInt(user.IsSuperuser),
		boolToInt(user.IsStaff),
		user.CreatedAt.Format(time.RFC3339),
	)

	if err != nil {
		switch {
		case isUniqueViolation(err, "users.username"):
			return fmt.Errorf("%w: %q", domain.ErrUsernameTaken, user.Username)
		case isUniqueViolation(err, "users.email"):
			return fmt.Errorf("%w: %q", domain.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user := &domain.User{}
	var role, createdAt string
	var isSuperuser, isStaff int

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Bio,
		&role,
		&isSuperuser,
		&isStaff,
		&createdAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.Role(role)
	user.IsSuperuser = isSuperuser != 0
	user.IsStaff = isStaff != 0
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return user, nil
}

// Update updates an existing user.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = ?, email = ?, first_name = ?, last_name = ?, bio = ?, role = ?, is_superuser = ?, is_staff = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		string(user.Role),
		boolToInt(user.IsSuperuser),
		boolToInt(user.IsStaff),
		user.ID,
	)

	if err != nil {
		switch {
		case isUniqueViolation(err, "users.username"):
			return fmt.Errorf("%w: %q", domain.ErrUsernameTaken, user.Username)
		case isUniqueViolation(err, "users.email"):
			return fmt.Errorf("%w: %q", domain.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// Delete deletes a user by username.
func (r *userRepository) Delete(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// List returns users ordered by username with pagination.
func (r *userRepository) List(ctx context.Context, search string, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	where := ``
	args := []interface{}{}
	if search != "" {
		where = ` WHERE username LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(search)+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY username LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		var role, createdAt string
		var isSuperuser, isStaff int

		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.Bio,
			&role,
			&isSuperuser,
			&isStaff,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user.Role = domain.Role(role)
		user.IsSuperuser = isSuperuser != 0
		user.IsStaff = isStaff != 0
		user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return &repository.ListResult[domain.User]{
		Items:  users,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// boolToInt converts a boolean to an integer (SQLite has no native boolean).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
