package postgres

import (
	"context"
	"fmt"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, first_name, last_name, bio, role, is_superuser, is_staff, created_at`

// Create creates a new user, relying on the unique indexes for the
// username/email races.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, bio, role, is_superuser, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		string(user.Role),
		user.IsSuperuser,
		user.IsStaff,
		user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return fmt.Errorf("%w: %q", domain.ErrUsernameTaken, user.Username)
		case isUniqueViolation(err, "users_email_key"):
			return fmt.Errorf("%w: %q", domain.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user := &domain.User{}
	var role string

	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Bio,
		&role,
		&user.IsSuperuser,
		&user.IsStaff,
		&user.CreatedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.Role(role)
	return user, nil
}

// Update updates an existing user.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, first_name = $3, last_name = $4, bio = $5, role = $6, is_superuser = $7, is_staff = $8
		WHERE id = $9
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		string(user.Role),
		user.IsSuperuser,
		user.IsStaff,
		user.ID,
	)

	if err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return fmt.Errorf("%w: %q", domain.ErrUsernameTaken, user.Username)
		case isUniqueViolation(err, "users_email_key"):
			return fmt.Errorf("%w: %q", domain.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// Delete deletes a user by username.
func (r *userRepository) Delete(ctx context.Context, username string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// List returns users ordered by username with pagination.
func (r *userRepository) List(ctx context.Context, search string, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	where := ``
	args := []interface{}{}
	if search != "" {
		where = ` WHERE username ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(search)+"%")
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+userColumns+` FROM users`+where+` ORDER BY username LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		var role string
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.Bio,
			&role,
			&user.IsSuperuser,
			&user.IsStaff,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = domain.Role(role)
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

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
