package service

import (
	"context"
	"sort"
	"strings"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[string]*domain.User
	nextID    int64
	createErr error
	getErr    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[string]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Username]; exists {
		return domain.ErrUsernameTaken
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, exists := m.users[username]; exists {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	stored, exists := m.users[user.Username]
	if !exists {
		return domain.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	*stored = *user
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, username string) error {
	if _, exists := m.users[username]; !exists {
		return domain.ErrUserNotFound
	}
	delete(m.users, username)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, search string, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	var matched []*domain.User
	for _, u := range m.users {
		if search == "" || strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			copied := *u
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	return paginate(matched, opts), nil
}

// MockCategoryRepository is a mock implementation of repository.CategoryRepository.
type MockCategoryRepository struct {
	categories map[string]*domain.Category
	nextID     int64
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[string]*domain.Category),
		nextID:     1,
	}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if _, exists := m.categories[category.Slug]; exists {
		return domain.ErrSlugTaken
	}
	category.ID = m.nextID
	m.nextID++
	m.categories[category.Slug] = category
	return nil
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	if c, exists := m.categories[slug]; exists {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	if _, exists := m.categories[slug]; !exists {
		return domain.ErrCategoryNotFound
	}
	delete(m.categories, slug)
	return nil
}

func (m *MockCategoryRepository) List(ctx context.Context, search string, opts repository.ListOptions) (*repository.ListResult[domain.Category], error) {
	var matched []*domain.Category
	for _, c := range m.categories {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			copied := *c
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Slug < matched[j].Slug })
	return paginate(matched, opts), nil
}

// MockGenreRepository is a mock implementation of repository.GenreRepository.
type MockGenreRepository struct {
	genres map[string]*domain.Genre
	nextID int64
}

func NewMockGenreRepository() *MockGenreRepository {
	return &MockGenreRepository{
		genres: make(map[string]*domain.Genre),
		nextID: 1,
	}
}

func (m *MockGenreRepository) Create(ctx context.Context, genre *domain.Genre) error {
	if _, exists := m.genres[genre.Slug]; exists {
		return domain.ErrSlugTaken
	}
	genre.ID = m.nextID
	m.nextID++
	m.genres[genre.Slug] = genre
	return nil
}

func (m *MockGenreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	if g, exists := m.genres[slug]; exists {
		copied := *g
		return &copied, nil
	}
	return nil, domain.ErrGenreNotFound
}

func (m *MockGenreRepository) GetBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error) {
	result := make([]domain.Genre, 0, len(slugs))
	for _, slug := range slugs {
		g, exists := m.genres[slug]
		if !exists {
			return nil, domain.ErrGenreNotFound
		}
		result = append(result, *g)
	}
	return result, nil
}

func (m *MockGenreRepository) DeleteBySlug(ctx context.Context, slug string) error {
	if _, exists := m.genres[slug]; !exists {
		return domain.ErrGenreNotFound
	}
	delete(m.genres, slug)
	return nil
}

func (m *MockGenreRepository) List(ctx context.Context, search string, opts repository.ListOptions) (*repository.ListResult[domain.Genre], error) {
	var matched []*domain.Genre
	for _, g := range m.genres {
		if search == "" || strings.Contains(strings.ToLower(g.Name), strings.ToLower(search)) {
			copied := *g
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Slug < matched[j].Slug })
	return paginate(matched, opts), nil
}

// MockTitleRepository is a mock implementation of repository.TitleRepository.
type MockTitleRepository struct {
	titles map[int64]*domain.Title
	nextID int64
}

func NewMockTitleRepository() *MockTitleRepository {
	return &MockTitleRepository{
		titles: make(map[int64]*domain.Title),
		nextID: 1,
	}
}

func (m *MockTitleRepository) Create(ctx context.Context, title *domain.Title, genreIDs []int64) error {
	title.ID = m.nextID
	m.nextID++
	copied := *title
	m.titles[title.ID] = &copied
	return nil
}

func (m *MockTitleRepository) GetByID(ctx context.Context, id int64) (*domain.Title, error) {
	if t, exists := m.titles[id]; exists {
		copied := *t
		return &copied, nil
	}
	return nil, domain.ErrTitleNotFound
}

func (m *MockTitleRepository) Update(ctx context.Context, title *domain.Title, genreIDs []int64, replaceGenres bool) error {
	if _, exists := m.titles[title.ID]; !exists {
		return domain.ErrTitleNotFound
	}
	copied := *title
	m.titles[title.ID] = &copied
	return nil
}

func (m *MockTitleRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.titles[id]; !exists {
		return domain.ErrTitleNotFound
	}
	delete(m.titles, id)
	return nil
}

func (m *MockTitleRepository) List(ctx context.Context, filter repository.TitleFilter, opts repository.ListOptions) (*repository.ListResult[domain.Title], error) {
	var matched []*domain.Title
	for _, t := range m.titles {
		if filter.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Year != nil && t.Year != *filter.Year {
			continue
		}
		if filter.CategorySlug != "" && (t.Category == nil || t.Category.Slug != filter.CategorySlug) {
			continue
		}
		if filter.GenreSlug != "" {
			found := false
			for _, g := range t.Genres {
				if g.Slug == filter.GenreSlug {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		copied := *t
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, opts), nil
}

// MockReviewRepository is a mock implementation of repository.ReviewRepository.
type MockReviewRepository struct {
	reviews map[int64]*domain.Review
	nextID  int64
}

func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews: make(map[int64]*domain.Review),
		nextID:  1,
	}
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	for _, r := range m.reviews {
		if r.TitleID == review.TitleID && r.AuthorID == review.AuthorID {
			return domain.ErrReviewExists
		}
	}
	review.ID = m.nextID
	m.nextID++
	copied := *review
	m.reviews[review.ID] = &copied
	return nil
}

func (m *MockReviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*domain.Review, error) {
	if r, exists := m.reviews[reviewID]; exists && r.TitleID == titleID {
		copied := *r
		return &copied, nil
	}
	return nil, domain.ErrReviewNotFound
}

func (m *MockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	stored, exists := m.reviews[review.ID]
	if !exists {
		return domain.ErrReviewNotFound
	}
	stored.Text = review.Text
	stored.Score = review.Score
	return nil
}

func (m *MockReviewRepository) Delete(ctx context.Context, titleID, reviewID int64) error {
	if r, exists := m.reviews[reviewID]; exists && r.TitleID == titleID {
		delete(m.reviews, reviewID)
		return nil
	}
	return domain.ErrReviewNotFound
}

func (m *MockReviewRepository) ListByTitle(ctx context.Context, titleID int64, opts repository.ListOptions) (*repository.ListResult[domain.Review], error) {
	var matched []*domain.Review
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			copied := *r
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PubDate.Equal(matched[j].PubDate) {
			return matched[i].PubDate.After(matched[j].PubDate)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, opts), nil
}

// MockCommentRepository is a mock implementation of repository.CommentRepository.
type MockCommentRepository struct {
	comments map[int64]*domain.Comment
	nextID   int64
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		comments: make(map[int64]*domain.Comment),
		nextID:   1,
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.ID = m.nextID
	m.nextID++
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, reviewID, commentID int64) (*domain.Comment, error) {
	if c, exists := m.comments[commentID]; exists && c.ReviewID == reviewID {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrCommentNotFound
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	stored, exists := m.comments[comment.ID]
	if !exists {
		return domain.ErrCommentNotFound
	}
	stored.Text = comment.Text
	return nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, reviewID, commentID int64) error {
	if c, exists := m.comments[commentID]; exists && c.ReviewID == reviewID {
		delete(m.comments, commentID)
		return nil
	}
	return domain.ErrCommentNotFound
}

func (m *MockCommentRepository) ListByReview(ctx context.Context, reviewID int64, opts repository.ListOptions) (*repository.ListResult[domain.Comment], error) {
	var matched []*domain.Comment
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			copied := *c
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PubDate.Equal(matched[j].PubDate) {
			return matched[i].PubDate.Before(matched[j].PubDate)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, opts), nil
}

// MockMailSender records sent confirmation emails.
type MockMailSender struct {
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	to       string
	username string
	code     string
}

func (m *MockMailSender) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, username: username, code: code})
	return nil
}

// paginate slices a sorted result set the way the real repositories do.
func paginate[T any](items []*T, opts repository.ListOptions) *repository.ListResult[T] {
	total := int64(len(items))
	start := opts.Offset
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return &repository.ListResult[T]{
		Items:  items[start:end],
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}
}
