package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

type catalogFixture struct {
	svc        *CatalogService
	categories *MockCategoryRepository
	genres     *MockGenreRepository
	titles     *MockTitleRepository
	admin      *domain.User
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	f := &catalogFixture{
		categories: NewMockCategoryRepository(),
		genres:     NewMockGenreRepository(),
		titles:     NewMockTitleRepository(),
		admin:      &domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin},
	}
	f.svc = NewCatalogService(f.categories, f.genres, f.titles, auth.Policy{}, zerolog.Nop())
	return f
}

func (f *catalogFixture) seedClassifiers(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.CreateCategory(ctx, f.admin, ClassifierInput{Name: "Books", Slug: "books"})
	require.NoError(t, err)
	_, err = f.svc.CreateGenre(ctx, f.admin, ClassifierInput{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)
	_, err = f.svc.CreateGenre(ctx, f.admin, ClassifierInput{Name: "Comedy", Slug: "comedy"})
	require.NoError(t, err)
}

func TestCatalogService_CreateCategory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.svc.CreateCategory(ctx, f.admin, ClassifierInput{Name: "Books", Slug: "books"})
	require.NoError(t, err)
	assert.Equal(t, "books", category.Slug)

	// Duplicate slug.
	_, err = f.svc.CreateCategory(ctx, f.admin, ClassifierInput{Name: "Other books", Slug: "books"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	// Bad slug.
	_, err = f.svc.CreateCategory(ctx, f.admin, ClassifierInput{Name: "Films", Slug: "films!"})
	assert.ErrorIs(t, err, domain.ErrInvalidSlug)
}

func TestCatalogService_WritesRequireAdmin(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	regular := &domain.User{ID: 2, Username: "bob", Role: domain.RoleUser}
	moderator := &domain.User{ID: 3, Username: "mod", Role: domain.RoleModerator}

	_, err := f.svc.CreateCategory(ctx, regular, ClassifierInput{Name: "Books", Slug: "books"})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.CreateGenre(ctx, moderator, ClassifierInput{Name: "Drama", Slug: "drama"})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	assert.ErrorIs(t, f.svc.DeleteCategory(ctx, nil, "books"), domain.ErrNotAuthenticated)
}

func TestCatalogService_CreateTitle(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedClassifiers(t)
	ctx := context.Background()

	title, err := f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name:         "War and Peace",
		Year:         1869,
		CategorySlug: "books",
		GenreSlugs:   []string{"drama", "comedy"},
	})
	require.NoError(t, err)
	require.NotNil(t, title.Category)
	assert.Equal(t, "books", title.Category.Slug)
	require.Len(t, title.Genres, 2)
	assert.Nil(t, title.Rating)
}

func TestCatalogService_CreateTitleRejectsFutureYear(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedClassifiers(t)

	_, err := f.svc.CreateTitle(context.Background(), f.admin, CreateTitleInput{
		Name:         "Prophecy",
		Year:         time.Now().Year() + 1,
		CategorySlug: "books",
		GenreSlugs:   []string{"drama"},
	})
	assert.ErrorIs(t, err, domain.ErrYearInFuture)
}

func TestCatalogService_CreateTitleRejectsUnknownSlugs(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedClassifiers(t)
	ctx := context.Background()

	_, err := f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name:         "Mystery",
		Year:         2000,
		CategorySlug: "missing",
		GenreSlugs:   []string{"drama"},
	})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "category", domainErr.Field)

	_, err = f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name:         "Mystery",
		Year:         2000,
		CategorySlug: "books",
		GenreSlugs:   []string{"missing"},
	})
	assert.ErrorIs(t, err, domain.ErrGenreNotFound)
}

func TestCatalogService_UpdateTitleReplacesGenres(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedClassifiers(t)
	ctx := context.Background()

	title, err := f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name:         "War and Peace",
		Year:         1869,
		CategorySlug: "books",
		GenreSlugs:   []string{"drama", "comedy"},
	})
	require.NoError(t, err)

	newGenres := []string{"comedy"}
	updated, err := f.svc.UpdateTitle(ctx, f.admin, title.ID, UpdateTitleInput{GenreSlugs: &newGenres})
	require.NoError(t, err)

	// The set is replaced wholesale, not appended to.
	require.Len(t, updated.Genres, 1)
	assert.Equal(t, "comedy", updated.Genres[0].Slug)
}

func TestCatalogService_UpdateTitlePartial(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedClassifiers(t)
	ctx := context.Background()

	title, err := f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name:         "War and Peace",
		Year:         1869,
		CategorySlug: "books",
		GenreSlugs:   []string{"drama"},
	})
	require.NoError(t, err)

	name := "War and Peace, Volume I"
	updated, err := f.svc.UpdateTitle(ctx, f.admin, title.ID, UpdateTitleInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 1869, updated.Year)
	require.Len(t, updated.Genres, 1)
}

func TestCatalogService_DeleteTitle(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedClassifiers(t)
	ctx := context.Background()

	title, err := f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name:         "War and Peace",
		Year:         1869,
		CategorySlug: "books",
		GenreSlugs:   []string{"drama"},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTitle(ctx, f.admin, title.ID))
	assert.ErrorIs(t, f.svc.DeleteTitle(ctx, f.admin, title.ID), domain.ErrTitleNotFound)

	_, err = f.svc.GetTitle(ctx, title.ID)
	assert.ErrorIs(t, err, domain.ErrTitleNotFound)
}

func TestCatalogService_ListTitlesFilters(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedClassifiers(t)
	ctx := context.Background()

	_, err := f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name: "War and Peace", Year: 1869, CategorySlug: "books", GenreSlugs: []string{"drama"},
	})
	require.NoError(t, err)
	_, err = f.svc.CreateTitle(ctx, f.admin, CreateTitleInput{
		Name: "Twelfth Night", Year: 1602, CategorySlug: "books", GenreSlugs: []string{"comedy"},
	})
	require.NoError(t, err)

	result, err := f.svc.ListTitles(ctx, TitleListInput{GenreSlug: "comedy", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Twelfth Night", result.Items[0].Name)

	year := 1869
	result, err = f.svc.ListTitles(ctx, TitleListInput{Year: &year, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "War and Peace", result.Items[0].Name)
}
