package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// CatalogService handles categories, genres and titles. Reads are open
// to everyone; writes require catalog administration rights.
type CatalogService struct {
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	titleRepo    repository.TitleRepository
	policy       auth.Policy
	logger       zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
	titleRepo repository.TitleRepository,
	policy auth.Policy,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		titleRepo:    titleRepo,
		policy:       policy,
		logger:       logger.With().Str("service", "catalog").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// ClassifierInput contains the data for a new category or genre.
type ClassifierInput struct {
	Name string
	Slug string
}

// ListInput contains the shared list filters for classifiers.
type ListInput struct {
	Search string
	Limit  int
	Offset int
}

// CreateTitleInput contains the data for a new title.
type CreateTitleInput struct {
	Name         string
	Year         int
	Description  *string
	CategorySlug string
	GenreSlugs   []string
}

// UpdateTitleInput contains partial title changes. Nil fields are left
// untouched; a non-nil GenreSlugs replaces the whole genre set.
type UpdateTitleInput struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   *[]string
}

// TitleListInput contains title list filters.
type TitleListInput struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
	Limit        int
	Offset       int
}

// =============================================================================
// Categories
// =============================================================================

// CreateCategory creates a category. Admin only.
func (s *CatalogService) CreateCategory(ctx context.Context, actor *domain.User, input ClassifierInput) (*domain.Category, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanWriteCatalog(actor) {
		return nil, domain.ErrAccessDenied
	}
	if err := validateClassifier(input); err != nil {
		return nil, err
	}

	category := &domain.Category{Name: input.Name, Slug: input.Slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			return nil, domain.NewDomainError(domain.ErrSlugTaken, input.Slug, "slug")
		}
		s.logger.Error().Err(err).Str("slug", input.Slug).Msg("failed to create category")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("slug", category.Slug).Msg("category created")

	return category, nil
}

// ListCategories returns categories ordered by slug.
func (s *CatalogService) ListCategories(ctx context.Context, input ListInput) (*repository.ListResult[domain.Category], error) {
	result, err := s.categoryRepo.List(ctx, input.Search, repository.ListOptions{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return result, nil
}

// DeleteCategory deletes a category. Titles referencing it keep existing
// with their category cleared. Admin only.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *domain.User, slug string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if !s.policy.CanWriteCatalog(actor) {
		return domain.ErrAccessDenied
	}

	if err := s.categoryRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return domain.ErrCategoryNotFound
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to delete category")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("slug", slug).Msg("category deleted")

	return nil
}

// =============================================================================
// Genres
// =============================================================================

// CreateGenre creates a genre. Admin only.
func (s *CatalogService) CreateGenre(ctx context.Context, actor *domain.User, input ClassifierInput) (*domain.Genre, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanWriteCatalog(actor) {
		return nil, domain.ErrAccessDenied
	}
	if err := validateClassifier(input); err != nil {
		return nil, err
	}

	genre := &domain.Genre{Name: input.Name, Slug: input.Slug}
	if err := s.genreRepo.Create(ctx, genre); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			return nil, domain.NewDomainError(domain.ErrSlugTaken, input.Slug, "slug")
		}
		s.logger.Error().Err(err).Str("slug", input.Slug).Msg("failed to create genre")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("slug", genre.Slug).Msg("genre created")

	return genre, nil
}

// ListGenres returns genres ordered by slug.
func (s *CatalogService) ListGenres(ctx context.Context, input ListInput) (*repository.ListResult[domain.Genre], error) {
	result, err := s.genreRepo.List(ctx, input.Search, repository.ListOptions{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list genres")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return result, nil
}

// DeleteGenre deletes a genre along with its title associations. Admin only.
func (s *CatalogService) DeleteGenre(ctx context.Context, actor *domain.User, slug string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if !s.policy.CanWriteCatalog(actor) {
		return domain.ErrAccessDenied
	}

	if err := s.genreRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, domain.ErrGenreNotFound) {
			return domain.ErrGenreNotFound
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to delete genre")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("slug", slug).Msg("genre deleted")

	return nil
}

// =============================================================================
// Titles
// =============================================================================

// CreateTitle creates a title with its classifications. Admin only.
func (s *CatalogService) CreateTitle(ctx context.Context, actor *domain.User, input CreateTitleInput) (*domain.Title, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanWriteCatalog(actor) {
		return nil, domain.ErrAccessDenied
	}

	if err := domain.ValidateName(input.Name); err != nil {
		return nil, domain.NewDomainError(err, input.Name, "name")
	}
	if err := domain.ValidateYear(input.Year); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, input.CategorySlug)
	if err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(ctx, input.GenreSlugs)
	if err != nil {
		return nil, err
	}

	title := &domain.Title{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
		Category:    category,
		Genres:      genres,
	}

	if err := s.titleRepo.Create(ctx, title, genreIDs(genres)); err != nil {
		s.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create title")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("title_id", title.ID).Str("name", title.Name).Msg("title created")

	return title, nil
}

// GetTitle retrieves a title with its derived rating.
func (s *CatalogService) GetTitle(ctx context.Context, id int64) (*domain.Title, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTitleNotFound) {
			return nil, domain.ErrTitleNotFound
		}
		s.logger.Error().Err(err).Int64("title_id", id).Msg("failed to get title")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return title, nil
}

// ListTitles returns titles matching the filters, ratings included.
func (s *CatalogService) ListTitles(ctx context.Context, input TitleListInput) (*repository.ListResult[domain.Title], error) {
	filter := repository.TitleFilter{
		CategorySlug: input.CategorySlug,
		GenreSlug:    input.GenreSlug,
		Name:         input.Name,
		Year:         input.Year,
	}

	result, err := s.titleRepo.List(ctx, filter, repository.ListOptions{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list titles")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return result, nil
}

// UpdateTitle applies a partial title change. Admin only.
func (s *CatalogService) UpdateTitle(ctx context.Context, actor *domain.User, id int64, input UpdateTitleInput) (*domain.Title, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.policy.CanWriteCatalog(actor) {
		return nil, domain.ErrAccessDenied
	}

	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTitleNotFound) {
			return nil, domain.ErrTitleNotFound
		}
		s.logger.Error().Err(err).Int64("title_id", id).Msg("failed to get title")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Name != nil {
		if err := domain.ValidateName(*input.Name); err != nil {
			return nil, domain.NewDomainError(err, *input.Name, "name")
		}
		title.Name = *input.Name
	}
	if input.Year != nil {
		if err := domain.ValidateYear(*input.Year); err != nil {
			return nil, err
		}
		title.Year = *input.Year
	}
	if input.Description != nil {
		title.Description = input.Description
	}
	if input.CategorySlug != nil {
		category, err := s.resolveCategory(ctx, *input.CategorySlug)
		if err != nil {
			return nil, err
		}
		title.Category = category
	}

	var ids []int64
	replaceGenres := false
	if input.GenreSlugs != nil {
		genres, err := s.resolveGenres(ctx, *input.GenreSlugs)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
		ids = genreIDs(genres)
		replaceGenres = true
	}

	if err := s.titleRepo.Update(ctx, title, ids, replaceGenres); err != nil {
		if errors.Is(err, domain.ErrTitleNotFound) {
			return nil, domain.ErrTitleNotFound
		}
		s.logger.Error().Err(err).Int64("title_id", id).Msg("failed to update title")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("title_id", id).Msg("title updated")

	return title, nil
}

// DeleteTitle deletes a title and its reviews. Admin only.
func (s *CatalogService) DeleteTitle(ctx context.Context, actor *domain.User, id int64) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if !s.policy.CanWriteCatalog(actor) {
		return domain.ErrAccessDenied
	}

	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTitleNotFound) {
			return domain.ErrTitleNotFound
		}
		s.logger.Error().Err(err).Int64("title_id", id).Msg("failed to delete title")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("title_id", id).Msg("title deleted")

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// validateClassifier checks the shared name/slug rules.
func validateClassifier(input ClassifierInput) error {
	if err := domain.ValidateName(input.Name); err != nil {
		return domain.NewDomainError(err, input.Name, "name")
	}
	if err := domain.ValidateSlug(input.Slug); err != nil {
		return domain.NewDomainError(err, input.Slug, "slug")
	}
	return nil
}

// resolveCategory resolves a category slug supplied in a title write.
// An unknown slug is a validation problem with the request body, not a
// missing resource, hence the field-tagged error.
func (s *CatalogService) resolveCategory(ctx context.Context, slug string) (*domain.Category, error) {
	if slug == "" {
		return nil, domain.NewDomainError(domain.ErrCategoryNotFound, "category is required", "category")
	}

	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.NewDomainError(domain.ErrCategoryNotFound, slug, "category")
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to resolve category")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return category, nil
}

// resolveGenres resolves the genre slug set supplied in a title write.
func (s *CatalogService) resolveGenres(ctx context.Context, slugs []string) ([]domain.Genre, error) {
	if len(slugs) == 0 {
		return nil, domain.NewDomainError(domain.ErrGenreNotFound, "at least one genre is required", "genre")
	}

	genres, err := s.genreRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		if errors.Is(err, domain.ErrGenreNotFound) {
			return nil, domain.NewDomainError(domain.ErrGenreNotFound, err.Error(), "genre")
		}
		s.logger.Error().Err(err).Strs("slugs", slugs).Msg("failed to resolve genres")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return genres, nil
}

// genreIDs extracts the IDs from a resolved genre set.
func genreIDs(genres []domain.Genre) []int64 {
	ids := make([]int64, len(genres))
	for i, g := range genres {
		ids[i] = g.ID
	}
	return ids
}
