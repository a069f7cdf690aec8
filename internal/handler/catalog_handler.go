package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/service"
)

// CatalogHandler serves categories, genres and titles.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// RegisterRoutes registers the catalog routes. Classifiers have no
// detail GET and no update: they are created, listed and deleted whole.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Delete("/{slug}", h.deleteCategory)
	})

	r.Route("/genres", func(r chi.Router) {
		r.Get("/", h.listGenres)
		r.Post("/", h.createGenre)
		r.Delete("/{slug}", h.deleteGenre)
	})

	r.Route("/titles", func(r chi.Router) {
		r.Get("/", h.listTitles)
		r.Post("/", h.createTitle)
		r.Get("/{titleID}", h.getTitle)
		r.Patch("/{titleID}", h.updateTitle)
		r.Delete("/{titleID}", h.deleteTitle)
	})
}

type classifierRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

type createTitleRequest struct {
	Name     string   `json:"name" validate:"required"`
	Year     int      `json:"year" validate:"required"`
	Desc     *string  `json:"description"`
	Genre    []string `json:"genre" validate:"required,min=1"`
	Category string   `json:"category" validate:"required"`
}

type updateTitleRequest struct {
	Name     *string   `json:"name"`
	Year     *int      `json:"year"`
	Desc     *string   `json:"description"`
	Genre    *[]string `json:"genre"`
	Category *string   `json:"category"`
}

// =============================================================================
// Categories
// =============================================================================

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	opts := pagination(r)
	result, err := h.catalog.ListCategories(r.Context(), service.ListInput{
		Search: queryString(r, "search"),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]classifierResponse, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, classifierResponse{Name: c.Name, Slug: c.Slug})
	}
	writePage(w, r, result, items)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var req classifierRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), actor, service.ClassifierInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, classifierResponse{Name: category.Name, Slug: category.Slug})
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	if err := h.catalog.DeleteCategory(r.Context(), actor, chi.URLParam(r, "slug")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Genres
// =============================================================================

func (h *CatalogHandler) listGenres(w http.ResponseWriter, r *http.Request) {
	opts := pagination(r)
	result, err := h.catalog.ListGenres(r.Context(), service.ListInput{
		Search: queryString(r, "search"),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]classifierResponse, 0, len(result.Items))
	for _, g := range result.Items {
		items = append(items, classifierResponse{Name: g.Name, Slug: g.Slug})
	}
	writePage(w, r, result, items)
}

func (h *CatalogHandler) createGenre(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var req classifierRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	genre, err := h.catalog.CreateGenre(r.Context(), actor, service.ClassifierInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, classifierResponse{Name: genre.Name, Slug: genre.Slug})
}

func (h *CatalogHandler) deleteGenre(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	if err := h.catalog.DeleteGenre(r.Context(), actor, chi.URLParam(r, "slug")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Titles
// =============================================================================

func (h *CatalogHandler) listTitles(w http.ResponseWriter, r *http.Request) {
	opts := pagination(r)

	input := service.TitleListInput{
		CategorySlug: queryString(r, "category"),
		GenreSlug:    queryString(r, "genre"),
		Name:         queryString(r, "name"),
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	}
	if raw := queryString(r, "year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeFieldErrors(w, fieldErrors{"year": {"must be an integer"}})
			return
		}
		input.Year = &year
	}

	result, err := h.catalog.ListTitles(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]titleResponse, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, toTitleResponse(t))
	}
	writePage(w, r, result, items)
}

func (h *CatalogHandler) createTitle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var req createTitleRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	title, err := h.catalog.CreateTitle(r.Context(), actor, service.CreateTitleInput{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Desc,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTitleResponse(title))
}

func (h *CatalogHandler) getTitle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "titleID"))
	if err != nil {
		writeDomainError(w, domain.ErrTitleNotFound)
		return
	}

	title, err := h.catalog.GetTitle(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTitleResponse(title))
}

func (h *CatalogHandler) updateTitle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	id, err := pathID(chi.URLParam(r, "titleID"))
	if err != nil {
		writeDomainError(w, domain.ErrTitleNotFound)
		return
	}

	var req updateTitleRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	title, err := h.catalog.UpdateTitle(r.Context(), actor, id, service.UpdateTitleInput{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Desc,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTitleResponse(title))
}

func (h *CatalogHandler) deleteTitle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	id, err := pathID(chi.URLParam(r, "titleID"))
	if err != nil {
		writeDomainError(w, domain.ErrTitleNotFound)
		return
	}

	if err := h.catalog.DeleteTitle(r.Context(), actor, id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
