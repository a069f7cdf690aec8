package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/service"
)

// UserHandler serves user administration and the /users/me profile.
type UserHandler struct {
	users  *service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With().Str("handler", "user").Logger(),
	}
}

// RegisterRoutes registers the user routes. The "me" segment is claimed
// by the profile endpoints before the wildcard username routes, which is
// also why "me" can never be an account name.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)

		r.Get("/me", h.getProfile)
		r.Patch("/me", h.updateProfile)

		r.Get("/{username}", h.get)
		r.Patch("/{username}", h.update)
		r.Delete("/{username}", h.delete)
	})
}

type createUserRequest struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

type updateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

type updateProfileRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// list handles GET /users.
func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	opts := pagination(r)

	result, err := h.users.ListUsers(r.Context(), actor, service.ListUsersInput{
		Search: queryString(r, "search"),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]userResponse, 0, len(result.Items))
	for _, u := range result.Items {
		items = append(items, toUserResponse(u))
	}
	writePage(w, r, result, items)
}

// create handles POST /users.
func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), actor, service.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// get handles GET /users/{username}.
func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	user, err := h.users.GetUser(r.Context(), actor, chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// update handles PATCH /users/{username}.
func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), actor, chi.URLParam(r, "username"), service.UpdateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// delete handles DELETE /users/{username}.
func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	if err := h.users.DeleteUser(r.Context(), actor, chi.URLParam(r, "username")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getProfile handles GET /users/me.
func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	user, err := h.users.GetProfile(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// updateProfile handles PATCH /users/me. The role is read-only here no
// matter what the body says.
func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), actor, service.UpdateProfileInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
