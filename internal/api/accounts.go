package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"house-price-backend/internal/auth"
	"house-price-backend/internal/database"
	"house-price-backend/pkg/api"
)

func convertUser(user database.User) api.User {
	return api.User{
		Id:        user.Id,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func (s *BackendService) Register(r *http.Request) (any, error) {
	req, err := ParseForm[api.RegisterRequest](r)
	if err != nil {
		return nil, err
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = database.NormalizeEmail(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "all fields are required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	user, err := database.CreateUser(r.Context(), s.db, req.FirstName, req.LastName, req.Email, hash)
	if err != nil {
		if errors.Is(err, database.ErrEmailExists) {
			return nil, CodedError(http.StatusConflict, err)
		}
		slog.Error("error creating user", "email", req.Email, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create user")
	}

	slog.Info("registered user", "user_id", user.Id)

	return convertUser(user), nil
}

func (s *BackendService) Login(w http.ResponseWriter, r *http.Request) (any, error) {
	req, err := ParseForm[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "email and password are required")
	}

	user, err := database.GetUserByEmail(r.Context(), s.db, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, CodedError(http.StatusUnauthorized, auth.ErrInvalidCredentials)
		}
		slog.Error("error looking up user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to look up user")
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		slog.Info("rejected login", "user_id", user.Id)
		return nil, CodedError(http.StatusUnauthorized, err)
	}

	if err := s.sessions.Start(w, user.Id); err != nil {
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	return convertUser(user), nil
}

func (s *BackendService) Logout(w http.ResponseWriter, r *http.Request) (any, error) {
	s.sessions.End(w)
	return api.MessageResponse{Message: "logged out"}, nil
}

func (s *BackendService) CurrentUser(r *http.Request) (any, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "authentication required")
	}

	user, err := database.GetUser(r.Context(), s.db, identity.UserId)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, CodedErrorf(http.StatusUnauthorized, "authentication required")
		}
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	return convertUser(user), nil
}
