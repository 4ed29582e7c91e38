package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/vidmill/videos-ms-go/internal/api_context"
	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

func WithVideoID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if id == "" {
				WriteError(w, http.StatusBadRequest, "ID is required", nil)
				return
			}
			parsedID, err := uuid.Parse(id)
			if err != nil {
				WriteError(w, http.StatusBadRequest, fmt.Sprintf("ID %q is not a valid UUID", id), nil)
				return
			}

			// stash it in context and call the real handler
			ctx := api_context.WithID(r.Context(), db.UUID(parsedID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithJWTAuth authenticates the request and stores the resulting caller in
// the context. An empty secret disables auth entirely: every request runs as
// an anonymous admin, which keeps local development usable without a token
// issuer.
func WithJWTAuth(secret string) func(http.Handler) http.Handler {
	if secret == "" {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := api_context.WithCaller(r.Context(), model.Caller{Role: model.RoleAdmin})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}
			tokenStr := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			caller, err := callerFromClaims(claims)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", err)
				return
			}

			ctx := api_context.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerFromClaims(claims jwt.MapClaims) (model.Caller, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return model.Caller{}, fmt.Errorf("missing sub claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return model.Caller{}, fmt.Errorf("sub claim is not a valid UUID: %w", err)
	}

	role := model.RoleReader
	if r, ok := claims["role"].(string); ok && r != "" {
		switch model.Role(r) {
		case model.RoleReader, model.RoleEditor, model.RoleAdmin:
			role = model.Role(r)
		default:
			return model.Caller{}, fmt.Errorf("unknown role %q", r)
		}
	}

	return model.Caller{ID: db.UUID(id), Role: role}, nil
}
