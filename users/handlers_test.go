package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
)

// stubUserService implements UserService with overridable behavior per test.
type stubUserService struct {
	getFn    func(ctx context.Context, id uuid.UUID) (*auth.User, error)
	updateFn func(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*auth.User, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
	listFn   func(ctx context.Context, skip, limit int) ([]auth.User, error)
}

func (s *stubUserService) GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*auth.User, error) {
	return s.updateFn(ctx, id, req)
}

func (s *stubUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func (s *stubUserService) ListUsers(ctx context.Context, skip, limit int) ([]auth.User, error) {
	return s.listFn(ctx, skip, limit)
}

// newRouter mounts the user routes behind a session for the given claims.
func newRouter(service UserService, subject uuid.UUID, superuser bool) http.Handler {
	h := NewUserHandlers(service)
	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				claims := &auth.Claims{Superuser: superuser}
				claims.Subject = subject.String()
				next.ServeHTTP(w, req.WithContext(auth.NewContextWithClaims(req.Context(), claims)))
			})
		})
		h.RegisterRoutes(r)
	})
	return r
}

func TestHandleGetMe(t *testing.T) {
	subject := uuid.New()
	service := &stubUserService{
		getFn: func(ctx context.Context, id uuid.UUID) (*auth.User, error) {
			assert.Equal(t, subject, id)
			return &auth.User{ID: id, Email: "a@b.com", Username: "u1", CreatedAt: time.Now()}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(service, subject, false).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/users/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, subject, got.ID)
	assert.NotContains(t, rec.Body.String(), "hashed_password")
}

func TestHandleUpdateMePartial(t *testing.T) {
	subject := uuid.New()
	service := &stubUserService{
		updateFn: func(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*auth.User, error) {
			assert.Equal(t, subject, id)
			require.NotNil(t, req.City)
			assert.Equal(t, "Lisbon", *req.City)
			assert.Nil(t, req.Email)
			return &auth.User{ID: id, City: req.City}, nil
		},
	}

	body := bytes.NewBufferString(`{"city":"Lisbon"}`)
	req := httptest.NewRequest(http.MethodPatch, "/users/me", body)
	rec := httptest.NewRecorder()
	newRouter(service, subject, false).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleUpdateMeInvalidEmail(t *testing.T) {
	service := &stubUserService{
		updateFn: func(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*auth.User, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}

	body := bytes.NewBufferString(`{"email":"not-an-email"}`)
	req := httptest.NewRequest(http.MethodPatch, "/users/me", body)
	rec := httptest.NewRecorder()
	newRouter(service, uuid.New(), false).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteMe(t *testing.T) {
	subject := uuid.New()
	var deleted uuid.UUID
	service := &stubUserService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(service, subject, false).ServeHTTP(rec,
		httptest.NewRequest(http.MethodDelete, "/users/me", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, subject, deleted)
}

func TestAdminRoutesForbiddenForPlainUsers(t *testing.T) {
	service := &stubUserService{
		listFn: func(ctx context.Context, skip, limit int) ([]auth.User, error) {
			t.Fatal("service must not be reached without superuser claims")
			return nil, nil
		},
	}
	router := newRouter(service, uuid.New(), false)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users/"},
		{http.MethodGet, "/users/" + uuid.NewString()},
		{http.MethodDelete, "/users/" + uuid.NewString()},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.method+" "+tc.path)
	}
}

func TestHandleListUsersPagination(t *testing.T) {
	var gotSkip, gotLimit int
	service := &stubUserService{
		listFn: func(ctx context.Context, skip, limit int) ([]auth.User, error) {
			gotSkip, gotLimit = skip, limit
			return []auth.User{}, nil
		},
	}
	router := newRouter(service, uuid.New(), true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/?skip=40&limit=500", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40, gotSkip)
	assert.Equal(t, maxPageSize, gotLimit)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHandleGetUserInvalidID(t *testing.T) {
	service := &stubUserService{
		getFn: func(ctx context.Context, id uuid.UUID) (*auth.User, error) {
			t.Fatal("service must not be called with an unparseable id")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(service, uuid.New(), true).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetUserNotFound(t *testing.T) {
	service := &stubUserService{
		getFn: func(ctx context.Context, id uuid.UUID) (*auth.User, error) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		},
	}

	rec := httptest.NewRecorder()
	newRouter(service, uuid.New(), true).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/users/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.ErrorType)
}
