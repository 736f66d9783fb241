package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
	"github.com/user/storefront-go/users"
)

type stubAdminService struct {
	listFn    func(ctx context.Context, actor *auth.User, skip, limit int) ([]auth.User, error)
	promoteFn func(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error)
	demoteFn  func(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error)
}

func (s *stubAdminService) ListAdmins(ctx context.Context, actor *auth.User, skip, limit int) ([]auth.User, error) {
	return s.listFn(ctx, actor, skip, limit)
}

func (s *stubAdminService) Promote(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error) {
	return s.promoteFn(ctx, actor, targetID)
}

func (s *stubAdminService) Demote(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error) {
	return s.demoteFn(ctx, actor, targetID)
}

// stubDirectory serves actor lookups from a fixed record.
type stubDirectory struct {
	users.UserService
	actor *auth.User
}

func (s *stubDirectory) GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if s.actor == nil || s.actor.ID != id {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	return s.actor, nil
}

func newAdminRouter(service AdminService, actor *auth.User) http.Handler {
	h := NewAdminHandlers(service, &stubDirectory{actor: actor})
	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				claims := &auth.Claims{Superuser: actor != nil && actor.IsSuperuser}
				if actor != nil {
					claims.Subject = actor.ID.String()
				} else {
					claims.Subject = uuid.NewString()
				}
				next.ServeHTTP(w, req.WithContext(auth.NewContextWithClaims(req.Context(), claims)))
			})
		})
		h.RegisterRoutes(r)
	})
	return r
}

func TestHandleAddAdminPromotes(t *testing.T) {
	actor := &auth.User{ID: uuid.New(), IsSuperuser: true}
	target := uuid.New()
	service := &stubAdminService{
		promoteFn: func(ctx context.Context, gotActor *auth.User, targetID uuid.UUID) (*auth.User, error) {
			assert.Equal(t, actor.ID, gotActor.ID)
			assert.Equal(t, target, targetID)
			granted := *actor
			return &auth.User{ID: targetID, IsSuperuser: true, AdminGrantedBy: &granted.ID}, nil
		},
	}

	body := bytes.NewBufferString(`{"user_id":"` + target.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/add", body)
	rec := httptest.NewRecorder()
	newAdminRouter(service, actor).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.IsSuperuser)
	require.NotNil(t, got.AdminGrantedBy)
	assert.Equal(t, actor.ID, *got.AdminGrantedBy)
}

func TestHandleAddAdminAlreadyAdmin(t *testing.T) {
	actor := &auth.User{ID: uuid.New(), IsSuperuser: true}
	service := &stubAdminService{
		promoteFn: func(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error) {
			return nil, apperror.NewConflictError("user is already an admin", nil)
		},
	}

	body := bytes.NewBufferString(`{"user_id":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/add", body)
	rec := httptest.NewRecorder()
	newAdminRouter(service, actor).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp.ErrorType)
}

func TestHandleAddAdminBadPayload(t *testing.T) {
	actor := &auth.User{ID: uuid.New(), IsSuperuser: true}
	service := &stubAdminService{
		promoteFn: func(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}
	router := newAdminRouter(service, actor)

	for _, body := range []string{`{}`, `{"user_id":"nope"}`, `{not json`} {
		req := httptest.NewRequest(http.MethodPost, "/admin/add", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandleRemoveAdminNotAdmin(t *testing.T) {
	actor := &auth.User{ID: uuid.New(), IsSuperuser: true}
	service := &stubAdminService{
		demoteFn: func(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error) {
			return nil, apperror.NewConflictError("user is not an admin", nil)
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/remove/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	newAdminRouter(service, actor).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlersRejectVanishedActor(t *testing.T) {
	// Claims are valid but the stored record is gone.
	service := &stubAdminService{
		listFn: func(ctx context.Context, actor *auth.User, skip, limit int) ([]auth.User, error) {
			t.Fatal("service must not be called without a stored actor record")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/list", nil)
	rec := httptest.NewRecorder()
	newAdminRouter(service, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
