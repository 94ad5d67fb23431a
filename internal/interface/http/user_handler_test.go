package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulisku/tulisku/internal/application"
	"github.com/tulisku/tulisku/internal/domain/apperr"
	"github.com/tulisku/tulisku/internal/domain/entity"
	repo "github.com/tulisku/tulisku/internal/domain/repository"
	"github.com/tulisku/tulisku/pkg/helpers"
)

type memUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*entity.User
	byName map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*entity.User{}, byName: map[string]*entity.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[u.Username]; exists {
		return apperr.Conflict("username already taken")
	}
	u.ID = uuid.NewString()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.byID[cp.ID] = &cp
	m.byName[cp.Username] = &cp
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

var _ repo.UserRepository = (*memUserRepo)(nil)

func newUserRouter(store repo.UserRepository) *gin.Engine {
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	svc := application.NewUserService(store, jwt, nil, nil, nil, false)
	h := NewUserHandler(svc, nil, "", false)

	r := gin.New()
	r.POST("/api/register", h.Register)
	r.POST("/api/login", h.Login)
	r.POST("/api/refresh", h.Refresh)
	return r
}

func cookieValue(rec interface{ Result() *http.Response }, name string) string {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func TestUserHandler_Register(t *testing.T) {
	t.Run("register creates the user and sets session cookies", func(t *testing.T) {
		store := newMemUserRepo()
		r := newUserRouter(store)

		rec := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
			"username":         "alice",
			"password":         "s3cretpass",
			"password_confirm": "s3cretpass",
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)

		// Auto-login: both token cookies land on the registration response.
		assert.NotEmpty(t, cookieValue(rec, "access_token"))
		assert.NotEmpty(t, cookieValue(rec, "refresh_token"))

		u, err := store.GetByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cretpass", u.Password)
	})

	t.Run("password mismatch is 400 and creates nothing", func(t *testing.T) {
		store := newMemUserRepo()
		r := newUserRouter(store)

		rec := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
			"username":         "alice",
			"password":         "s3cretpass",
			"password_confirm": "different1",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, cookieValue(rec, "access_token"))
		assert.Empty(t, store.byName)
	})

	t.Run("short password is 400 with a field detail", func(t *testing.T) {
		store := newMemUserRepo()
		r := newUserRouter(store)

		rec := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
			"username":         "alice",
			"password":         "short",
			"password_confirm": "short",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Contains(t, string(env.Error), "password")
		assert.Empty(t, store.byName)
	})

	t.Run("missing fields fail binding with 400", func(t *testing.T) {
		store := newMemUserRepo()
		r := newUserRouter(store)

		rec := doJSON(t, r, http.MethodPost, "/api/register", gin.H{"username": "alice"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, store.byName)
	})

	t.Run("duplicate username is 409", func(t *testing.T) {
		store := newMemUserRepo()
		r := newUserRouter(store)

		first := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
			"username":         "alice",
			"password":         "s3cretpass",
			"password_confirm": "s3cretpass",
		})
		require.Equal(t, http.StatusCreated, first.Code)

		second := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
			"username":         "alice",
			"password":         "otherpass1",
			"password_confirm": "otherpass1",
		})
		assert.Equal(t, http.StatusConflict, second.Code)
	})
}

func TestUserHandler_Login(t *testing.T) {
	store := newMemUserRepo()
	hash, err := helpers.HashPassword("s3cretpass")
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), &entity.User{Username: "alice", Password: hash}))
	r := newUserRouter(store)

	t.Run("valid credentials set cookies", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "s3cretpass"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, cookieValue(rec, "access_token"))
	})

	t.Run("wrong password is 401 without cookies", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "wrongpass1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, cookieValue(rec, "access_token"))
	})

	t.Run("unknown user is 401", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/login", gin.H{"username": "nobody", "password": "s3cretpass"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserHandler_Refresh(t *testing.T) {
	store := newMemUserRepo()
	r := newUserRouter(store)

	t.Run("missing cookie is 401", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/refresh", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
