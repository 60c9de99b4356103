package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

// memoryUsers is a map-backed UserStorage.
type memoryUsers struct {
	mu     sync.Mutex
	byUID  map[string]*models.User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byUID: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUID[user.FirebaseUID]; ok {
		return storage.ErrConflict
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.byUID[user.FirebaseUID] = &stored
	return nil
}

func (m *memoryUsers) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byUID[uid]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func newTestService(t *testing.T) (*Service, *JWTManager, *memoryUsers) {
	t.Helper()
	m := newManager(t, JWTConfig{Secret: "test-secret"})
	users := newMemoryUsers()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(m, users, logger), m, users
}

func TestLogin(t *testing.T) {
	svc, m, users := newTestService(t)
	ctx := context.Background()
	token, err := m.Generate("uid-1", "+62811")
	require.NoError(t, err)

	t.Run("UserFromToken before first login", func(t *testing.T) {
		user, err := svc.UserFromToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	first, err := svc.Login(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", first.FirebaseUID)
	assert.Equal(t, "+62811", first.PhoneNumber)

	second, err := svc.Login(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, users.byUID, 1)

	user, err := svc.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, user.ID)
}

func TestLoginInvalidToken(t *testing.T) {
	svc, _, users := newTestService(t)

	_, err := svc.Login(context.Background(), "bogus")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	assert.Empty(t, users.byUID)
}

func TestLoginConcurrentFirstSignIn(t *testing.T) {
	svc, m, users := newTestService(t)
	token, err := m.Generate("uid-race", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := svc.Login(context.Background(), token)
			if assert.NoError(t, err) {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, users.byUID, 1)
}
