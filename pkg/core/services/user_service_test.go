package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/auth"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/validation"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

func newUserFixture(t *testing.T) (*UserService, *auth.JWTManager) {
	t.Helper()
	repo := memory.NewRepository()
	issuer := auth.NewJWTManager(auth.JWTConfig{SecretKey: "test", TTL: time.Minute, Issuer: "test"})
	return NewUserService(repo, auth.NewPasswordHasher(bcrypt.MinCost), issuer, NewSequenceIDs(1000)), issuer
}

func TestRegisterThenAuthenticate(t *testing.T) {
	svc, issuer := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), user.ID)
	assert.Empty(t, user.CreatedLinks)
	assert.NotEqual(t, "Passw0rd!", user.PasswordHash)

	token, err := svc.Authenticate(ctx, "alice", "Passw0rd!")
	require.NoError(t, err)

	username, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = svc.Authenticate(ctx, "alice", "Wr0ngPass!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "Passw0rd!")
	require.NoError(t, err)

	tests := []struct {
		name       string
		username   string
		password   string
		wantFields []string
	}{
		{"taken", "alice", "Passw0rd!", []string{validation.FieldUsername}},
		{"taken and weak password", "alice", "password", []string{validation.FieldUsername, validation.FieldPassword}},
		{"too short", "abc", "Passw0rd!", []string{validation.FieldUsername}},
		{"blank", "", "", []string{validation.FieldUsername, validation.FieldPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.ByField(), len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, verr.ByField(), f)
			}
		})
	}
}

func TestRegister_Concurrent(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	var won, lost atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := svc.Register(ctx, "racer", "Passw0rd!")
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, domain.ErrValidation):
				lost.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(7), lost.Load())
}

func TestRegister_IDGeneratorFailure(t *testing.T) {
	repo := memory.NewRepository()
	failing := ports.IDGeneratorFunc(func() (int64, error) { return 0, errors.New("clock moved backwards") })
	svc := NewUserService(repo, auth.NewPasswordHasher(bcrypt.MinCost), auth.NewJWTManager(auth.JWTConfig{SecretKey: "x"}), failing)

	_, err := svc.Register(context.Background(), "alice", "Passw0rd!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrValidation)

	_, err = repo.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
