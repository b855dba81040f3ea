package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	jwtGo "github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/services/auth/mocks"
	"github.com/voting-app/votingapp/internal/storage"
)

var testSecret = []byte("test-secret")

func newTestAuth(us *mocks.MockUserSaver, up *mocks.MockUserProvider) *Auth {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuth(log, us, up, testSecret, 24*time.Hour)
}

func mustHash(s string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func TestAuth_Register_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	us := mocks.NewMockUserSaver(ctrl)
	up := mocks.NewMockUserProvider(ctrl)

	up.EXPECT().EmailExists(gomock.Any(), "a@x.com").Return(false, nil)
	up.EXPECT().UserExists(gomock.Any(), "alice").Return(false, nil)
	us.EXPECT().SaveUser(gomock.Any(), "alice", "a@x.com", gomock.Any()).Return(int64(1), nil)

	authTest := newTestAuth(us, up)

	token, err := authTest.Register(context.Background(), "alice", "a@x.com", "p1", "p1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwtGo.Parse(token, func(token *jwtGo.Token) (interface{}, error) {
		return testSecret, nil
	})
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwtGo.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "alice", claims["sub"])
}

func TestAuth_Register_EmailExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	up.EXPECT().EmailExists(gomock.Any(), "a@x.com").Return(true, nil)

	authTest := newTestAuth(nil, up)

	_, err := authTest.Register(context.Background(), "alice", "a@x.com", "p1", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuth_Register_UsernameExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	up.EXPECT().EmailExists(gomock.Any(), "a@x.com").Return(false, nil)
	up.EXPECT().UserExists(gomock.Any(), "alice").Return(true, nil)

	authTest := newTestAuth(nil, up)

	_, err := authTest.Register(context.Background(), "alice", "a@x.com", "p1", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestAuth_Register_PasswordMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	up.EXPECT().EmailExists(gomock.Any(), "a@x.com").Return(false, nil)
	up.EXPECT().UserExists(gomock.Any(), "alice").Return(false, nil)

	authTest := newTestAuth(nil, up)

	_, err := authTest.Register(context.Background(), "alice", "a@x.com", "p1", "p2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestAuth_Register_SaveRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	us := mocks.NewMockUserSaver(ctrl)
	up := mocks.NewMockUserProvider(ctrl)

	up.EXPECT().EmailExists(gomock.Any(), "a@x.com").Return(false, nil)
	up.EXPECT().UserExists(gomock.Any(), "alice").Return(false, nil)
	us.EXPECT().SaveUser(gomock.Any(), "alice", "a@x.com", gomock.Any()).Return(int64(0), storage.ErrEmailExists)

	authTest := newTestAuth(us, up)

	_, err := authTest.Register(context.Background(), "alice", "a@x.com", "p1", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuth_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := entity.User{
		ID:       123,
		Username: "alice",
		Email:    "a@x.com",
		PassHash: mustHash("p1"),
	}

	up := mocks.NewMockUserProvider(ctrl)
	up.EXPECT().User(gomock.Any(), user.Username).Return(user, nil)

	authTest := newTestAuth(nil, up)

	token, err := authTest.Login(context.Background(), user.Username, "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuth_Login_UserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	up.EXPECT().User(gomock.Any(), "ghost").Return(entity.User{}, storage.ErrUserNotFound)

	authTest := newTestAuth(nil, up)

	_, err := authTest.Login(context.Background(), "ghost", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := entity.User{
		ID:       123,
		Username: "alice",
		Email:    "a@x.com",
		PassHash: mustHash("p1"),
	}

	up := mocks.NewMockUserProvider(ctrl)
	up.EXPECT().User(gomock.Any(), user.Username).Return(user, nil)

	authTest := newTestAuth(nil, up)

	_, err := authTest.Login(context.Background(), user.Username, "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
