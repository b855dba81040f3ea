package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/lib/jwt"
	"github.com/voting-app/votingapp/internal/lib/logger/sl"
	"github.com/voting-app/votingapp/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email exists already")
	ErrUsernameExists     = errors.New("username exists already")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

type Auth struct {
	log          *slog.Logger
	userSaver    UserSaver
	userProvider UserProvider
	tokenSecret  []byte
	tokenTTL     time.Duration
}

type UserSaver interface {
	SaveUser(ctx context.Context, username, email string, passHash []byte) (int64, error)
}

type UserProvider interface {
	User(ctx context.Context, username string) (entity.User, error)
	UserExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// NewAuth returns a new instance of the Auth service. The token secret is
// injected here; nothing below this constructor holds signing material.
func NewAuth(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokenSecret []byte,
	tokenTTL time.Duration,
) *Auth {
	return &Auth{
		log:          log,
		userSaver:    userSaver,
		userProvider: userProvider,
		tokenSecret:  tokenSecret,
		tokenTTL:     tokenTTL,
	}
}

// Register creates a new user and returns a signed token for it.
// Uniqueness is checked email first, then username, then the password
// confirmation, so the caller sees the most specific failure.
func (auth *Auth) Register(ctx context.Context, username, email, password, confirmPassword string) (string, error) {
	const op = "auth.Register"

	log := auth.log.With(slog.String("op", op), slog.String("username", username))

	log.Info("registering user")

	emailTaken, err := auth.userProvider.EmailExists(ctx, email)
	if err != nil {
		log.Error("failed to check email", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if emailTaken {
		return "", fmt.Errorf("%s: %w", op, ErrEmailExists)
	}

	usernameTaken, err := auth.userProvider.UserExists(ctx, username)
	if err != nil {
		log.Error("failed to check username", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if usernameTaken {
		return "", fmt.Errorf("%s: %w", op, ErrUsernameExists)
	}

	if password != confirmPassword {
		return "", fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate hash password", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := auth.userSaver.SaveUser(ctx, username, email, passHash); err != nil {
		// the existence checks above race with concurrent registrations;
		// the store's unique constraints are the source of truth
		if errors.Is(err, storage.ErrEmailExists) {
			log.Warn("email already exists", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, ErrEmailExists)
		}
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, ErrUsernameExists)
		}
		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := jwt.NewToken(username, auth.tokenSecret, auth.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered successfully")

	return token, nil
}

// Login checks the credentials and returns a signed token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (auth *Auth) Login(ctx context.Context, username, password string) (string, error) {
	const op = "auth.Login"

	log := auth.log.With(slog.String("op", op), slog.String("username", username))

	log.Info("attempting to login user")

	user, err := auth.userProvider.User(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := jwt.NewToken(user.Username, auth.tokenSecret, auth.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("successfully logged in")

	return token, nil
}
