package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/MumuCarrot/bestpractices-bc/pkg/errors"
	"github.com/MumuCarrot/bestpractices-bc/pkg/logger"

	"github.com/MumuCarrot/bestpractices-bc/internal/auth"
	"github.com/MumuCarrot/bestpractices-bc/internal/domain"
	"github.com/MumuCarrot/bestpractices-bc/internal/repository"
)

// dummyHash is verified against when a login does not exist, so the
// unknown-login and wrong-password paths burn comparable CPU time.
const dummyHash = "$argon2id$v=19$m=65536,t=1,p=4$gsDW3bqXUVPMfwFF3eBBGA$Z7PtswkXDfnz2wGD10hjPuMHMPxYKJHX4kt3qkLGRFo"

// PasswordHasher is the hashing dependency of the auth flows.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// TokenIssuer is the token dependency of the auth flows.
type TokenIssuer interface {
	IssuePair(userID string) (*domain.TokenPair, error)
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthService orchestrates registration, login, and token refresh over the
// user store. Every store round-trip is bounded by storeTimeout; a store that
// does not answer in time surfaces as STORE_UNAVAILABLE instead of hanging
// the request.
type AuthService struct {
	repo         repository.UserRepository
	hasher       PasswordHasher
	tokens       TokenIssuer
	log          *slog.Logger
	storeTimeout time.Duration
}

// NewAuthService creates the auth orchestrator.
func NewAuthService(
	repo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	log *slog.Logger,
	storeTimeout time.Duration,
) *AuthService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &AuthService{
		repo:         repo,
		hasher:       hasher,
		tokens:       tokens,
		log:          log,
		storeTimeout: storeTimeout,
	}
}

// Register creates a new account and signs the user in. The plaintext
// password exists only for the duration of this call; the store only ever
// sees the Argon2id hash.
func (s *AuthService) Register(ctx context.Context, login, password string) (*domain.User, *domain.TokenPair, error) {
	log := logger.WithContext(ctx, s.log)

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		log.Error("password hashing failed", slog.Any("error", err))
		return nil, nil, apperrors.Internal(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repo.Create(storeCtx, user); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			log.Info("registration rejected: login taken", slog.String("login", login))
			return nil, nil, apperrors.RegistrationFailed("login is already taken")
		case isStoreTimeout(err):
			log.Error("user store timed out on create", slog.Any("error", err))
			return nil, nil, apperrors.StoreUnavailable()
		default:
			log.Error("user store create failed", slog.Any("error", err))
			return nil, nil, apperrors.Internal(err)
		}
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		log.Error("token issuance failed", slog.Any("error", err))
		return nil, nil, apperrors.Internal(err)
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	return user.Sanitized(), pair, nil
}

// Login authenticates a login/password pair and issues a fresh token pair.
// An unknown login and a wrong password return the exact same error value.
func (s *AuthService) Login(ctx context.Context, login, password string) (*domain.User, *domain.TokenPair, error) {
	log := logger.WithContext(ctx, s.log)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.FindByLogin(storeCtx, login)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			// Burn the same hashing work as the found path.
			s.hasher.Verify(dummyHash, password)
			log.Info("login rejected: unknown login")
			return nil, nil, apperrors.InvalidCredentials()
		case isStoreTimeout(err):
			log.Error("user store timed out on lookup", slog.Any("error", err))
			return nil, nil, apperrors.StoreUnavailable()
		default:
			log.Error("user store lookup failed", slog.Any("error", err))
			return nil, nil, apperrors.Internal(err)
		}
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		log.Info("login rejected: password mismatch", slog.String("user_id", user.ID))
		return nil, nil, apperrors.InvalidCredentials()
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		log.Error("token issuance failed", slog.Any("error", err))
		return nil, nil, apperrors.Internal(err)
	}

	log.Info("user logged in", slog.String("user_id", user.ID))
	return user.Sanitized(), pair, nil
}

// Refresh validates a refresh token, re-checks that its subject still
// exists, and rotates the pair. Expired and malformed tokens are reported
// as distinct failures.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error) {
	log := logger.WithContext(ctx, s.log)

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			log.Info("refresh rejected: token expired")
			return nil, nil, apperrors.RefreshExpired()
		}
		log.Info("refresh rejected: token invalid")
		return nil, nil, apperrors.RefreshInvalid()
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.FindByID(storeCtx, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			log.Info("refresh rejected: subject gone", slog.String("user_id", claims.UserID))
			return nil, nil, apperrors.UserNotFound()
		case isStoreTimeout(err):
			log.Error("user store timed out on lookup", slog.Any("error", err))
			return nil, nil, apperrors.StoreUnavailable()
		default:
			log.Error("user store lookup failed", slog.Any("error", err))
			return nil, nil, apperrors.Internal(err)
		}
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		log.Error("token issuance failed", slog.Any("error", err))
		return nil, nil, apperrors.Internal(err)
	}

	log.Info("tokens refreshed", slog.String("user_id", user.ID))
	return user.Sanitized(), pair, nil
}

// Me returns the user a validated access token belongs to.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	log := logger.WithContext(ctx, s.log)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.FindByID(storeCtx, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.UserNotFound()
		case isStoreTimeout(err):
			log.Error("user store timed out on lookup", slog.Any("error", err))
			return nil, apperrors.StoreUnavailable()
		default:
			log.Error("user store lookup failed", slog.Any("error", err))
			return nil, apperrors.Internal(err)
		}
	}

	return user.Sanitized(), nil
}

// isStoreTimeout reports whether a store call failed because it ran out of
// time rather than because of the data it carried.
func isStoreTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, apperrors.ErrStoreUnavailable)
}
