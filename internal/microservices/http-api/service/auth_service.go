package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"titlehub/internal/config"
	"titlehub/internal/mailer"
	"titlehub/internal/middleware/auth"
	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/validator"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

// Claims is the payload of an access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	ObtainToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
	// Authenticate validates the token and resolves the account it names, so
	// role changes apply to tokens already issued.
	Authenticate(ctx context.Context, tokenString string) (permission.Identity, error)
}

type authService struct {
	userRepo       repository.UserRepository
	sender         mailer.Sender
	clock          validator.Clock
	log            *slog.Logger
	jwtSecret      string
	accessTokenTTL time.Duration
	codeTTL        time.Duration
	mailFrom       string
}

func NewAuthService(
	userRepo repository.UserRepository,
	sender mailer.Sender,
	cfg *config.Config,
	clock validator.Clock,
	log *slog.Logger,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		sender:         sender,
		clock:          clock,
		log:            log,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		codeTTL:        cfg.ConfirmationCodeTTL,
		mailFrom:       cfg.MailFrom,
	}
}

// Signup creates the account on first use and mails a fresh confirmation
// code. Repeating sign-up with the same username and email re-issues the
// code; a username or email already paired with something else is rejected.
func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	if err := validator.ValidateUsername(req.Username); err != nil {
		return nil, NewValidationError("username", err.Error())
	}

	byName, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	byEmail, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	verr := &ValidationError{}
	if byName != nil && !strings.EqualFold(byName.Email, req.Email) {
		verr.Add("username", "this username is registered with a different email")
	}
	if byEmail != nil && (byName == nil || byEmail.ID != byName.ID) {
		verr.Add("email", "this email is registered with a different username")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	code := auth.NewConfirmationCode()
	hash, err := auth.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}
	now := s.clock.Now()

	user := byName
	if user == nil {
		user = &models.User{
			Username: req.Username,
			Email:    req.Email,
			Role:     models.RoleUser,
		}
	}
	user.ConfirmationCode = hash
	user.ConfirmationSentAt = &now

	if byName == nil {
		err = s.userRepo.Create(ctx, user)
	} else {
		err = s.userRepo.Update(ctx, user)
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, NewValidationError(NonFieldErrors, "a user with that username or email already exists")
	}
	if err != nil {
		return nil, err
	}

	msg := mailer.Message{
		Subject: "Your confirmation code",
		Body: fmt.Sprintf("Hello %s,\r\n\r\nyour confirmation code is: %s\r\n\r\nIt is valid for %s.\r\n",
			user.Username, code, s.codeTTL),
		From: s.mailFrom,
		To:   []string{user.Email},
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "confirmation_mail_failed", "username", user.Username, "error", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	s.log.InfoContext(ctx, "confirmation_code_sent", "username", user.Username, "new_account", byName == nil)

	return &dto.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

// ObtainToken exchanges a confirmation code for an access token. The code is
// single use and expires after the configured TTL.
func (s *authService) ObtainToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, notFound("user", err)
	}

	if user.ConfirmationCode == "" || user.ConfirmationSentAt == nil {
		return nil, ErrInvalidConfirmationCode
	}
	now := s.clock.Now()
	if now.Sub(*user.ConfirmationSentAt) > s.codeTTL {
		return nil, fmt.Errorf("%w: code expired", ErrInvalidConfirmationCode)
	}
	if err := auth.VerifyCode(user.ConfirmationCode, req.ConfirmationCode); err != nil {
		return nil, ErrInvalidConfirmationCode
	}

	user.ConfirmationCode = ""
	user.ConfirmationSentAt = nil
	user.LastLogin = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateAccessToken(user, now)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.log.InfoContext(ctx, "token_issued", "username", user.Username)
	return &dto.TokenResponse{Token: token}, nil
}

func (s *authService) generateAccessToken(user *models.User, now time.Time) (string, error) {
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Type:     tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Type != tokenTypeAccess || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (permission.Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return permission.Identity{}, err
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return permission.Identity{}, ErrInvalidToken
	}
	if err != nil {
		return permission.Identity{}, err
	}
	return permission.FromUser(user), nil
}
