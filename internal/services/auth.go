package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/suresight/suresight-backend/internal/data/repos/user"
	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/requestdata"

	types "github.com/suresight/suresight-backend/internal/domain"
)

// JWTClaims carries the authenticated identity. Role is embedded so the auth
// middleware does not need a user lookup per request; role changes take
// effect on the next login.
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) (*types.User, error)
	LoginUser(ctx context.Context, username, password string) (string, *types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// EnsureAdmin creates the bootstrap admin account when no admin exists.
	// Safe to call on every startup.
	EnsureAdmin(ctx context.Context, username, email, password string) error
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      user.UserRepo
	avatarService AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo user.UserRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		avatarService: avatarService,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, u *types.User) (*types.User, error) {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)

	if u.Username == "" || u.Email == "" || u.Password == "" || u.FirstName == "" || u.LastName == "" {
		return nil, apperr.New(apperr.KindValidation, "username, email, password, first and last name are required")
	}
	if !strings.Contains(u.Email, "@") {
		return nil, apperr.New(apperr.KindValidation, "invalid email address")
	}
	if len(u.Password) < 8 {
		return nil, apperr.New(apperr.KindValidation, "password must be at least 8 characters")
	}

	taken, err := as.userRepo.UsernameExists(ctx, nil, u.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperr.New(apperr.KindConflict, "username %q is taken", u.Username)
	}
	taken, err = as.userRepo.EmailExists(ctx, nil, u.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperr.New(apperr.KindConflict, "email %q is already registered", u.Email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.Password = string(hashed)

	// Registration never grants a privileged role.
	u.Role = types.RoleBasic

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u.ID = uuid.New()
		if as.avatarService != nil {
			if aErr := as.avatarService.CreateAndUploadUserAvatar(ctx, u); aErr != nil {
				as.log.Warn("Avatar generation failed, continuing without avatar", "user", u.Username, "error", aErr)
			}
		}
		if _, cErr := as.userRepo.Create(ctx, tx, []*types.User{u}); cErr != nil {
			return fmt.Errorf("create user: %w", cErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (as *authService) LoginUser(ctx context.Context, username, password string) (string, *types.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return "", nil, apperr.New(apperr.KindValidation, "username and password are required")
	}

	u, err := as.userRepo.GetByUsername(ctx, nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	token, err := as.generateAccessToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}
	return token, u, nil
}

func (as *authService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	count, err := as.userRepo.CountByRole(ctx, nil, types.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if username == "" || email == "" || password == "" {
		as.log.Warn("No admin account exists and no bootstrap credentials configured")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	admin := &types.User{
		ID:        uuid.New(),
		Role:      types.RoleAdmin,
		Username:  strings.ToLower(strings.TrimSpace(username)),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  string(hashed),
		FirstName: "System",
		LastName:  "Administrator",
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{admin}); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	as.log.Info("Bootstrap admin created", "username", admin.Username)
	return nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	claims := JWTClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apperr.New(apperr.KindUnauthorized, "missing access token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apperr.Wrap(apperr.KindUnauthorized, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apperr.New(apperr.KindUnauthorized, "invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apperr.New(apperr.KindUnauthorized, "invalid subject in token")
	}
	role := types.Role(claims.Role)
	if !role.Valid() {
		return ctx, apperr.New(apperr.KindUnauthorized, "invalid role in token")
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
