package services

import (
	"errors"
	"strconv"
	"time"

	"taskboard/backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegistrationRequest struct {
	Username string  `json:"username" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	FullName string  `json:"full_name" binding:"required"`
	Role     string  `json:"role" binding:"required"`
	Password *string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// AccessClaims are the claims carried by tokens issued on login.
type AccessClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthOptions struct {
	JWTSecret      string
	Issuer         string
	AccessTokenTTL time.Duration
	BCryptCost     int
}

type AuthService interface {
	RegisterUser(db *gorm.DB, req RegistrationRequest) (models.User, error)
	LoginUser(db *gorm.DB, req LoginRequest) (models.User, error)
	GenerateToken(user models.User) (string, int64, error)
}

type AuthServiceImpl struct {
	secret []byte
	issuer string
	ttl    time.Duration
	cost   int
}

func NewAuthService(opts AuthOptions) *AuthServiceImpl {
	cost := opts.BCryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.AccessTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthServiceImpl{
		secret: []byte(opts.JWTSecret),
		issuer: opts.Issuer,
		ttl:    ttl,
		cost:   cost,
	}
}

func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	if hashedPassword == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) RegisterUser(db *gorm.DB, req RegistrationRequest) (models.User, error) {
	if !models.IsValidRole(req.Role) {
		return models.User{}, ErrInvalidRole
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	}

	if req.Password != nil && *req.Password != "" {
		hashed, err := HashPassword(*req.Password, s.cost)
		if err != nil {
			return models.User{}, err
		}
		user.Password = hashed
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}

		if err := tx.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateUser
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// LoginUser answers every lookup or password mismatch with the same error so
// callers cannot tell which part of the credentials was wrong.
func (s *AuthServiceImpl) LoginUser(db *gorm.DB, req LoginRequest) (models.User, error) {
	var user models.User
	err := db.Where("username = ? AND role = ?", req.Username, req.Role).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !user.HasPassword() || !VerifyPassword(user.Password, req.Password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthServiceImpl) GenerateToken(user models.User) (string, int64, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.ttl.Seconds()), nil
}
