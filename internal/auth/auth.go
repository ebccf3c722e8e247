package auth

import (
	"errors"
	"fmt"
	"time"

	"everesthemp-backend/internal/domain"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type JWTClaims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.StandardClaims
}

// Identity is what a verified token says about the caller.
type Identity struct {
	UserID primitive.ObjectID
	Role   domain.Role
}

func (id Identity) IsAdmin() bool {
	return id.Role == domain.RoleAdmin
}

// CanAccess reports whether the caller may act on resources owned by owner.
func (id Identity) CanAccess(owner primitive.ObjectID) bool {
	return id.IsAdmin() || id.UserID == owner
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(u *domain.User) (string, error) {
	claims := JWTClaims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  t.now().Unix(),
			ExpiresAt: t.now().Add(t.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenIssuer) Parse(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid token subject", domain.ErrUnauthenticated)
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}

const bcryptCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword returns ErrUnauthenticated for a mismatch.
func CheckPassword(hashed, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%w: wrong password", domain.ErrUnauthenticated)
	}
	return err
}
