package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/CloudVault/internal/config"
	"github.com/arzan03/CloudVault/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash must not equal the plain password")
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("Expected the original password to verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("Expected a wrong password to fail verification")
	}
	if VerifyPassword("", hash) {
		t.Error("Expected an empty password to fail verification")
	}
}

func TestGenerateToken(t *testing.T) {
	secret := []byte("unit-test-secret")
	svc := &AuthService{cfg: &config.Config{JWTSecret: secret, TokenTTL: time.Hour}}
	user := models.User{
		ID:    primitive.NewObjectID(),
		Email: "bob@example.com",
		Role:  models.RoleUser,
	}

	signed, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		t.Fatalf("Generated token does not verify: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("Expected map claims")
	}
	if claims["sub"] != user.ID.Hex() {
		t.Errorf("Expected sub %q, got %v", user.ID.Hex(), claims["sub"])
	}
	if claims["email"] != user.Email {
		t.Errorf("Expected email %q, got %v", user.Email, claims["email"])
	}
	if claims["role"] != models.RoleUser {
		t.Errorf("Expected role %q, got %v", models.RoleUser, claims["role"])
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		t.Error("Expected a non-empty jti claim")
	}

	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)
	if int64(exp)-int64(iat) != int64(time.Hour/time.Second) {
		t.Errorf("Expected one hour between iat and exp, got %d seconds", int64(exp)-int64(iat))
	}

	// Two tokens for the same user must still be individually revocable.
	second, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate second token: %v", err)
	}
	other, _, err := jwt.NewParser().ParseUnverified(second, jwt.MapClaims{})
	if err != nil {
		t.Fatalf("Failed to parse second token: %v", err)
	}
	otherJTI, _ := other.Claims.(jwt.MapClaims)["jti"].(string)
	if otherJTI == jti {
		t.Error("Expected a fresh jti per token")
	}
}
