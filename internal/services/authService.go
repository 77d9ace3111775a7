package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/arzan03/CloudVault/internal/config"
	"github.com/arzan03/CloudVault/internal/db"
	"github.com/arzan03/CloudVault/internal/models"
	"github.com/arzan03/CloudVault/internal/storage"
	"github.com/arzan03/CloudVault/internal/utils"
)

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// VerifyPassword compares a plain password with a hashed password.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AuthService owns users, credentials and token lifecycle.
type AuthService struct {
	db    *mongo.Database
	store *storage.Store
	cfg   *config.Config
}

// NewAuthService wires the auth service to its database, byte store and
// configuration.
func NewAuthService(database *mongo.Database, store *storage.Store, cfg *config.Config) *AuthService {
	return &AuthService{db: database, store: store, cfg: cfg}
}

func (s *AuthService) users() *mongo.Collection {
	return s.db.Collection(db.CollUsers)
}

func (s *AuthService) revoked() *mongo.Collection {
	return s.db.Collection(db.CollRevokedTokens)
}

// GenerateToken signs a bearer token for the user. Every token carries a
// unique jti so logout can revoke it individually.
func (s *AuthService) GenerateToken(user models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Email,
		"role":  user.Role,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWTSecret)
}

// RegisterInput is the validated payload for Register.
type RegisterInput struct {
	Username          string
	Email             string
	Password          string
	DefaultVisibility string
}

// Register creates a user with a hashed credential and returns it along
// with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	if err := s.checkUnique(ctx, in.Username, in.Email, primitive.NilObjectID); err != nil {
		return models.User{}, "", err
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	visibility := in.DefaultVisibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	now := time.Now()
	user := models.User{
		ID:                primitive.NewObjectID(),
		Username:          in.Username,
		Email:             in.Email,
		Password:          hashed,
		Role:              models.RoleUser,
		DefaultVisibility: visibility,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := s.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, "", NewValidationError("email or username already in use")
		}
		return models.User{}, "", fmt.Errorf("insert user: %w", err)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

// Login authenticates by email or username. Failures are deliberately
// indistinguishable.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (models.User, string, error) {
	var user models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"email": identifier},
		bson.M{"username": identifier},
	}}
	if err := s.users().FindOne(ctx, filter).Decode(&user); err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.Password) {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

// Logout revokes the presented token by its jti until the token would
// have expired on its own; the TTL index then drops the entry.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.revoked().InsertOne(ctx, bson.M{
		"jti":        jti,
		"expires_at": expiresAt,
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether a jti has been revoked. Implements the
// middleware's revocation check.
func (s *AuthService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.revoked().FindOne(ctx, bson.M{"jti": jti}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, fmt.Errorf("check revocation: %w", err)
}

// Refresh issues a new token for the caller. The presented token stays
// valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, userID string) (string, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := s.GenerateToken(user)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Me loads the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	oid, err := parseID(userID, "user")
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, notFound("user")
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateAccountInput carries the partial account update. Nil pointers
// leave fields untouched; changing the password requires the current one.
type UpdateAccountInput struct {
	Username          *string
	Email             *string
	AvatarURL         *string
	DefaultVisibility *string
	WatermarkImages   *bool
	CurrentPassword   string
	NewPassword       string
}

// UpdateAccount applies a partial profile update.
func (s *AuthService) UpdateAccount(ctx context.Context, userID string, in UpdateAccountInput) (models.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	set := bson.M{"updated_at": time.Now()}

	newUsername, newEmail := user.Username, user.Email
	if in.Username != nil {
		newUsername = *in.Username
	}
	if in.Email != nil {
		newEmail = *in.Email
	}
	if newUsername != user.Username || newEmail != user.Email {
		if err := s.checkUnique(ctx, newUsername, newEmail, user.ID); err != nil {
			return models.User{}, err
		}
		set["username"] = newUsername
		set["email"] = newEmail
	}
	if in.AvatarURL != nil {
		set["avatar_url"] = *in.AvatarURL
	}
	if in.DefaultVisibility != nil {
		set["default_visibility"] = *in.DefaultVisibility
	}
	if in.WatermarkImages != nil {
		set["watermark_images"] = *in.WatermarkImages
	}

	if in.NewPassword != "" {
		if !VerifyPassword(in.CurrentPassword, user.Password) {
			return models.User{}, ErrInvalidCredentials
		}
		hashed, err := HashPassword(in.NewPassword)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		set["password"] = hashed
	}

	if _, err := s.users().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, NewValidationError("email or username already in use")
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return s.Me(ctx, userID)
}

// DeleteAccount verifies the credential, revokes the current token and
// removes the user with everything they own: file bytes, file and folder
// rows, share links. There is no soft delete for accounts.
func (s *AuthService) DeleteAccount(ctx context.Context, userID, password, jti string, tokenExpiry time.Time) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(password, user.Password) {
		return ErrInvalidCredentials
	}

	// Collect storage keys first; rows go away regardless of individual
	// object-removal failures.
	cursor, err := s.db.Collection(db.CollFiles).Find(ctx, bson.M{"owner_id": user.ID})
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return fmt.Errorf("decode files: %w", err)
	}

	pool := utils.NewWorkerPool(8)
	for _, f := range files {
		key := f.StorageKey
		pool.AddTask(func() {
			_ = s.store.Remove(ctx, key)
		})
	}
	pool.Wait()
	pool.Close()

	owner := bson.M{"owner_id": user.ID}
	if _, err := s.db.Collection(db.CollFiles).DeleteMany(ctx, owner); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}
	if _, err := s.db.Collection(db.CollFolders).DeleteMany(ctx, owner); err != nil {
		return fmt.Errorf("delete folders: %w", err)
	}
	if _, err := s.db.Collection(db.CollShareLinks).DeleteMany(ctx, owner); err != nil {
		return fmt.Errorf("delete share links: %w", err)
	}
	if err := s.Logout(ctx, jti, tokenExpiry); err != nil {
		return err
	}
	if _, err := s.users().DeleteOne(ctx, bson.M{"_id": user.ID}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// checkUnique rejects a username or email already taken by another user.
func (s *AuthService) checkUnique(ctx context.Context, username, email string, selfID primitive.ObjectID) error {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"email": email},
			bson.M{"username": username},
		},
	}
	if selfID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": selfID}
	}
	var existing models.User
	err := s.users().FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		if existing.Email == email {
			return NewFieldError("email", "email already in use")
		}
		return NewFieldError("username", "username already in use")
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("check uniqueness: %w", err)
	}
	return nil
}
