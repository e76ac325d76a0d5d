package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/store"
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) EnsureIndexes(ctx context.Context) error {
	return s.store.EnsureUniqueIndex(ctx, "users", "email")
}

// Register creates a user unless the email is already taken. The second
// return value reports whether a new document was inserted.
func (s *UserService) Register(ctx context.Context, user *models.User) (string, bool, error) {
	users := s.store.Collection("users")

	var existing models.User
	err := users.FindOne(ctx, bson.M{"email": user.Email}, &existing)
	if err == nil {
		return existing.ID.Hex(), false, nil
	}
	if !errors.Is(err, store.ErrNoDocuments) {
		return "", false, fmt.Errorf("failed to look up user: %w", err)
	}

	user.ID = primitive.NewObjectID()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()

	id, err := users.InsertOne(ctx, user)
	if errors.Is(err, store.ErrDuplicateKey) {
		// Raced another registration; the unique email index decides.
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.store.Collection("users").Find(ctx, bson.M{}, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}
