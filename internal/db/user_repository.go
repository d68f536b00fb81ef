package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/askdrk-backend/internal/models"
)

const (
	usersCollection = "users"
	fcmTokensField  = "fcmTokens"
)

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// GetByID retrieves a user document by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID
	return &user, nil
}

// RemoveFCMTokens deletes fcmTokens.{token} for every token. Tokens are used as field path
// segments so tokens containing dots or colons are handled.
func (r *firestoreUserRepository) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for RemoveFCMTokens operation")
	}
	if len(tokens) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(tokens))
	for _, token := range tokens {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{fcmTokensField, token}, Value: firestore.Delete})
	}
	if _, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to remove %d fcm tokens for user '%s': %w", len(tokens), userID, err)
	}
	return nil
}
