package credentials

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service issues website credentials: one login/password per user,
// generated once and reused on every later request.
type Service struct {
	store  Store
	logger *logrus.Logger
}

// NewService creates the credential service.
func NewService(store Store, logger *logrus.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Issue returns the user's credentials, generating and storing a new
// pair on first use.
func (s *Service) Issue(ctx context.Context, telegramID int64) (*models.WebsiteCredential, error) {
	existing, err := s.store.Get(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up credentials: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	password, err := generatePassword()
	if err != nil {
		return nil, err
	}

	cred := &models.WebsiteCredential{
		TelegramID:       telegramID,
		Login:            generateLogin(),
		Password:         password,
		SubscriptionType: "free",
		IsActive:         true,
	}

	if err := s.store.Upsert(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}

	s.logger.WithField("user_id", telegramID).Info("Issued website credentials")
	return cred, nil
}

func generateLogin() string {
	// opaque but readable: short uuid fragment
	return "user_" + strings.Split(uuid.NewString(), "-")[0]
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
