package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"rewear-api/internal/model"
	"rewear-api/internal/pkg/hashutil"
	"rewear-api/internal/repository"
)

const (
	minPasswordLength = 8
	minUsernameLength = 3
	maxUsernameLength = 50
	TokenTypeBearer   = "bearer"
)

var validate = validator.New()

type AuthService struct {
	users     UserStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	publisher AuthEventPublisher
	activity  AuthEventReader
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type SignupInput struct {
	Email    string
	Username string
	Password string
	RemoteIP string
}

type LoginInput struct {
	Email    string
	Password string
	RemoteIP string
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NewAuthService wires the auth gateway. publisher and activity may be nil when the event
// pipeline is disabled.
func NewAuthService(
	users UserStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	publisher AuthEventPublisher,
	activity AuthEventReader,
) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		activity:  activity,
		now:       time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(input.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, invalid("username", "must be between 3 and 50 characters")
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return nil, invalid("password", "must be at least 8 characters")
	}
	if len(input.Password) > hashutil.MaxPasswordBytes {
		return nil, invalid("password", "must be at most 72 bytes")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:         email,
		Username:      username,
		PasswordHash:  hash,
		PointsBalance: 0,
		JoinDate:      s.now().UTC(),
		IsAdmin:       false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent signup can pass the pre-check; the unique index decides.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.publish(ctx, model.AuthEvent{
		Type:     model.AuthEventSignup,
		UserID:   user.ID,
		Email:    user.Email,
		RemoteIP: input.RemoteIP,
	})
	return user, nil
}

// Login never reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Equalise timing with the wrong-password path.
		s.hasher.Verify(input.Password, s.dummyPasswordHash())
		s.publish(ctx, model.AuthEvent{Type: model.AuthEventLoginFailed, Email: email, RemoteIP: input.RemoteIP})
		return nil, ErrInvalidCredential
	}
	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.publish(ctx, model.AuthEvent{
			Type:     model.AuthEventLoginFailed,
			UserID:   user.ID,
			Email:    email,
			RemoteIP: input.RemoteIP,
		})
		return nil, ErrInvalidCredential
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token failed: %w", err)
	}

	s.publish(ctx, model.AuthEvent{
		Type:     model.AuthEventLoginSucceeded,
		UserID:   user.ID,
		Email:    email,
		RemoteIP: input.RemoteIP,
	})
	return &LoginResult{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// Authenticate resolves a bearer token to a stored user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil || subject == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) RequireAdmin(user *model.User) error {
	if user == nil {
		return ErrUnauthorized
	}
	if !user.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// RecentActivity lists the caller's latest auth events, newest first.
func (s *AuthService) RecentActivity(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error) {
	if s.activity == nil {
		return []model.AuthEvent{}, nil
	}
	events, err := s.activity.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.AuthEvent{}
	}
	return events, nil
}

func (s *AuthService) publish(ctx context.Context, event model.AuthEvent) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s event failed: %v", event.Type, err)
	}
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("rewear-timing-equaliser")
		if err != nil {
			log.Printf("build dummy password hash failed: %v", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "is required")
	}
	if err := validate.Var(email, "email,max=255"); err != nil || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", invalid("email", "is not a valid email address")
	}
	return email, nil
}
