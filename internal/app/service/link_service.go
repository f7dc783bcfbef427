package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shredlink/shredlink/internal/app/model"
	"github.com/shredlink/shredlink/internal/app/repository"
	"github.com/shredlink/shredlink/internal/crypto"
	"go.uber.org/zap"
)

// tokenLength is the number of nanoid characters in a share token. At 64^16
// combinations a collision is effectively impossible; the unique index is the
// backstop if one ever happens.
const tokenLength = 16

var (
	// ErrTextRequired rejects creation of an empty share.
	ErrTextRequired = errors.New("text is required")

	// ErrTextTooLarge rejects payloads above the configured byte limit.
	ErrTextTooLarge = errors.New("text exceeds the maximum size")

	// ErrLinkGone signals an expired or consumed link.
	ErrLinkGone = errors.New("link has expired or has already been used")

	// ErrWrongPassword signals a failed unlock attempt.
	ErrWrongPassword = errors.New("wrong password")

	// ErrNotPasswordProtected signals an unlock request against a link that
	// has no password gate.
	ErrNotPasswordProtected = errors.New("link is not password-protected")
)

// LinkService defines behaviour-level operations on share links.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*CreateLinkResult, error)
	RetrieveLink(ctx context.Context, token string) (*RetrieveResult, error)
	UnlockLink(ctx context.Context, token, password string) (string, error)
}

// Config carries the tunables the service needs from app configuration.
type Config struct {
	BaseURL          string
	MaxTextSizeBytes int
}

type linkService struct {
	repo   repository.LinkRepository
	aead   *crypto.AEAD
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewLinkService returns a service implementation backed by the given
// repository and payload cipher.
func NewLinkService(repo repository.LinkRepository, aead *crypto.AEAD, cfg Config, logger *zap.Logger) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		repo:   repo,
		aead:   aead,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// CreateLinkInput captures a share request.
type CreateLinkInput struct {
	Text            string
	Password        string
	ExpireMinutes   int
	ExpireHours     int
	OneTimeView     bool
	OneTimePassword bool
}

// CreateLinkResult is the public outcome of a successful creation.
type CreateLinkResult struct {
	Token string
	URL   string
}

// RetrieveResult is the outcome of a view-by-token request. When
// RequiresUnlock is set the caller must go through UnlockLink and Text is
// empty; otherwise Text carries the disclosed plaintext.
type RetrieveResult struct {
	Text           string
	RequiresUnlock bool
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*CreateLinkResult, error) {
	if input.Text == "" {
		return nil, ErrTextRequired
	}
	if len(input.Text) > s.cfg.MaxTextSizeBytes {
		return nil, ErrTextTooLarge
	}

	var expiresAt *time.Time
	if totalMins := input.ExpireMinutes + input.ExpireHours*60; totalMins > 0 {
		t := s.now().Add(time.Duration(totalMins) * time.Minute)
		expiresAt = &t
	}

	var passwordHash *string
	if input.Password != "" {
		hash, err := crypto.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = &hash
	}

	encrypted, err := s.aead.Encrypt([]byte(input.Text))
	if err != nil {
		return nil, fmt.Errorf("encrypt text: %w", err)
	}

	token, err := gonanoid.New(tokenLength)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	link := &model.Link{
		Token:           token,
		EncryptedText:   encrypted,
		PasswordHash:    passwordHash,
		ExpiresAt:       expiresAt,
		OneTimeView:     input.OneTimeView,
		OneTimePassword: input.OneTimePassword,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	return &CreateLinkResult{
		Token: token,
		URL:   strings.TrimSuffix(s.cfg.BaseURL, "/") + "/s/" + token,
	}, nil
}

func (s *linkService) RetrieveLink(ctx context.Context, token string) (*RetrieveResult, error) {
	link, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}

	if link.IsDead(s.now()) {
		return nil, ErrLinkGone
	}

	if link.PasswordProtected() {
		return &RetrieveResult{RequiresUnlock: true}, nil
	}

	text, err := s.disclose(ctx, link)
	if err != nil {
		return nil, err
	}
	return &RetrieveResult{Text: text}, nil
}

func (s *linkService) UnlockLink(ctx context.Context, token, password string) (string, error) {
	link, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("get link: %w", err)
	}

	if link.IsDead(s.now()) {
		return "", ErrLinkGone
	}

	if !link.PasswordProtected() {
		return "", ErrNotPasswordProtected
	}

	// A failed attempt must not mutate anything: the one-time budget is only
	// spent by a successful verification.
	if !crypto.VerifyPassword(password, *link.PasswordHash) {
		return "", ErrWrongPassword
	}

	plaintext, err := s.aead.Decrypt(link.EncryptedText)
	if err != nil {
		return "", fmt.Errorf("decrypt link %d: %w", link.ID, err)
	}

	if link.OneTimePassword {
		err = s.repo.MarkPasswordUsed(ctx, link.ID)
	} else {
		err = s.repo.IncrementViewCount(ctx, link.ID)
	}
	if err != nil {
		// The plaintext is already committed to the response; losing the
		// counter update is the lesser failure. The sweeper still catches
		// time-expired rows.
		s.logger.Warn("failed to record unlock",
			zap.Uint("link_id", link.ID),
			zap.Error(err),
		)
	}

	return string(plaintext), nil
}

// disclose decrypts the payload and advances the view counter. The liveness
// check happens before the increment lands, so two concurrent first views of
// a one-time link can both succeed; the guarantee is best-effort.
func (s *linkService) disclose(ctx context.Context, link *model.Link) (string, error) {
	plaintext, err := s.aead.Decrypt(link.EncryptedText)
	if err != nil {
		return "", fmt.Errorf("decrypt link %d: %w", link.ID, err)
	}

	if err := s.repo.IncrementViewCount(ctx, link.ID); err != nil {
		s.logger.Warn("failed to increment view count",
			zap.Uint("link_id", link.ID),
			zap.Error(err),
		)
	}

	return string(plaintext), nil
}
