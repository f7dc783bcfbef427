package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shredlink/shredlink/internal/app/model"
	"github.com/shredlink/shredlink/internal/app/repository"
	"github.com/shredlink/shredlink/internal/crypto"
)

type mockLinkRepository struct {
	createFn    func(ctx context.Context, link *model.Link) error
	getFn       func(ctx context.Context, token string) (*model.Link, error)
	incrementFn func(ctx context.Context, id uint) error
	markFn      func(ctx context.Context, id uint) error
	deleteFn    func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetByToken(ctx context.Context, token string) (*model.Link, error) {
	if m.getFn != nil {
		return m.getFn(ctx, token)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) IncrementViewCount(ctx context.Context, id uint) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, id)
	}
	return nil
}

func (m *mockLinkRepository) MarkPasswordUsed(ctx context.Context, id uint) error {
	if m.markFn != nil {
		return m.markFn(ctx, id)
	}
	return nil
}

func (m *mockLinkRepository) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, now)
	}
	return 0, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo repository.LinkRepository) (*linkService, *crypto.AEAD) {
	t.Helper()
	aead, err := crypto.NewAEAD(bytes.Repeat([]byte{0x42}, crypto.KeySize))
	if err != nil {
		t.Fatalf("NewAEAD returned error: %v", err)
	}

	svc := NewLinkService(repo, aead, Config{
		BaseURL:          "https://shred.example",
		MaxTextSizeBytes: 1000,
	}, nil).(*linkService)
	svc.now = func() time.Time { return testNow }
	return svc, aead
}

func encryptText(t *testing.T, aead *crypto.AEAD, text string) string {
	t.Helper()
	blob, err := aead.Encrypt([]byte(text))
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	return blob
}

func TestLinkService_CreateLink(t *testing.T) {
	var created *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}

	svc, aead := newTestService(t, repo)
	result, err := svc.CreateLink(context.Background(), CreateLinkInput{
		Text:            "secret",
		Password:        "pw",
		ExpireMinutes:   30,
		ExpireHours:     2,
		OneTimeView:     true,
		OneTimePassword: true,
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	if created == nil {
		t.Fatal("expected a record to be persisted")
	}
	if len(created.Token) != 16 {
		t.Fatalf("expected 16-char token, got %q", created.Token)
	}
	if result.Token != created.Token {
		t.Fatalf("result token %q does not match persisted token %q", result.Token, created.Token)
	}
	if want := "https://shred.example/s/" + created.Token; result.URL != want {
		t.Fatalf("expected URL %q, got %q", want, result.URL)
	}

	if created.PasswordHash == nil || !crypto.VerifyPassword("pw", *created.PasswordHash) {
		t.Fatal("expected a verifiable password hash")
	}
	if !created.OneTimeView || !created.OneTimePassword {
		t.Fatal("expected one-time flags to be persisted")
	}
	if created.ViewCount != 0 || created.PasswordUsed {
		t.Fatal("expected fresh counters")
	}

	wantExpiry := testNow.Add(150 * time.Minute)
	if created.ExpiresAt == nil || !created.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, created.ExpiresAt)
	}

	plaintext, err := aead.Decrypt(created.EncryptedText)
	if err != nil || string(plaintext) != "secret" {
		t.Fatalf("expected stored payload to decrypt to the input, got %q (err %v)", plaintext, err)
	}
}

func TestLinkService_CreateLink_NeverExpires(t *testing.T) {
	var created *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}

	svc, _ := newTestService(t, repo)
	if _, err := svc.CreateLink(context.Background(), CreateLinkInput{Text: "x"}); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	if created.ExpiresAt != nil {
		t.Fatalf("zero expiry input must mean no time expiry, got %v", created.ExpiresAt)
	}
	if created.PasswordHash != nil {
		t.Fatal("no password input must mean no hash")
	}
}

func TestLinkService_CreateLink_Validation(t *testing.T) {
	svc, _ := newTestService(t, &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			t.Fatal("invalid input must not reach the repository")
			return nil
		},
	})

	if _, err := svc.CreateLink(context.Background(), CreateLinkInput{}); !errors.Is(err, ErrTextRequired) {
		t.Fatalf("expected ErrTextRequired, got %v", err)
	}

	big := strings.Repeat("a", 1001)
	if _, err := svc.CreateLink(context.Background(), CreateLinkInput{Text: big}); !errors.Is(err, ErrTextTooLarge) {
		t.Fatalf("expected ErrTextTooLarge, got %v", err)
	}
}

func TestLinkService_RetrieveLink_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockLinkRepository{})

	_, err := svc.RetrieveLink(context.Background(), "missing")
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestLinkService_RetrieveLink_Gone(t *testing.T) {
	past := testNow.Add(-time.Minute)

	dead := []model.Link{
		{ID: 1, ExpiresAt: &past},
		{ID: 2, OneTimeView: true, ViewCount: 1},
		{ID: 3, OneTimePassword: true, PasswordUsed: true},
	}

	for _, link := range dead {
		link := link
		repo := &mockLinkRepository{
			getFn: func(ctx context.Context, token string) (*model.Link, error) {
				return &link, nil
			},
			incrementFn: func(ctx context.Context, id uint) error {
				t.Fatal("dead link must not be mutated")
				return nil
			},
		}
		svc, _ := newTestService(t, repo)

		if _, err := svc.RetrieveLink(context.Background(), "t"); !errors.Is(err, ErrLinkGone) {
			t.Fatalf("link %d: expected ErrLinkGone, got %v", link.ID, err)
		}
	}
}

func TestLinkService_RetrieveLink_RequiresUnlock(t *testing.T) {
	hash := "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, token string) (*model.Link, error) {
			return &model.Link{ID: 1, PasswordHash: &hash, EncryptedText: "irrelevant"}, nil
		},
		incrementFn: func(ctx context.Context, id uint) error {
			t.Fatal("password gate must not advance the view counter")
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	result, err := svc.RetrieveLink(context.Background(), "t")
	if err != nil {
		t.Fatalf("RetrieveLink returned error: %v", err)
	}
	if !result.RequiresUnlock {
		t.Fatal("expected RequiresUnlock")
	}
	if result.Text != "" {
		t.Fatal("password gate must not disclose text")
	}
}

func TestLinkService_RetrieveLink_Discloses(t *testing.T) {
	incremented := 0
	repo := &mockLinkRepository{
		incrementFn: func(ctx context.Context, id uint) error {
			if id != 7 {
				t.Fatalf("expected increment of id 7, got %d", id)
			}
			incremented++
			return nil
		},
	}
	svc, aead := newTestService(t, repo)
	repo.getFn = func(ctx context.Context, token string) (*model.Link, error) {
		return &model.Link{ID: 7, EncryptedText: encryptText(t, aead, "the payload")}, nil
	}

	result, err := svc.RetrieveLink(context.Background(), "t")
	if err != nil {
		t.Fatalf("RetrieveLink returned error: %v", err)
	}
	if result.RequiresUnlock {
		t.Fatal("unexpected RequiresUnlock")
	}
	if result.Text != "the payload" {
		t.Fatalf("expected disclosed text, got %q", result.Text)
	}
	if incremented != 1 {
		t.Fatalf("expected exactly one increment, got %d", incremented)
	}
}

func TestLinkService_RetrieveLink_EmptyHashSentinel(t *testing.T) {
	// Rows with an empty password hash have no real gate and disclose directly.
	empty := ""
	incremented := false

	repo := &mockLinkRepository{
		incrementFn: func(ctx context.Context, id uint) error {
			incremented = true
			return nil
		},
	}
	svc, aead := newTestService(t, repo)
	repo.getFn = func(ctx context.Context, token string) (*model.Link, error) {
		return &model.Link{ID: 1, PasswordHash: &empty, EncryptedText: encryptText(t, aead, "open")}, nil
	}

	result, err := svc.RetrieveLink(context.Background(), "t")
	if err != nil {
		t.Fatalf("RetrieveLink returned error: %v", err)
	}
	if result.RequiresUnlock || result.Text != "open" {
		t.Fatalf("expected direct disclosure, got %+v", result)
	}
	if !incremented {
		t.Fatal("expected the view counter to advance")
	}
}

func TestLinkService_RetrieveLink_CorruptPayload(t *testing.T) {
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, token string) (*model.Link, error) {
			return &model.Link{ID: 1, EncryptedText: "garbage"}, nil
		},
		incrementFn: func(ctx context.Context, id uint) error {
			t.Fatal("failed decryption must not advance the view counter")
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.RetrieveLink(context.Background(), "t")
	if !errors.Is(err, crypto.ErrCiphertext) {
		t.Fatalf("expected ErrCiphertext, got %v", err)
	}
}

func TestLinkService_UnlockLink_WrongPassword(t *testing.T) {
	hash, err := crypto.HashPassword("right")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, token string) (*model.Link, error) {
			return &model.Link{ID: 1, PasswordHash: &hash, OneTimePassword: true, EncryptedText: "x"}, nil
		},
		incrementFn: func(ctx context.Context, id uint) error {
			t.Fatal("wrong password must not mutate the record")
			return nil
		},
		markFn: func(ctx context.Context, id uint) error {
			t.Fatal("wrong password must not consume the link")
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	if _, err := svc.UnlockLink(context.Background(), "t", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestLinkService_UnlockLink_NotProtected(t *testing.T) {
	empty := ""
	for _, hash := range []*string{nil, &empty} {
		hash := hash
		repo := &mockLinkRepository{
			getFn: func(ctx context.Context, token string) (*model.Link, error) {
				return &model.Link{ID: 1, PasswordHash: hash, EncryptedText: "x"}, nil
			},
		}
		svc, _ := newTestService(t, repo)

		if _, err := svc.UnlockLink(context.Background(), "t", "pw"); !errors.Is(err, ErrNotPasswordProtected) {
			t.Fatalf("expected ErrNotPasswordProtected, got %v", err)
		}
	}
}

func TestLinkService_UnlockLink_OneTimePassword(t *testing.T) {
	hash, err := crypto.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	marked := false
	repo := &mockLinkRepository{
		markFn: func(ctx context.Context, id uint) error {
			marked = true
			return nil
		},
		incrementFn: func(ctx context.Context, id uint) error {
			t.Fatal("one-time-password unlock must mark the password used instead")
			return nil
		},
	}
	svc, aead := newTestService(t, repo)
	repo.getFn = func(ctx context.Context, token string) (*model.Link, error) {
		return &model.Link{
			ID:              1,
			PasswordHash:    &hash,
			OneTimePassword: true,
			EncryptedText:   encryptText(t, aead, "x"),
		}, nil
	}

	text, err := svc.UnlockLink(context.Background(), "t", "pw")
	if err != nil {
		t.Fatalf("UnlockLink returned error: %v", err)
	}
	if text != "x" {
		t.Fatalf("expected disclosed text, got %q", text)
	}
	if !marked {
		t.Fatal("expected the link to be consumed")
	}
}

func TestLinkService_UnlockLink_Reusable(t *testing.T) {
	hash, err := crypto.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	incremented := false
	repo := &mockLinkRepository{
		incrementFn: func(ctx context.Context, id uint) error {
			incremented = true
			return nil
		},
		markFn: func(ctx context.Context, id uint) error {
			t.Fatal("reusable unlock must not set password_used")
			return nil
		},
	}
	svc, aead := newTestService(t, repo)
	repo.getFn = func(ctx context.Context, token string) (*model.Link, error) {
		return &model.Link{ID: 1, PasswordHash: &hash, EncryptedText: encryptText(t, aead, "x")}, nil
	}

	if _, err := svc.UnlockLink(context.Background(), "t", "pw"); err != nil {
		t.Fatalf("UnlockLink returned error: %v", err)
	}
	if !incremented {
		t.Fatal("expected the view counter to advance")
	}
}

func TestLinkService_UnlockLink_Gone(t *testing.T) {
	hash, err := crypto.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, token string) (*model.Link, error) {
			return &model.Link{ID: 1, PasswordHash: &hash, OneTimePassword: true, PasswordUsed: true}, nil
		},
	}
	svc, _ := newTestService(t, repo)

	if _, err := svc.UnlockLink(context.Background(), "t", "pw"); !errors.Is(err, ErrLinkGone) {
		t.Fatalf("expected ErrLinkGone, got %v", err)
	}
}
