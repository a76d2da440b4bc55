package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/yourusername/quiz-forge/internal/models"
	"github.com/yourusername/quiz-forge/internal/store"
)

// dummyPasswordHash はアカウントが存在しない場合にも検証処理を走らせるためのハッシュです。
// 実在するかどうかを応答時間から推測されないようにします。
//
//nolint:gosec // G101: 認証情報ではありません。
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// OrphanReaper は資格情報を持たないアカウントの後始末を非同期に予約します。
type OrphanReaper interface {
	ScheduleOrphanPurge(ctx context.Context, accountID string) error
}

// Authenticator はサインアップとログインを行います。
type Authenticator struct {
	accounts    store.Repository[models.Account]
	credentials store.Repository[models.Credential]
	vault       PasswordVault
	reaper      OrphanReaper
	logger      *slog.Logger
}

// AuthenticatorOption は Authenticator の設定です。
type AuthenticatorOption func(*Authenticator)

// WithOrphanReaper は補償削除に失敗したときの後始末先を設定します。
func WithOrphanReaper(r OrphanReaper) AuthenticatorOption {
	return func(a *Authenticator) { a.reaper = r }
}

// NewAuthenticator は Authenticator を作成します。
func NewAuthenticator(
	accounts store.Repository[models.Account],
	credentials store.Repository[models.Credential],
	vault PasswordVault,
	logger *slog.Logger,
	opts ...AuthenticatorOption,
) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{
		accounts:    accounts,
		credentials: credentials,
		vault:       vault,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Signup はアカウントと資格情報を作成します。セッションは発行しません。
func (a *Authenticator) Signup(ctx context.Context, username, password string) (*models.Account, error) {
	if username == "" {
		return nil, oops.Code("AUTH_INVALID_USERNAME").Wrap(ErrInvalidUsername)
	}

	existing, err := a.accounts.ReadByFilter(ctx, store.Filter{"username": username})
	if err != nil {
		return nil, oops.Code("AUTH_STORE_FAILED").With("operation", "find account").Wrap(err)
	}
	if len(existing) > 0 {
		return nil, oops.Code("AUTH_USERNAME_TAKEN").With("username", username).Wrap(ErrDuplicateUsername)
	}

	// 書き込みより先にハッシュ化して、失敗時に何も残さない
	hash, salt, err := a.vault.Hash(password)
	if err != nil {
		return nil, err
	}

	account, err := a.accounts.Create(ctx, models.Account{
		ID:       uuid.NewString(),
		Username: username,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, oops.Code("AUTH_USERNAME_TAKEN").With("username", username).Wrap(ErrDuplicateUsername)
		}
		return nil, oops.Code("AUTH_STORE_FAILED").With("operation", "create account").Wrap(err)
	}

	_, err = a.credentials.Create(ctx, models.Credential{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		PasswordHash: hash,
		Salt:         salt,
	})
	if err != nil {
		a.compensate(ctx, account.ID)
		return nil, oops.Code("AUTH_STORE_FAILED").
			With("operation", "create credential").
			With("account_id", account.ID).
			Wrap(err)
	}

	return &account, nil
}

// compensate は資格情報の作成に失敗したアカウントを取り消します。
func (a *Authenticator) compensate(ctx context.Context, accountID string) {
	_, err := a.accounts.DeleteByID(ctx, accountID)
	if err == nil {
		return
	}
	a.logger.WarnContext(ctx, "failed to roll back account", "account_id", accountID, "error", err)

	if a.reaper == nil {
		a.logger.ErrorContext(ctx, "orphan account left behind", "account_id", accountID)
		return
	}
	if err := a.reaper.ScheduleOrphanPurge(ctx, accountID); err != nil {
		a.logger.ErrorContext(ctx, "failed to schedule orphan purge", "account_id", accountID, "error", err)
	}
}

// Login はユーザー名とパスワードを検証し、アカウントを返します。
func (a *Authenticator) Login(ctx context.Context, username, password string) (*models.Account, error) {
	accounts, err := a.accounts.ReadByFilter(ctx, store.Filter{"username": username})
	if err != nil {
		return nil, oops.Code("AUTH_STORE_FAILED").With("operation", "find account").Wrap(err)
	}

	switch len(accounts) {
	case 0:
		_, _ = a.vault.Verify(password, dummyPasswordHash)
		return nil, oops.Code("AUTH_ACCOUNT_NOT_FOUND").With("username", username).Wrap(ErrAccountNotFound)
	case 1:
	default:
		return nil, oops.Code("AUTH_INTEGRITY").
			With("username", username).
			With("matches", len(accounts)).
			Wrap(ErrIntegrity)
	}
	account := accounts[0]

	creds, err := a.credentials.ReadByFilter(ctx, store.Filter{"account_id": account.ID})
	if err != nil {
		return nil, oops.Code("AUTH_STORE_FAILED").With("operation", "find credential").Wrap(err)
	}
	switch len(creds) {
	case 0:
		a.logger.WarnContext(ctx, "account has no credential", "account_id", account.ID)
		_, _ = a.vault.Verify(password, dummyPasswordHash)
		return nil, oops.Code("AUTH_FAILED").With("account_id", account.ID).Wrap(ErrAuthenticationFailed)
	case 1:
	default:
		return nil, oops.Code("AUTH_INTEGRITY").
			With("account_id", account.ID).
			With("matches", len(creds)).
			Wrap(ErrIntegrity)
	}

	ok, err := a.vault.Verify(password, creds[0].PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_VERIFY_FAILED").With("account_id", account.ID).Wrap(err)
	}
	if !ok {
		return nil, oops.Code("AUTH_FAILED").With("account_id", account.ID).Wrap(ErrAuthenticationFailed)
	}
	return &account, nil
}
