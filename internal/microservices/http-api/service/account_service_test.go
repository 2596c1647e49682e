package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type accountFixture struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	clock    *testClock
	sender   *recordingSender
	accounts *accountService
	auth     AuthService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := &testClock{t: time.Now().UTC()}
	sender := &recordingSender{}
	users := repository.NewUserRepository(db)
	refresh := repository.NewRefreshTokenRepository(db)

	accounts := NewAccountService(repository.NewTransactor(db, 5*time.Second), users,
		repository.NewUserTokenRepository(db), refresh, sender,
		AccountLinks{BaseURL: "https://library.test/", ActivationTTL: 48 * time.Hour, ResetTTL: 30 * time.Minute},
		discardLogger()).(*accountService)
	accounts.now = clock.Now

	return &accountFixture{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		clock:    clock,
		sender:   sender,
		accounts: accounts,
		auth:     NewAuthService(users, refresh, accounts, testAuthConfig()),
	}
}

// lastLink returns the token carried by the newest link sent to userID.
func (f *accountFixture) lastLink(userID, kind string) string {
	f.t.Helper()
	f.sender.mu.Lock()
	defer f.sender.mu.Unlock()
	for i := len(f.sender.msgs) - 1; i >= 0; i-- {
		msg := f.sender.msgs[i]
		if msg.UserID != userID || msg.Type != kind {
			continue
		}
		_, rest, found := strings.Cut(msg.Body, "token=")
		require.True(f.t, found, "link in %q", msg.Body)
		raw, _, _ := strings.Cut(rest, " ")
		token, err := url.QueryUnescape(raw)
		require.NoError(f.t, err)
		return token
	}
	f.t.Fatalf("no %s link sent to %s", kind, userID)
	return ""
}

func (f *accountFixture) register(email string) *models.User {
	f.t.Helper()
	user, err := f.auth.Register(f.ctx, dto.RegisterRequest{Email: email, Password: "password123", FirstName: "Mai"})
	require.NoError(f.t, err)
	return user
}

func (f *accountFixture) reloadUser(id string) *models.User {
	f.t.Helper()
	var u models.User
	require.NoError(f.t, f.db.First(&u, "id = ?", id).Error)
	return &u
}

func TestAccount_ActivationIsSingleUse(t *testing.T) {
	f := newAccountFixture(t)
	user := f.register("mai@example.com")
	assert.False(t, f.reloadUser(user.ID).IsActivated)

	_, _, _, err := f.auth.Login(f.ctx, "mai@example.com", "password123")
	assert.ErrorIs(t, err, ErrAccountInactive)

	token := f.lastLink(user.ID, models.NotifyAccountActivation)
	var stored models.UserToken
	require.NoError(t, f.db.First(&stored, "user_id = ?", user.ID).Error)
	assert.NotEqual(t, token, stored.TokenHash, "only the hash is stored")

	require.NoError(t, f.accounts.Activate(f.ctx, token))
	assert.True(t, f.reloadUser(user.ID).IsActivated)
	assert.ErrorIs(t, f.accounts.Activate(f.ctx, token), ErrAccountLinkInvalid)

	access, _, _, err := f.auth.Login(f.ctx, "mai@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	// an active account gets no further links
	before := len(f.sender.types())
	require.NoError(t, f.accounts.RequestActivation(f.ctx, "mai@example.com"))
	assert.Len(t, f.sender.types(), before)
}

func TestAccount_ActivationExpires(t *testing.T) {
	f := newAccountFixture(t)
	user := f.register("lan@example.com")
	stale := f.lastLink(user.ID, models.NotifyAccountActivation)

	f.clock.Set(f.clock.Now().Add(49 * time.Hour))
	assert.ErrorIs(t, f.accounts.Activate(f.ctx, stale), ErrAccountLinkInvalid)
	assert.False(t, f.reloadUser(user.ID).IsActivated)

	require.NoError(t, f.accounts.RequestActivation(f.ctx, " LAN@example.com "))
	fresh := f.lastLink(user.ID, models.NotifyAccountActivation)
	assert.NotEqual(t, stale, fresh)
	require.NoError(t, f.accounts.Activate(f.ctx, fresh))
	assert.True(t, f.reloadUser(user.ID).IsActivated)

	assert.ErrorIs(t, f.accounts.Activate(f.ctx, "  "), ErrAccountLinkInvalid)
}

func TestAccount_ResetPassword(t *testing.T) {
	f := newAccountFixture(t)
	user := f.register("hoa@example.com")
	require.NoError(t, f.accounts.Activate(f.ctx, f.lastLink(user.ID, models.NotifyAccountActivation)))
	_, refresh, _, err := f.auth.Login(f.ctx, "hoa@example.com", "password123")
	require.NoError(t, err)

	// unknown accounts are not revealed
	before := len(f.sender.types())
	require.NoError(t, f.accounts.RequestReset(f.ctx, "nobody@example.com"))
	assert.Len(t, f.sender.types(), before)
	assert.ErrorIs(t, f.accounts.RequestReset(f.ctx, ""), ErrValidation)

	require.NoError(t, f.accounts.RequestReset(f.ctx, "hoa@example.com"))
	token := f.lastLink(user.ID, models.NotifyPasswordReset)

	// a weak password leaves the link usable
	assert.ErrorIs(t, f.accounts.ResetPassword(f.ctx, token, "short"), ErrValidation)
	require.NoError(t, f.accounts.ResetPassword(f.ctx, token, "new-password-456"))
	assert.ErrorIs(t, f.accounts.ResetPassword(f.ctx, token, "another-password"), ErrAccountLinkInvalid)

	_, _, _, err = f.auth.Login(f.ctx, "hoa@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = f.auth.Login(f.ctx, "hoa@example.com", "new-password-456")
	require.NoError(t, err)

	// sessions from before the reset are gone
	_, _, err = f.auth.RefreshAccessToken(f.ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccount_LinksAreBoundToTheirPurpose(t *testing.T) {
	f := newAccountFixture(t)
	user := f.register("binh@example.com")
	activation := f.lastLink(user.ID, models.NotifyAccountActivation)

	assert.ErrorIs(t, f.accounts.ResetPassword(f.ctx, activation, "new-password-456"), ErrAccountLinkInvalid)

	require.NoError(t, f.accounts.RequestReset(f.ctx, "binh@example.com"))
	reset := f.lastLink(user.ID, models.NotifyPasswordReset)
	f.clock.Set(f.clock.Now().Add(31 * time.Minute))
	assert.ErrorIs(t, f.accounts.ResetPassword(f.ctx, reset, "new-password-456"), ErrAccountLinkInvalid)

	// the activation link is still good after the failed attempts
	require.NoError(t, f.accounts.Activate(f.ctx, activation))
}
