package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/swapp/internal/market"
)

type fakeAPI struct {
	loginErr   error
	accountErr error
	userErr    error
	logoutErr  error

	account market.Account
	user    market.UserProfile

	calls    []string
	uploaded []byte
}

func (f *fakeAPI) Login(_ context.Context, creds market.Credentials) error {
	f.calls = append(f.calls, "login:"+creds.Username)
	return f.loginErr
}

func (f *fakeAPI) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	return f.logoutErr
}

func (f *fakeAPI) Register(_ context.Context, reg market.Registration) error {
	f.calls = append(f.calls, "register:"+reg.Username)
	return nil
}

func (f *fakeAPI) FetchAccount(context.Context) (*market.Account, error) {
	f.calls = append(f.calls, "account")
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	a := f.account
	return &a, nil
}

func (f *fakeAPI) FetchUser(_ context.Context, username string) (*market.UserProfile, error) {
	f.calls = append(f.calls, "user:"+username)
	if f.userErr != nil {
		return nil, f.userErr
	}
	u := f.user
	return &u, nil
}

func (f *fakeAPI) SetProfileImage(_ context.Context, _ string, r io.Reader) (market.ImageAck, error) {
	f.calls = append(f.calls, "picture")
	f.uploaded, _ = io.ReadAll(r)
	return market.ImageAck{ID: 1}, nil
}

func newFixture() (*fakeAPI, *Store, *Service) {
	api := &fakeAPI{
		account: market.Account{ID: 7, Username: "marlow", Email: "m@example.com"},
		user:    market.UserProfile{ID: 7, Username: "marlow", NoteAvg: 4.5},
	}
	store := &Store{}
	return api, store, NewService(store, api, nil)
}

func TestLogin_PublishesFlagAccountAndUser(t *testing.T) {
	api, store, svc := newFixture()

	var events []string
	store.SubscribeLoggedIn(func(v bool) { events = append(events, "loggedIn") })
	store.SubscribeAccount(func(a market.Account) { events = append(events, "account:"+a.Username) })
	store.SubscribeUser(func(u market.UserProfile) { events = append(events, "user:"+u.Username) })

	res, err := svc.Login(context.Background(), market.Credentials{Username: " marlow ", Password: "pw"}, false)
	require.NoError(t, err)

	assert.Equal(t, "marlow", res.Username)
	assert.False(t, res.NeedsProfilePicture)
	require.NotNil(t, res.Account)
	assert.Equal(t, "m@example.com", res.Account.Email)
	assert.Equal(t, []string{"loggedIn", "account:marlow", "user:marlow"}, events)
	assert.Equal(t, []string{"login:marlow", "account", "user:marlow"}, api.calls)

	snap := store.Snapshot()
	assert.True(t, snap.LoggedIn)
	require.NotNil(t, snap.Account)
	require.NotNil(t, snap.User)
}

func TestLogin_FailurePublishesNothing(t *testing.T) {
	api, store, svc := newFixture()
	api.loginErr = errors.New("Invalid username/password combination")

	published := 0
	store.SubscribeLoggedIn(func(bool) { published++ })
	store.SubscribeAccount(func(market.Account) { published++ })

	_, err := svc.Login(context.Background(), market.Credentials{Username: "marlow", Password: "bad"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.loginErr)
	assert.Zero(t, published)
	assert.Equal(t, Session{}, store.Snapshot())
}

func TestLogin_RejectsBlankCredentials(t *testing.T) {
	api, _, svc := newFixture()
	_, err := svc.Login(context.Background(), market.Credentials{Username: "  ", Password: "x"}, false)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Empty(t, api.calls)
}

func TestLogin_NewAccountDefersAccountFetch(t *testing.T) {
	api, store, svc := newFixture()

	res, err := svc.Login(context.Background(), market.Credentials{Username: "marlow", Password: "pw"}, true)
	require.NoError(t, err)

	assert.True(t, res.NeedsProfilePicture)
	assert.True(t, store.IsLoggedIn())
	assert.Nil(t, store.Snapshot().Account)
	assert.Equal(t, []string{"login:marlow"}, api.calls)
}

func TestLogin_ProfileFailureKeepsSession(t *testing.T) {
	api, store, svc := newFixture()
	api.userErr = errors.New("boom")

	res, err := svc.Login(context.Background(), market.Credentials{Username: "marlow", Password: "pw"}, false)
	require.NoError(t, err)
	assert.Error(t, res.ProfileErr)
	assert.NoError(t, res.AccountErr)

	snap := store.Snapshot()
	assert.True(t, snap.LoggedIn)
	assert.NotNil(t, snap.Account)
	assert.Nil(t, snap.User)
}

func TestRefreshAccount_RequiresSession(t *testing.T) {
	_, _, svc := newFixture()
	_, _, err := svc.RefreshAccount(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogout_ClearsSession(t *testing.T) {
	api, store, svc := newFixture()
	_, err := svc.Login(context.Background(), market.Credentials{Username: "marlow", Password: "pw"}, false)
	require.NoError(t, err)

	var flags []bool
	store.SubscribeLoggedIn(func(v bool) { flags = append(flags, v) })

	api.logoutErr = &market.APIError{Status: 403}
	require.NoError(t, svc.Logout(context.Background()))

	assert.Equal(t, []bool{false}, flags)
	assert.Equal(t, Session{}, store.Snapshot())
}

func TestRegister_LogsInAsNewAccount(t *testing.T) {
	api, _, svc := newFixture()
	res, err := svc.Register(context.Background(), market.Registration{Username: "newbie", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, res.NeedsProfilePicture)
	assert.Equal(t, []string{"register:newbie", "login:newbie"}, api.calls)
}

func TestCompleteProfilePicture_UploadsThenPublishes(t *testing.T) {
	api, store, svc := newFixture()
	_, err := svc.Login(context.Background(), market.Credentials{Username: "marlow", Password: "pw"}, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	res, err := svc.CompleteProfilePicture(context.Background(), &buf, "me.png")
	require.NoError(t, err)
	assert.Equal(t, "marlow", res.Username)
	assert.NotEmpty(t, api.uploaded)
	assert.Equal(t, []string{"login:marlow", "picture", "account", "user:marlow"}, api.calls)
	assert.NotNil(t, store.Snapshot().Account)
}
