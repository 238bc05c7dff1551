package ui

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/swapp/internal/market"
)

func mountProfile(t *testing.T, h *harness, last string) *profilePanel {
	t.Helper()
	p := newProfilePanel(DefaultKeyMap(), last)
	h.pump(p, p.Mount(h.env))
	t.Cleanup(p.Unmount)
	return p
}

func TestProfile_LoginShowsOneSuccessToast(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(market.UserProfile{Username: "marlow", FirstName: "Marlow", LastName: "Reyes"}, "pw")
	p := mountProfile(t, h, "")

	h.key(p, "l")
	require.True(t, p.Capturing())
	h.typeText(p, "marlow")
	h.key(p, "enter")
	h.typeText(p, "pw")
	h.key(p, "enter")

	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, toastSuccess, toasts[0].kind)
	assert.Contains(t, toasts[0].text, "marlow")

	assert.Contains(t, h.takeEmitted(), rememberUserMsg{username: "marlow"})
	assert.False(t, p.Capturing())
	assert.True(t, p.loggedIn)
	require.NotNil(t, p.account)
	assert.Equal(t, "marlow", p.account.Username)
	require.NotNil(t, p.user)
	assert.Equal(t, "Marlow Reyes", p.user.FullName())
	assert.Empty(t, p.login.value(1), "password is cleared")
}

func TestProfile_BadPasswordShowsError(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(market.UserProfile{Username: "marlow"}, "pw")
	p := mountProfile(t, h, "marlow")

	h.key(p, "l")
	assert.Equal(t, "marlow", p.login.value(0), "last username is prefilled")
	h.typeText(p, "nope")
	h.key(p, "enter")

	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, toastError, toasts[0].kind)
	assert.Equal(t, "Login: Invalid username or password.", toasts[0].text)
	assert.False(t, h.env.store().IsLoggedIn())
	assert.True(t, p.Capturing(), "form stays open for another try")
	assert.Empty(t, h.takeEmitted())
}

func TestProfile_RegisterThenSkipPicture(t *testing.T) {
	h := newHarness(t)
	p := mountProfile(t, h, "")

	h.key(p, "n")
	for _, v := range []string{"nova", "Nova", "Lind", "nova@example.com", "pw", "pw"} {
		h.typeText(p, v)
		h.key(p, "enter")
	}

	require.Equal(t, profilePicture, p.mode)
	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Welcome, nova", toasts[0].text)
	assert.Nil(t, p.account, "account waits for the picture step")

	h.key(p, "esc")

	assert.Equal(t, profileIdle, p.mode)
	require.NotNil(t, p.account)
	assert.Equal(t, "nova", p.account.Username)
	assert.Equal(t, "nova@example.com", p.account.Email)
	assert.Empty(t, h.takeToasts())
}

func TestProfile_RegisterWithPicture(t *testing.T) {
	h := newHarness(t)
	p := mountProfile(t, h, "")
	path := filepath.Join(t.TempDir(), "me.png")
	writePNG(t, path, 900, 600)

	h.key(p, "n")
	for _, v := range []string{"nova", "", "", "", "pw", "pw"} {
		h.typeText(p, v)
		h.key(p, "enter")
	}
	h.typeText(p, path)
	h.key(p, "enter")

	require.NotNil(t, p.account)
	assert.Contains(t, p.account.ProfilePictureURL, "/media/profiles/")
	assert.Contains(t, h.srv.Paths(), "POST /api/account/image/")
}

func TestProfile_PasswordMismatchStaysLocal(t *testing.T) {
	h := newHarness(t)
	p := mountProfile(t, h, "")

	h.key(p, "n")
	for _, v := range []string{"nova", "", "", "", "pw", "other"} {
		h.typeText(p, v)
		h.key(p, "enter")
	}

	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Passwords do not match", toasts[0].text)
	assert.NotContains(t, h.srv.Paths(), "POST /api/users/")
}

func TestProfile_Logout(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(market.UserProfile{Username: "marlow"}, "pw")
	h.login("marlow", "pw")
	p := mountProfile(t, h, "")
	require.True(t, p.loggedIn)

	h.key(p, "O")

	assert.False(t, p.loggedIn)
	assert.Nil(t, p.user)
	assert.Nil(t, p.account)
	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Logged out", toasts[0].text)
}
