package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

type profileMode int

const (
	profileIdle profileMode = iota
	profileLogin
	profileRegister
	profilePicture
)

// Register form field order.
const (
	regUsername = iota
	regFirstName
	regLastName
	regEmail
	regPassword
	regConfirm
)

type loginDoneMsg struct {
	gen      uint64
	result   session.LoginResult
	err      error
	register bool
}

type pictureDoneMsg struct {
	gen    uint64
	result session.LoginResult
	err    error
}

type logoutDoneMsg struct {
	gen uint64
	err error
}

// profilePanel shows the session and hosts the login, registration and
// profile picture flows.
type profilePanel struct {
	lifecycle
	keys keyMap

	mode     profileMode
	login    form
	register form
	picture  form
	busy     bool

	loggedIn bool
	user     *market.UserProfile
	account  *market.Account

	// lastUsername prefills the login form.
	lastUsername string
}

func newProfilePanel(keys keyMap, lastUsername string) *profilePanel {
	return &profilePanel{
		keys:         keys,
		lastUsername: lastUsername,
		login: newForm(
			field("Username", "username", 150, false),
			field("Password", "password", 128, true),
		),
		register: newForm(
			field("Username", "username", 150, false),
			field("First name", "optional", 150, false),
			field("Last name", "optional", 150, false),
			field("Email", "name@example.com", 254, false),
			field("Password", "password", 128, true),
			field("Confirm", "password again", 128, true),
		),
		picture: newForm(
			field("Picture", "path to an image, empty to skip", 4096, false),
		),
	}
}

func (p *profilePanel) Mount(env *Env) tea.Cmd {
	p.mount(env)
	snap := env.store().Snapshot()
	p.loggedIn, p.user, p.account = snap.LoggedIn, snap.User, snap.Account
	p.mode, p.busy = profileIdle, false
	p.watchLoggedIn()
	p.watchUser()
	p.watchAccount()
	return nil
}

func (p *profilePanel) Unmount() { p.unmount() }

func (p *profilePanel) Capturing() bool { return p.mode != profileIdle }

func (p *profilePanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loggedInMsg:
		if p.current(msg.gen) {
			p.loggedIn = msg.loggedIn
		}
	case userMsg:
		if p.current(msg.gen) {
			p.user = msg.user
		}
	case accountMsg:
		if p.current(msg.gen) {
			p.account = msg.account
		}
	case loginDoneMsg:
		if !p.current(msg.gen) {
			return nil
		}
		return p.loginDone(msg)
	case pictureDoneMsg:
		if !p.current(msg.gen) {
			return nil
		}
		p.busy = false
		if msg.err != nil {
			return failed("Profile picture", msg.err)
		}
		p.closeForms()
		return tea.Batch(p.refreshErrors(msg.result)...)
	case logoutDoneMsg:
		if !p.current(msg.gen) {
			return nil
		}
		p.busy = false
		if msg.err != nil {
			return failed("Logout", msg.err)
		}
		return notify(toastInfo, "Logged out")
	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return nil
}

func (p *profilePanel) loginDone(msg loginDoneMsg) tea.Cmd {
	p.busy = false
	if msg.err != nil {
		prefix := "Login"
		if msg.register {
			prefix = "Registration"
		}
		return failed(prefix, msg.err)
	}

	p.login.set(1, "")
	p.register.reset()
	text := fmt.Sprintf("Logged in as %s", msg.result.Username)
	if msg.register {
		text = fmt.Sprintf("Welcome, %s", msg.result.Username)
	}
	cmds := []tea.Cmd{
		notify(toastSuccess, text),
		emit(rememberUserMsg{username: msg.result.Username}),
	}
	cmds = append(cmds, p.refreshErrors(msg.result)...)

	if msg.result.NeedsProfilePicture {
		p.closeForms()
		p.mode = profilePicture
		p.picture.reset()
		cmds = append(cmds, p.picture.open(0))
		return tea.Batch(cmds...)
	}
	p.closeForms()
	return tea.Batch(cmds...)
}

// refreshErrors reports the account half of a login separately; the login
// itself already succeeded.
func (p *profilePanel) refreshErrors(r session.LoginResult) []tea.Cmd {
	var cmds []tea.Cmd
	if r.AccountErr != nil {
		cmds = append(cmds, failed("Account", r.AccountErr))
	}
	if r.ProfileErr != nil {
		cmds = append(cmds, failed("Profile", r.ProfileErr))
	}
	return cmds
}

func (p *profilePanel) closeForms() {
	p.mode = profileIdle
	p.login.close()
	p.register.close()
	p.picture.close()
}

func (p *profilePanel) activeForm() *form {
	switch p.mode {
	case profileLogin:
		return &p.login
	case profileRegister:
		return &p.register
	case profilePicture:
		return &p.picture
	}
	return nil
}

func (p *profilePanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if f := p.activeForm(); f != nil {
		switch {
		case key.Matches(msg, p.keys.Escape):
			if p.mode == profilePicture {
				return p.submitPicture("")
			}
			p.closeForms()
			return nil
		case key.Matches(msg, p.keys.Tab):
			return f.next()
		case key.Matches(msg, p.keys.ShiftTab):
			return f.prev()
		case key.Matches(msg, p.keys.Confirm):
			if !f.onLast() {
				return f.next()
			}
			return p.submit()
		}
		return f.update(msg)
	}

	switch {
	case key.Matches(msg, p.keys.Login):
		if p.loggedIn {
			return notify(toastInfo, "Already logged in")
		}
		p.mode = profileLogin
		start := 0
		if p.login.value(0) == "" && p.lastUsername != "" {
			p.login.set(0, p.lastUsername)
		}
		if p.login.value(0) != "" {
			start = 1
		}
		return p.login.open(start)
	case key.Matches(msg, p.keys.Register):
		if p.loggedIn {
			return notify(toastInfo, "Log out before creating an account")
		}
		p.mode = profileRegister
		return p.register.open(0)
	case key.Matches(msg, p.keys.Logout):
		if !p.loggedIn || p.busy {
			return nil
		}
		p.busy = true
		gen := p.gen
		svc := p.env.Session
		return p.call(func(ctx context.Context) tea.Msg {
			return logoutDoneMsg{gen: gen, err: svc.Logout(ctx)}
		})
	}
	return nil
}

func (p *profilePanel) submit() tea.Cmd {
	if p.busy {
		return nil
	}
	gen := p.gen
	svc := p.env.Session

	switch p.mode {
	case profileLogin:
		creds := market.Credentials{
			Username: strings.TrimSpace(p.login.value(0)),
			Password: p.login.value(1),
		}
		p.busy = true
		return p.call(func(ctx context.Context) tea.Msg {
			result, err := svc.Login(ctx, creds, false)
			return loginDoneMsg{gen: gen, result: result, err: err}
		})
	case profileRegister:
		reg := market.Registration{
			Username:             strings.TrimSpace(p.register.value(regUsername)),
			FirstName:            strings.TrimSpace(p.register.value(regFirstName)),
			LastName:             strings.TrimSpace(p.register.value(regLastName)),
			Email:                strings.TrimSpace(p.register.value(regEmail)),
			Password:             p.register.value(regPassword),
			PasswordConfirmation: p.register.value(regConfirm),
		}
		if reg.PasswordConfirmation != "" && reg.PasswordConfirmation != reg.Password {
			return notify(toastError, "Passwords do not match")
		}
		p.busy = true
		return p.call(func(ctx context.Context) tea.Msg {
			result, err := svc.Register(ctx, reg)
			return loginDoneMsg{gen: gen, result: result, err: err, register: true}
		})
	case profilePicture:
		return p.submitPicture(p.picture.value(0))
	}
	return nil
}

// submitPicture uploads the chosen file, or skips the upload when path is
// empty, and then loads the new account either way.
func (p *profilePanel) submitPicture(path string) tea.Cmd {
	if p.busy {
		return nil
	}
	p.busy = true
	gen := p.gen
	svc := p.env.Session
	path = expandHome(strings.TrimSpace(path))
	return p.call(func(ctx context.Context) tea.Msg {
		if path == "" {
			result, err := svc.CompleteProfilePicture(ctx, nil, "")
			return pictureDoneMsg{gen: gen, result: result, err: err}
		}
		f, err := os.Open(path)
		if err != nil {
			return pictureDoneMsg{gen: gen, err: fmt.Errorf("open picture: %w", err)}
		}
		defer f.Close()
		result, err := svc.CompleteProfilePicture(ctx, f, filepath.Base(path))
		return pictureDoneMsg{gen: gen, result: result, err: err}
	})
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

func (p *profilePanel) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder

	switch p.mode {
	case profileLogin:
		b.WriteString(styles.Text.Bold(true).Render("Log in"))
		b.WriteString("\n\n")
		b.WriteString(p.login.view(styles))
	case profileRegister:
		b.WriteString(styles.Text.Bold(true).Render("Create an account"))
		b.WriteString("\n\n")
		b.WriteString(p.register.view(styles))
	case profilePicture:
		b.WriteString(styles.Text.Bold(true).Render("Choose a profile picture"))
		b.WriteString("\n\n")
		b.WriteString(p.picture.view(styles))
	default:
		b.WriteString(p.renderSession(styles, width))
	}

	if p.busy {
		b.WriteString("\n\n")
		b.WriteString(styles.WarningText.Render("Working…"))
	} else if p.mode != profileIdle {
		b.WriteString("\n\n")
		b.WriteString(styles.FaintText.Render("enter next/submit · tab switch field · esc cancel"))
	}
	return box(theme, "Profile", b.String(), width, height, true)
}

func (p *profilePanel) renderSession(styles Styles, width int) string {
	if !p.loggedIn {
		var lines []string
		lines = append(lines, styles.MutedText.Render("Not logged in."))
		if p.lastUsername != "" {
			lines = append(lines, styles.FaintText.Render("Last login: "+p.lastUsername))
		}
		lines = append(lines, "", styles.FaintText.Render("l log in · n create an account"))
		return strings.Join(lines, "\n")
	}

	var lines []string
	row := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, styles.MutedText.Render(padRight(label, 10))+" "+
			styles.Text.Render(truncate(value, max(width-16, 8))))
	}

	if p.account != nil {
		a := p.account
		name := strings.TrimSpace(a.FirstName + " " + a.LastName)
		lines = append(lines, styles.AccentText.Bold(true).Render(a.Username))
		row("Name", name)
		row("Email", a.Email)
		loc := joinNonEmpty(", ", a.Location.Street, a.Location.City, a.Location.Region, a.Location.Country)
		row("Location", loc)
		if len(a.Categories) > 0 {
			names := make([]string, 0, len(a.Categories))
			for _, c := range a.Categories {
				names = append(names, c.Name)
			}
			row("Interests", strings.Join(names, ", "))
		}
		if !a.IsActive {
			lines = append(lines, styles.WarningText.Render("Account inactive"))
		}
	} else {
		lines = append(lines, styles.MutedText.Render("Account not loaded yet."))
	}

	if p.user != nil {
		u := p.user
		picture := p.env.Items.Policy().Trust(u.ProfilePictureURL)
		switch {
		case u.ProfilePictureURL == "":
			row("Picture", "none")
		case picture.Trusted:
			row("Picture", picture.String())
		default:
			lines = append(lines, styles.MutedText.Render(padRight("Picture", 10))+" "+styles.Badge("untrusted"))
		}
		lines = append(lines, styles.MutedText.Render(padRight("Rating", 10))+" "+
			renderStars(fillStars(u.NoteAvg), styles)+" "+
			styles.FaintText.Render(fmt.Sprintf("%.1f from %s notes", u.NoteAvg, humanize.Comma(int64(u.Notes)))))
		active := 0
		for _, it := range u.Items {
			if !it.Archived {
				active++
			}
		}
		row("Items", fmt.Sprintf("%d listed, %d archived", active, len(u.Items)-active))
	}

	lines = append(lines, "", styles.FaintText.Render("O log out · i inventory"))
	return strings.Join(lines, "\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}
