// Package apitest runs an in-memory marketplace API for tests. It speaks the
// same cookie session and CSRF protocol as the real backend, records every
// request, and can be told to fail specific calls.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/five82/swapp/internal/market"
)

const (
	csrfCookie    = "csrftoken"
	sessionCookie = "sessionid"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	CSRF   string
}

type failure struct {
	status  int
	message string
}

type user struct {
	profile  market.UserProfile
	password string
	email    string
}

// Server is a fake marketplace API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]*user
	items    map[int64]market.DetailedItem
	comments map[int64][]market.Comment
	likes    []market.Like
	offers   []market.OfferCreation
	sessions map[string]string
	failures map[string]failure
	requests []Request
	nextID   int64
	tokens   int
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[string]*user),
		items:    make(map[int64]market.DetailedItem),
		comments: make(map[int64][]market.Comment),
		sessions: make(map[string]string),
		failures: make(map[string]failure),
		nextID:   1000,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.inject, s.checkCSRF)

	r.Get("/api/csrf/", s.handleCSRF)
	r.Post("/api/login/", s.handleLogin)
	r.Post("/api/users/", s.handleRegister)
	r.Get("/api/users/{username}/", s.handleUser)
	r.Get("/api/items/", s.handleItems)
	r.Get("/api/items/{id}/", s.handleItem)
	r.Get("/api/comments/", s.handleComments)

	r.Group(func(auth chi.Router) {
		auth.Use(s.requireSession)
		auth.Get("/api/logout/", s.handleLogout)
		auth.Get("/api/account/", s.handleAccount)
		auth.Post("/api/account/image/", s.handleProfileImage)
		auth.Patch("/api/items/{id}/", s.handleArchive)
		auth.Post("/api/comments/", s.handleAddComment)
		auth.Post("/api/likes/", s.handleLike)
		auth.Post("/api/offers/", s.handleOffer)
		auth.Post("/api/images/", s.handleImage)
	})
	return r
}

// AddUser registers a user with a password.
func (s *Server) AddUser(profile market.UserProfile, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == 0 {
		profile.ID = s.newID()
	}
	s.users[profile.Username] = &user{profile: profile, password: password}
}

// AddItem stores an item. Items owned by a known user show up in that
// user's inventory.
func (s *Server) AddItem(item market.DetailedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == 0 {
		item.ID = s.newID()
	}
	if u, ok := s.users[item.OwnerUsername]; ok {
		item.Owner = u.profile.ID
	}
	s.items[item.ID] = item
}

// AddComment stores a comment on its item.
func (s *Server) AddComment(c market.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.newID()
	}
	s.comments[c.Item] = append(s.comments[c.Item], c)
}

// Fail makes every method+path call answer status with message until
// cleared with status 0.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = failure{status: status, message: message}
}

// Requests returns the recorded calls in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Paths returns "METHOD path" for each recorded call.
func (s *Server) Paths() []string {
	reqs := s.Requests()
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func (s *Server) Likes() []market.Like {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]market.Like(nil), s.likes...)
}

func (s *Server) Offers() []market.OfferCreation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]market.OfferCreation(nil), s.offers...)
}

// Item returns the stored item.
func (s *Server) Item(id int64) (market.DetailedItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	return it, ok
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: path, CSRF: r.Header.Get("X-CSRFToken")})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeJSON(w, f.status, map[string]string{"detail": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(csrfCookie)
		if err != nil || cookie.Value == "" || r.Header.Get("X-CSRFToken") != cookie.Value {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.currentUser(r) == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentUser(r *http.Request) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionsUserLocked(r)
}

func (s *Server) rotateCSRF(w http.ResponseWriter) {
	s.mu.Lock()
	s.tokens++
	token := "tok-" + strconv.Itoa(s.tokens)
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: token, Path: "/"})
}

func (s *Server) handleCSRF(w http.ResponseWriter, _ *http.Request) {
	s.rotateCSRF(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds market.Credentials
	if !decode(w, r, &creds) {
		return
	}
	s.mu.Lock()
	u, ok := s.users[creds.Username]
	valid := ok && u.password == creds.Password
	var sid string
	if valid {
		sid = fmt.Sprintf("sess-%d", s.newID())
		s.sessions[sid] = creds.Username
	}
	s.mu.Unlock()
	if !valid {
		writeJSON(w, http.StatusBadRequest, []string{"Invalid username or password."})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/", HttpOnly: true})
	s.rotateCSRF(w)
	writeJSON(w, http.StatusOK, map[string]string{"detail": "logged in"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg market.Registration
	if !decode(w, r, &reg) {
		return
	}
	errs := map[string][]string{}
	if strings.TrimSpace(reg.Username) == "" {
		errs["username"] = []string{"This field may not be blank."}
	}
	if reg.Password == "" || reg.Password != reg.PasswordConfirmation {
		errs["password"] = []string{"Passwords do not match."}
	}
	s.mu.Lock()
	if _, taken := s.users[reg.Username]; taken {
		errs["username"] = []string{"A user with that username already exists."}
	}
	if len(errs) == 0 {
		s.users[reg.Username] = &user{
			profile: market.UserProfile{
				ID:        s.newID(),
				Username:  reg.Username,
				FirstName: reg.FirstName,
				LastName:  reg.LastName,
			},
			password: reg.Password,
			email:    reg.Email,
		}
	}
	s.mu.Unlock()
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	name := s.currentUser(r)
	s.mu.Lock()
	u := s.users[name]
	account := market.Account{
		ID:                u.profile.ID,
		Username:          u.profile.Username,
		FirstName:         u.profile.FirstName,
		LastName:          u.profile.LastName,
		Email:             u.email,
		ProfilePictureURL: u.profile.ProfilePictureURL,
		NoteAvg:           u.profile.NoteAvg,
		Categories:        u.profile.InterestedBy,
		IsActive:          true,
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "username")
	s.mu.Lock()
	u, ok := s.users[name]
	var profile market.UserProfile
	if ok {
		profile = u.profile
		profile.Items = s.inventoryLocked(u.profile.ID)
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) inventoryLocked(owner int64) []market.InventoryItem {
	out := []market.InventoryItem{}
	for _, it := range s.items {
		if it.Owner == owner {
			out = append(out, it.InventoryItem())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.ToLower(q.Get("name"))
	minPrice, _ := strconv.Atoi(q.Get("price_min"))
	maxPrice, _ := strconv.Atoi(q.Get("price_max"))
	category, _ := strconv.ParseInt(q.Get("category"), 10, 64)

	s.mu.Lock()
	out := []market.DetailedItem{}
	for _, it := range s.items {
		switch {
		case it.Archived:
		case name != "" && !strings.Contains(strings.ToLower(it.Name), name):
		case category > 0 && it.Category.ID != category:
		case minPrice > 0 && it.PriceMax < minPrice:
		case maxPrice > 0 && it.PriceMin > maxPrice:
		default:
			out = append(out, it)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) itemFromPath(w http.ResponseWriter, r *http.Request) (market.DetailedItem, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err == nil {
		if it, ok := s.Item(id); ok {
			return it, true
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	return market.DetailedItem{}, false
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itemFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itemFromPath(w, r)
	if !ok {
		return
	}
	var body struct {
		Archived bool `json:"archived"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	owner := s.users[s.sessionsUserLocked(r)]
	if owner == nil || owner.profile.ID != it.Owner {
		s.mu.Unlock()
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not own this item."})
		return
	}
	it.Archived = body.Archived
	s.items[it.ID] = it
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) sessionsUserLocked(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return s.sessions[cookie.Value]
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("item"), 10, 64)
	s.mu.Lock()
	out := append([]market.Comment{}, s.comments[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var c market.CommentCreation
	if !decode(w, r, &c) {
		return
	}
	if strings.TrimSpace(c.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"content": {"This field may not be blank."}})
		return
	}
	s.mu.Lock()
	ack := market.CommentAck{ID: s.newID(), Date: time.Now().UTC()}
	s.comments[c.Item] = append(s.comments[c.Item], market.Comment{
		ID: ack.ID, Content: c.Content, Date: ack.Date, User: c.User, Item: c.Item,
		Username: s.sessionsUserLocked(r),
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, ack)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	var like market.Like
	if !decode(w, r, &like) {
		return
	}
	s.mu.Lock()
	s.likes = append(s.likes, like)
	if it, ok := s.items[like.Item]; ok {
		it.Likes++
		s.items[like.Item] = it
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, like)
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	var o market.OfferCreation
	if !decode(w, r, &o) {
		return
	}
	s.mu.Lock()
	s.offers = append(s.offers, o)
	offer := market.Offer{ID: s.newID(), ItemGiven: o.ItemGiven, ItemReceived: o.ItemReceived, Price: o.Price, Comment: o.Comment}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, offer)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name, ok := readUpload(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	id := s.newID()
	s.mu.Unlock()
	w.Header().Set("Location", fmt.Sprintf("/api/images/%d/", id))
	writeJSON(w, http.StatusCreated, market.Image{ID: id, URL: "/media/items/" + name})
}

func (s *Server) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	name, ok := readUpload(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	u := s.users[s.sessionsUserLocked(r)]
	id := s.newID()
	u.profile.ProfilePictureURL = "/media/profiles/" + name
	s.mu.Unlock()
	w.Header().Set("Location", "/api/account/image/")
	writeJSON(w, http.StatusCreated, market.Image{ID: id, URL: "/media/profiles/" + name})
}

func readUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Header.Get("enctype") != "multipart/form-data" {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"detail": "multipart upload required"})
		return "", false
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"image": {"No file was submitted."}})
		return "", false
	}
	defer func() { _ = file.Close() }()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return "", false
	}
	return header.Filename, true
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
