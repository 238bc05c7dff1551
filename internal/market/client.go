package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// API is the full surface of the marketplace REST API used by swapp.
// It is implemented by *Client; consumers declare narrower interfaces.
type API interface {
	FetchCSRF(ctx context.Context) error
	Login(ctx context.Context, creds Credentials) error
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg Registration) error
	FetchAccount(ctx context.Context) (*Account, error)
	FetchUser(ctx context.Context, username string) (*UserProfile, error)
	FetchItems(ctx context.Context, query ItemQuery) ([]DetailedItem, error)
	FetchDetailedItem(ctx context.Context, id int64) (*DetailedItem, error)
	ArchiveItem(ctx context.Context, id int64) error
	RestoreItem(ctx context.Context, id int64) error
	FetchComments(ctx context.Context, itemID int64) ([]Comment, error)
	AddComment(ctx context.Context, comment CommentCreation) (CommentAck, error)
	Like(ctx context.Context, like Like) error
	CreateOffer(ctx context.Context, offer OfferCreation) (Offer, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (ImageAck, error)
	SetProfileImage(ctx context.Context, filename string, r io.Reader) (ImageAck, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the marketplace HTTP API using a cookie session.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// Options tune a Client. Zero values use defaults.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Jar               http.CookieJar
}

const (
	defaultAPIURL     = "http://127.0.0.1:8000"
	defaultUserAgent  = "swapp/0.1"
	defaultTimeout    = 10 * time.Second
	defaultRPS        = 8
	maxErrorBodyBytes = 64 << 10
	imageFormField    = "image"
)

// NewClient builds a Client for the API rooted at apiURL.
func NewClient(apiURL string, opts Options) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}

	jar := opts.Jar
	if jar == nil {
		jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}, nil
}

// BaseURL returns the API origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FetchCSRF asks the API to set the csrftoken cookie.
func (c *Client) FetchCSRF(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/csrf/", nil, nil)
}

// Login opens a cookie session.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	return c.doJSON(ctx, http.MethodPost, "/api/login/", creds, nil)
}

// Logout closes the cookie session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/logout/", nil, nil)
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.doJSON(ctx, http.MethodPost, "/api/users/", reg, nil)
}

// FetchAccount retrieves the private account of the logged-in user.
func (c *Client) FetchAccount(ctx context.Context) (*Account, error) {
	var payload Account
	if err := c.doJSON(ctx, http.MethodGet, "/api/account/", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchUser retrieves a public user profile.
func (c *Client) FetchUser(ctx context.Context, username string) (*UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	var payload UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/"+url.PathEscape(username)+"/", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchItems lists items, optionally filtered.
func (c *Client) FetchItems(ctx context.Context, query ItemQuery) ([]DetailedItem, error) {
	values := url.Values{}
	if name := strings.TrimSpace(query.Name); name != "" {
		values.Set("name", name)
	}
	if query.Category > 0 {
		values.Set("category", strconv.FormatInt(query.Category, 10))
	}
	if query.PriceMin > 0 {
		values.Set("price_min", strconv.Itoa(query.PriceMin))
	}
	if query.PriceMax > 0 {
		values.Set("price_max", strconv.Itoa(query.PriceMax))
	}
	rel := &url.URL{Path: "/api/items/", RawQuery: values.Encode()}
	var payload []DetailedItem
	if _, err := c.send(ctx, request{method: http.MethodGet, rel: rel}, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchDetailedItem retrieves one item with images and similar items.
func (c *Client) FetchDetailedItem(ctx context.Context, id int64) (*DetailedItem, error) {
	if id <= 0 {
		return nil, fmt.Errorf("item id required")
	}
	var payload DetailedItem
	if err := c.doJSON(ctx, http.MethodGet, itemPath(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ArchiveItem hides an item from the marketplace.
func (c *Client) ArchiveItem(ctx context.Context, id int64) error {
	return c.setArchived(ctx, id, true)
}

// RestoreItem puts an archived item back on the marketplace.
func (c *Client) RestoreItem(ctx context.Context, id int64) error {
	return c.setArchived(ctx, id, false)
}

func (c *Client) setArchived(ctx context.Context, id int64, archived bool) error {
	if id <= 0 {
		return fmt.Errorf("item id required")
	}
	body := struct {
		Archived bool `json:"archived"`
	}{archived}
	return c.doJSON(ctx, http.MethodPatch, itemPath(id), body, nil)
}

// FetchComments lists the comments of an item in API order.
func (c *Client) FetchComments(ctx context.Context, itemID int64) ([]Comment, error) {
	if itemID <= 0 {
		return nil, fmt.Errorf("item id required")
	}
	values := url.Values{}
	values.Set("item", strconv.FormatInt(itemID, 10))
	rel := &url.URL{Path: "/api/comments/", RawQuery: values.Encode()}
	var payload []Comment
	if _, err := c.send(ctx, request{method: http.MethodGet, rel: rel}, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AddComment posts a comment.
func (c *Client) AddComment(ctx context.Context, comment CommentCreation) (CommentAck, error) {
	var ack CommentAck
	if err := c.doJSON(ctx, http.MethodPost, "/api/comments/", comment, &ack); err != nil {
		return CommentAck{}, err
	}
	return ack, nil
}

// Like records a like. The response body is ignored.
func (c *Client) Like(ctx context.Context, like Like) error {
	return c.doJSON(ctx, http.MethodPost, "/api/likes/", like, nil)
}

// CreateOffer proposes a swap.
func (c *Client) CreateOffer(ctx context.Context, offer OfferCreation) (Offer, error) {
	var payload Offer
	if err := c.doJSON(ctx, http.MethodPost, "/api/offers/", offer, &payload); err != nil {
		return Offer{}, err
	}
	return payload, nil
}

// UploadImage sends an image as multipart/form-data. Only 201 is a success.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (ImageAck, error) {
	return c.upload(ctx, "/api/images/", filename, r)
}

// SetProfileImage replaces the logged-in user's profile picture.
func (c *Client) SetProfileImage(ctx context.Context, filename string, r io.Reader) (ImageAck, error) {
	return c.upload(ctx, "/api/account/image/", filename, r)
}

func (c *Client) upload(ctx context.Context, path, filename string, r io.Reader) (ImageAck, error) {
	if r == nil {
		return ImageAck{}, fmt.Errorf("image required")
	}
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile(imageFormField, filename)
	if err != nil {
		return ImageAck{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return ImageAck{}, fmt.Errorf("copy image: %w", err)
	}
	if err := form.Close(); err != nil {
		return ImageAck{}, fmt.Errorf("close form: %w", err)
	}

	var ack ImageAck
	header, err := c.send(ctx, request{
		method:      http.MethodPost,
		rel:         &url.URL{Path: path},
		body:        buf.Bytes(),
		contentType: form.FormDataContentType(),
		multipart:   true,
		expect:      http.StatusCreated,
	}, &ack)
	if err != nil {
		return ImageAck{}, err
	}
	ack.Location = header.Get("Location")
	return ack, nil
}

type request struct {
	method      string
	rel         *url.URL
	body        []byte
	contentType string
	multipart   bool
	expect      int // zero accepts any 2xx
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, dest any) error {
	req := request{method: method, rel: &url.URL{Path: path}}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.body = body
		req.contentType = "application/json"
	}
	_, err := c.send(ctx, req, dest)
	return err
}

func (c *Client) send(ctx context.Context, r request, dest any) (http.Header, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	reqURL := c.baseURL.ResolveReference(r.rel)
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.multipart {
		req.Header.Set("enctype", "multipart/form-data")
	}
	if isStateChanging(r.method) {
		if token := c.ensureCSRF(ctx); token != "" {
			req.Header.Set(csrfHeaderName, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 || resp.StatusCode < 200 || (r.expect != 0 && resp.StatusCode != r.expect) {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &APIError{
			Method:  r.method,
			Path:    r.rel.String(),
			Status:  resp.StatusCode,
			Message: apiMessage(raw),
		}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.Header, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}

// ensureCSRF returns the current token, asking the API for one when the jar
// holds none yet.
func (c *Client) ensureCSRF(ctx context.Context) string {
	if token := c.csrfToken(); token != "" {
		return token
	}
	rel := &url.URL{Path: "/api/csrf/"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return ""
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return c.csrfToken()
}

func itemPath(id int64) string {
	return "/api/items/" + strconv.FormatInt(id, 10) + "/"
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
