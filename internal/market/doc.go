// Package market provides an HTTP client for the swap marketplace REST API.
//
// # Overview
//
// The API is a session-cookie REST service. A Client owns a cookie jar so the
// session cookie set by /api/login/ and the csrftoken cookie travel with every
// request, the way a browser would send them.
//
// # Files
//
//   - client.go: Client construction, endpoint methods, request plumbing
//   - csrf.go: csrftoken cookie lookup and the X-CSRFToken header
//   - errors.go: APIError and the messages extracted from error bodies
//   - types.go: wire types mirroring the API serializers
//
// # CSRF
//
// Every state-changing request (anything but GET/HEAD/OPTIONS) reads the
// csrftoken cookie from the jar at call time and sends it as X-CSRFToken. The
// token is never cached on the Client. When the jar holds no token yet the
// client performs one GET /api/csrf/ first.
//
// # Uploads
//
// UploadImage and SetProfileImage send multipart/form-data with the file in
// the "image" field, set the legacy "enctype: multipart/form-data" header the
// API expects, and only treat 201 Created as success.
//
// # Errors
//
// Non-2xx responses become *APIError. Its message is taken from the body: the
// first string of a JSON list, the "error"/"detail" field of an object, or the
// first field validation message. errors.Is(err, ErrUnauthorized) and
// errors.Is(err, ErrNotFound) match on status. Transport failures are wrapped
// with "execute request", JSON problems with "decode response".
//
// # Throttling
//
// Requests wait on a golang.org/x/time/rate limiter (Options.RequestsPerSecond)
// and carry a fresh X-Request-ID so server logs can be correlated with the
// client log.
package market
