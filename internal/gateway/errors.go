package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/five82/swapp/internal/market"
)

var (
	// ErrNotLoaded is returned when acting on an item whose detail has not
	// arrived yet.
	ErrNotLoaded = errors.New("item not loaded yet")
	// ErrEmptyComment rejects blank comments before they reach the API.
	ErrEmptyComment = errors.New("comment is empty")
	// ErrNoItemOffered rejects offers without an item in exchange.
	ErrNoItemOffered = errors.New("choose one of your items to offer")
	// ErrOwnItem rejects swaps with oneself.
	ErrOwnItem = errors.New("you already own this item")
)

// Describe turns any gateway error into the short text shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *market.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if text := http.StatusText(apiErr.Status); text != "" {
			return text
		}
		return apiErr.Error()
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "request timed out"
		}
		return "cannot reach the marketplace"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "cannot reach the marketplace"
	}

	for _, sentinel := range []error{ErrNotLoaded, ErrEmptyComment, ErrNoItemOffered, ErrOwnItem} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return msg
}
