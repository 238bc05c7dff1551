package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/five82/swapp/internal/market"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api_message", fmt.Errorf("get item 1: %w", &market.APIError{Status: 400, Message: "price_min: must be positive"}), "price_min: must be positive"},
		{"api_status", &market.APIError{Status: 404}, "Not Found"},
		{"deadline", fmt.Errorf("get user: %w", context.DeadlineExceeded), "request timed out"},
		{"canceled", context.Canceled, "request cancelled"},
		{"network", fmt.Errorf("search: %w", &net.OpError{Op: "dial", Err: errors.New("connection refused")}), "cannot reach the marketplace"},
		{"sentinel", fmt.Errorf("wrapped: %w", ErrEmptyComment), "comment is empty"},
		{"plain", errors.New("login: boom"), "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Describe(tc.err))
		})
	}
}
