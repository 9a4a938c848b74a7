package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAsFetchError(t *testing.T) {
	req := Request{URL: "https://netrewards.com.au/competitions/x/", Site: "netrewards.com.au"}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"wrapped deadline", fmt.Errorf("navigate: %w", context.DeadlineExceeded), ErrTimeout},
		{"canceled", context.Canceled, ErrTimeout},
		{"chrome net error", errors.New("page load error net::ERR_NAME_NOT_RESOLVED"), ErrNetwork},
		{"other", errors.New("could not find node"), ErrNavigation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := AsFetchError(req, tt.err)
			if fe.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", fe.Kind, tt.want)
			}
			if !errors.Is(fe, tt.err) {
				t.Error("FetchError should unwrap to its cause")
			}
			if !strings.Contains(fe.Error(), req.URL) {
				t.Errorf("Error() = %q, should name the URL", fe.Error())
			}
		})
	}

	if AsFetchError(req, nil) != nil {
		t.Error("AsFetchError(nil) should be nil")
	}

	existing := statusError(req, 404)
	if got := AsFetchError(Request{URL: "other"}, fmt.Errorf("wrap: %w", existing)); got != existing {
		t.Error("AsFetchError should return an existing FetchError unchanged")
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(&FetchError{Kind: ErrTimeout}) {
		t.Error("timeout FetchError not reported as timeout")
	}
	if IsTimeout(&FetchError{Kind: ErrStatus, StatusCode: 500}) {
		t.Error("status FetchError reported as timeout")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("bare deadline not reported as timeout")
	}
	if IsTimeout(errors.New("boom")) {
		t.Error("plain error reported as timeout")
	}
}
