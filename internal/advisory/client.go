// Package advisory talks to the text advisory service: it sends a single
// prompt, strips optional code-fence wrapping from the reply and strictly
// decodes the remainder into a typed response.
package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// ErrServiceUnavailable is returned when the advisory call fails or times out.
var ErrServiceUnavailable = errors.New("advisory service unavailable")

// MalformedResponseError is returned when the advisory reply is not valid
// JSON for the expected schema. Raw holds the unmodified reply.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed advisory response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ChatCompleter sends one user prompt and returns the reply text.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client invokes the advisory service. It never retries; the caller decides
// whether a failed stage is re-run.
type Client struct {
	completer ChatCompleter
	timeout   time.Duration
}

// NewClient creates a Client. A zero timeout leaves the context deadline untouched.
func NewClient(completer ChatCompleter, timeout time.Duration) *Client {
	return &Client{completer: completer, timeout: timeout}
}

// Invoke sends prompt and decodes the reply into out, which must be a
// pointer to the response schema. Unknown fields and trailing data are
// rejected.
func (c *Client) Invoke(ctx context.Context, prompt string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	if err := decodeStrict(StripCodeFence(raw), out); err != nil {
		return &MalformedResponseError{Raw: raw, Err: err}
	}
	return nil
}

var (
	openingFence = regexp.MustCompile("(?i)^```[a-z0-9_+-]*[ \t]*\r?\n?")
	closingFence = regexp.MustCompile("\r?\n?```\\s*$")
)

// StripCodeFence removes a leading ```lang and trailing ``` marker, if
// present, and trims surrounding whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func decodeStrict(body string, out any) error {
	if body == "" {
		return errors.New("empty content")
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}
