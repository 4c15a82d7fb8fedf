package message

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/santif/openid/param"
)

// KeyValueForm returns the "key:value\n" encoding used for direct responses.
// Values are written verbatim.
func (m *Message) KeyValueForm() string {
	var b strings.Builder
	for _, p := range m.params.Parameters() {
		b.WriteString(p.Key)
		b.WriteByte(':')
		b.WriteString(p.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// WWWForm returns the application/x-www-form-urlencoded encoding used for
// indirect messages. Every key carries the "openid." prefix.
func (m *Message) WWWForm() (string, error) {
	params := m.params.Parameters()
	pairs := make([]string, 0, len(params))

	for _, p := range params {
		key := p.Key
		if !strings.HasPrefix(key, ProtocolPrefix) {
			key = ProtocolPrefix + key
		}
		if !utf8.ValidString(key) || !utf8.ValidString(p.Value) {
			return "", fmt.Errorf("%w: parameter %q is not valid UTF-8", ErrEncoding, p.Key)
		}
		pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(p.Value))
	}

	return strings.Join(pairs, "&"), nil
}

// Destination returns the URL an outbound message is sent to
func (m *Message) Destination() (string, bool) {
	return m.destination, m.hasDestination
}

// DestinationURL returns the destination of an outbound message.
// With appendQuery the form encoding is appended for a GET redirect;
// otherwise the verbatim destination is returned for a form POST.
func (m *Message) DestinationURL(appendQuery bool) (string, error) {
	if !m.hasDestination {
		return "", fmt.Errorf("%w: destination URL not set; is this a received message?", ErrIllegalState)
	}

	if !appendQuery {
		return m.destination, nil
	}

	query, err := m.WWWForm()
	if err != nil {
		return "", err
	}

	separator := "?"
	if strings.IndexByte(m.destination, '?') > 0 {
		separator = "&"
	}
	return m.destination + separator + query, nil
}

// ParseKeyValueForm parses a "key:value" line encoded body.
// Lines are split at the first colon; blank lines are skipped.
func ParseKeyValueForm(body string) (*param.List, error) {
	params := param.NewList()

	for i, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: line %d has no key-value separator", ErrMalformedMessage, i+1)
		}
		params.Set(param.New(key, value))
	}

	return params, nil
}

// ParseWWWForm parses a form encoded query, keeping only the "openid." keys
// in their original order
func ParseWWWForm(query string) (*param.List, error) {
	params := param.NewList()

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if !strings.HasPrefix(key, ProtocolPrefix) {
			continue
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}

		params.Set(param.New(normalizeKey(key), value))
	}

	return params, nil
}

// NewFromKeyValueForm creates a received message from a key-value form body
func NewFromKeyValueForm(body string, opts ...Option) (*Message, error) {
	params, err := ParseKeyValueForm(body)
	if err != nil {
		return nil, err
	}
	return NewFromParameters(params, opts...)
}

// NewFromWWWForm creates a received message from a form encoded query
func NewFromWWWForm(query string, opts ...Option) (*Message, error) {
	params, err := ParseWWWForm(query)
	if err != nil {
		return nil, err
	}
	return NewFromParameters(params, opts...)
}
