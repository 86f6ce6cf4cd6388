// Package signature authenticates processor webhook deliveries.
//
// The signature header has the form "t=<unix seconds>,v1=<hex>" where the
// hex value is HMAC-SHA256 over "<t>.<raw body>" keyed with the shared
// webhook secret. Several v1 entries may be present during secret rotation.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
)

const schemeV1 = "v1"

type Object struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// Event is a processor delivery that passed verification.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object Object `json:"object"`
	} `json:"data"`
}

type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier returns a verifier for secret. A zero tolerance disables the
// timestamp window check.
func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is empty")
	}
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}, nil
}

// WithClock returns a copy of v that reads the time from now.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	c := *v
	c.now = now
	return &c
}

// Verify checks header against body and decodes the event. Any failure of
// the header or the MAC yields domain.ErrInvalidSignature; a body that is
// authentic but not an event yields domain.ErrBadRequest.
func (v *Verifier) Verify(body []byte, header string) (*Event, error) {
	ts, sigs, err := parseHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age > v.tolerance || age < -v.tolerance {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
		}
	}

	expected := computeMAC(v.secret, ts, body)
	matched := false
	for _, sig := range sigs {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, domain.ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: event type is empty", domain.ErrBadRequest)
	}
	return &event, nil
}

// Sign builds a header accepted by a Verifier holding the same secret.
func Sign(secret string, ts time.Time, body []byte) string {
	mac := computeMAC([]byte(secret), ts.Unix(), body)
	return fmt.Sprintf("t=%d,%s=%s", ts.Unix(), schemeV1, hex.EncodeToString(mac))
}

func computeMAC(secret []byte, ts int64, body []byte) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(ts, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return m.Sum(nil)
}

func parseHeader(header string) (int64, [][]byte, error) {
	if header == "" {
		return 0, nil, errors.New("signature header is empty")
	}

	var ts int64
	var sigs [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, nil, fmt.Errorf("malformed header item %q", part)
		}
		switch key {
		case "t":
			t, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed timestamp: %w", err)
			}
			ts = t
		case schemeV1:
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			sigs = append(sigs, sig)
		}
	}

	if ts == 0 {
		return 0, nil, errors.New("timestamp is missing")
	}
	if len(sigs) == 0 {
		return 0, nil, errors.New("no v1 signature")
	}
	return ts, sigs, nil
}
