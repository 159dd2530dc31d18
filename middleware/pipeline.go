// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/cliparse"
	"github.com/danielhkuo/pollbox/models"
	"github.com/danielhkuo/pollbox/throttle"
)

// Caller is who sent a request, resolved once and passed to handlers.
type Caller struct {
	Principal *auth.Principal // nil when anonymous
	Address   string
}

func (c Caller) Authenticated() bool {
	return c.Principal != nil
}

// Key identifies the caller for read budgets: the principal when
// authenticated, the client address otherwise.
func (c Caller) Key() string {
	if c.Principal != nil {
		return "user:" + c.Principal.UserID
	}
	return c.Address
}

// VoterKey is the identity a vote is recorded under. In principal mode an
// authenticated caller votes as their account; everyone else votes as their
// address.
func (c Caller) VoterKey(mode string) string {
	if mode == cliparse.VoterByPrincipal && c.Principal != nil {
		return "user:" + c.Principal.UserID
	}
	return c.Address
}

// Handler is an HTTP handler that receives the resolved caller.
type Handler func(w http.ResponseWriter, r *http.Request, c Caller)

// Denial stops a request before it reaches its handler.
type Denial struct {
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration
}

// Check inspects a request and returns a denial, or nil to let it through.
type Check func(r *http.Request, c Caller) *Denial

// Pipeline resolves the caller of each request and runs its checks in order.
type Pipeline struct {
	issuer     *auth.Issuer
	trustProxy bool
}

func NewPipeline(issuer *auth.Issuer, trustProxy bool) *Pipeline {
	return &Pipeline{issuer: issuer, trustProxy: trustProxy}
}

// Resolve reads the bearer token and client address. A request without a
// token is anonymous; a request with a bad token is denied.
func (p *Pipeline) Resolve(r *http.Request) (Caller, *Denial) {
	c := Caller{Address: GetClientIP(r, p.trustProxy)}

	header := r.Header.Get("Authorization")
	if header == "" {
		return c, nil
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return c, &Denial{
			Status:  http.StatusUnauthorized,
			Code:    models.CodeInvalidToken,
			Message: "Authorization header must use the Bearer scheme",
		}
	}

	principal, err := p.issuer.ParseAccess(strings.TrimSpace(token))
	if err != nil {
		return c, &Denial{
			Status:  http.StatusUnauthorized,
			Code:    models.CodeInvalidToken,
			Message: "Given token not valid for any token type",
		}
	}

	c.Principal = &principal
	return c, nil
}

// Handle builds an http.HandlerFunc that resolves the caller, runs checks in
// order and stops at the first denial, then calls h.
func (p *Pipeline) Handle(h Handler, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, denial := p.Resolve(r)
		if denial != nil {
			Deny(w, denial)
			return
		}

		for _, check := range checks {
			if denial := check(r, c); denial != nil {
				Deny(w, denial)
				return
			}
		}

		h(w, r, c)
	}
}

// Deny writes a denial as a JSON error. Throttle denials also carry
// Retry-After.
func Deny(w http.ResponseWriter, d *Denial) {
	if d.RetryAfter <= 0 {
		ErrorWithCode(w, d.Status, d.Code, d.Message)
		return
	}

	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	JSONResponse(w, d.Status, models.ErrorResponse{
		Error:      http.StatusText(d.Status),
		Message:    d.Message,
		Code:       d.Code,
		RetryAfter: secs,
	})
}

// RequireAuth denies anonymous callers.
func RequireAuth(_ *http.Request, c Caller) *Denial {
	if c.Authenticated() {
		return nil
	}
	return &Denial{
		Status:  http.StatusUnauthorized,
		Code:    models.CodeUnauthorized,
		Message: auth.ErrUnauthenticated.Error(),
	}
}

// Throttle spends one request of op's budget for the identity key picks.
func Throttle(gate *throttle.Gate, op throttle.Operation, key func(r *http.Request, c Caller) string) Check {
	return func(r *http.Request, c Caller) *Denial {
		d, _ := gate.Check(r.Context(), op, key(r, c))
		if d.Allowed {
			return nil
		}

		now := time.Now()
		return &Denial{
			Status:     http.StatusTooManyRequests,
			Code:       models.CodeRateLimited,
			Message:    "Request was throttled. Try again " + humanize.RelTime(now.Add(d.RetryAfter), now, "ago", "from now") + ".",
			RetryAfter: d.RetryAfter,
		}
	}
}

// ByAddress keys budgets by client address.
func ByAddress(_ *http.Request, c Caller) string {
	return c.Address
}

// ByCaller keys budgets by principal when authenticated, else address.
func ByCaller(_ *http.Request, c Caller) string {
	return c.Key()
}

// ByVoter keys budgets by the identity votes are recorded under.
func ByVoter(mode string) func(*http.Request, Caller) string {
	return func(_ *http.Request, c Caller) string {
		return c.VoterKey(mode)
	}
}
