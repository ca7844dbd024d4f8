package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/herb-sales-ledger/api/responses"
	"github.com/angelmondragon/herb-sales-ledger/api/validators"
	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
	pkgredis "github.com/angelmondragon/herb-sales-ledger/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	replayedHeader        = "Idempotent-Replayed"
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can block its key.
	pendingTTL = time.Minute
)

// protectedRoutes maps "METHOD pattern" to how long a finished response is
// kept for replay. Updates and deletes address a sale by id and are
// naturally idempotent.
var protectedRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/sales": defaultIdempotencyTTL,
}

// storedResponse is what the store holds under a key. Body is base64 in JSON.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

var (
	errKeyReused    = pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	errKeyInFlight  = pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress")
	errNoStoredCopy = errors.New("no stored response")
)

// Idempotency makes sale creation safe to retry. The first request with a
// given Idempotency-Key claims the key, runs, and stores its response; later
// requests with the same key and body get that response back. Requests
// without the header, and every request when store is nil, pass through.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !ok || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, readError(err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			guard := &idempotencyGuard{
				store: store,
				key:   store.IdempotencyKey(r.Method+"|"+r.URL.Path, clientKey),
				hash:  fingerprint(r, body),
				ttl:   ttl,
			}

			stored, err := guard.lookup(ctx)
			if err == nil {
				replay(w, stored)
				return
			}
			if errors.Is(err, errNoStoredCopy) {
				err = guard.claim(ctx)
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			rec := &responseCapture{responseRecorder: responseRecorder{ResponseWriter: w}}
			next.ServeHTTP(rec, r)

			if rec.statusCode() >= http.StatusInternalServerError {
				err = guard.release(ctx)
			} else {
				err = guard.commit(ctx, rec)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "idempotency store update failed", err)
			}
		})
	}
}

func readError(err error) *pkgerrors.Error {
	var sizeErr *http.MaxBytesError
	if errors.As(err, &sizeErr) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "request body exceeds %d bytes", sizeErr.Limit)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
}

// idempotencyGuard holds one client key for the life of a request.
type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	key   string
	hash  string
	ttl   time.Duration
}

// lookup returns the finished response for the key, errNoStoredCopy when the
// key is free, or a typed error when the key cannot be used.
func (g *idempotencyGuard) lookup(ctx context.Context) (*storedResponse, error) {
	raw, err := g.store.Get(ctx, g.key)
	if errors.Is(err, pkgredis.ErrNil) || (err == nil && raw == "") {
		return nil, errNoStoredCopy
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var resp storedResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	switch {
	case resp.Fingerprint != g.hash:
		return nil, errKeyReused
	case resp.Pending:
		return nil, errKeyInFlight
	}
	return &resp, nil
}

// claim marks the key as in progress. Losing the race to a concurrent request
// reports the same errors lookup would.
func (g *idempotencyGuard) claim(ctx context.Context) error {
	payload, err := json.Marshal(storedResponse{Pending: true, Fingerprint: g.hash})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency claim")
	}
	won, err := g.store.SetNX(ctx, g.key, string(payload), pendingTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	if !won {
		return errKeyInFlight
	}
	return nil
}

func (g *idempotencyGuard) commit(ctx context.Context, rec *responseCapture) error {
	return g.save(ctx, storedResponse{
		Status:      rec.statusCode(),
		ContentType: rec.Header().Get("Content-Type"),
		Body:        rec.body.Bytes(),
		Fingerprint: g.hash,
	}, g.ttl)
}

func (g *idempotencyGuard) save(ctx context.Context, resp storedResponse, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return g.store.Set(ctx, g.key, string(payload), ttl)
}

// release frees the key so the client can retry after a server error.
func (g *idempotencyGuard) release(ctx context.Context) error {
	return g.store.Del(ctx, g.key)
}

// replay writes a stored response back, marked so clients can tell.
func replay(w http.ResponseWriter, resp *storedResponse) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}

// fingerprint ties a key to the exact request it was first used with.
func fingerprint(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + " " + r.URL.Path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// routeTTL reports whether method and chi pattern are protected. Mounted
// sub-routers report a trailing slash, which is ignored.
func routeTTL(method, pattern string) (time.Duration, bool) {
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if pattern == "" {
		return 0, false
	}
	ttl, ok := protectedRoutes[method+" "+pattern]
	return ttl, ok
}

// responseCapture tees the handler's body so it can be stored.
type responseCapture struct {
	responseRecorder
	body bytes.Buffer
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.responseRecorder.Write(b)
}
