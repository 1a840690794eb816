package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/application"
)

// IdentityCookieName is the cookie consulted when no Authorization header is sent.
const IdentityCookieName = "scheduler_identity"

// ErrInvalidIdentity is returned when an identity token cannot be trusted.
var ErrInvalidIdentity = errors.New("http: invalid identity token")

type identityClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IdentityVerifier validates HS256 identity tokens issued by the identity provider.
type IdentityVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIdentityVerifier constructs a verifier. The issuer claim is only checked
// when issuer is not empty; now defaults to time.Now.
func NewIdentityVerifier(secret []byte, issuer string, now func() time.Time) *IdentityVerifier {
	if now == nil {
		now = time.Now
	}
	return &IdentityVerifier{secret: secret, issuer: issuer, now: now}
}

// Verify parses token and returns the viewer it names. The subject carries
// the decimal user id and must not be negative.
func (v *IdentityVerifier) Verify(ctx context.Context, token string) (application.Viewer, error) {
	if v == nil || len(v.secret) == 0 {
		return application.Viewer{}, fmt.Errorf("identity verifier not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims identityClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return application.Viewer{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(claims.Subject), 10, 64)
	if err != nil || userID < 0 {
		return application.Viewer{}, fmt.Errorf("%w: subject %q", ErrInvalidIdentity, claims.Subject)
	}
	if strings.TrimSpace(claims.Username) == "" {
		return application.Viewer{}, fmt.Errorf("%w: username claim missing", ErrInvalidIdentity)
	}
	return application.Viewer{UserID: userID, Username: claims.Username}, nil
}

// IssueIdentityToken signs an identity token for viewer in the format Verify accepts.
func IssueIdentityToken(secret []byte, issuer string, viewer application.Viewer, expiresAt time.Time) (string, error) {
	claims := identityClaims{
		Username: viewer.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(viewer.UserID, 10),
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

type identityVerifier interface {
	Verify(ctx context.Context, token string) (application.Viewer, error)
}

type userRegistrar interface {
	EnsureUser(ctx context.Context, viewer application.Viewer) error
}

// RequireIdentity resolves the viewer from the request, records the user and
// stores the viewer in the request context.
func RequireIdentity(verifier identityVerifier, users userRegistrar, logger *zap.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeMessage(ctx, w, http.StatusUnauthorized, msgMissingIdentity, nil)
				return
			}

			viewer, err := verifier.Verify(ctx, token)
			if err != nil {
				responder.writeMessage(ctx, w, http.StatusUnauthorized, msgInvalidIdentity, err)
				return
			}

			if users != nil {
				if err := users.EnsureUser(ctx, viewer); err != nil {
					var vErr *application.ValidationError
					if errors.As(err, &vErr) {
						responder.writeMessage(ctx, w, http.StatusUnauthorized, msgInvalidIdentity, err)
						return
					}
					responder.writeMessage(ctx, w, http.StatusInternalServerError, msgIdentityFailure, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithViewer(ctx, viewer)))
		})
	}
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(IdentityCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
