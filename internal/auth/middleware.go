package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const callerKey contextKey = "caller"

// CallerFromContext returns the authenticated caller identity set by the
// middleware.
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey).(string)
	return caller
}

// WithCaller injects a caller identity directly; handler tests use this
// instead of minting tokens.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// Middleware authenticates every request and puts the caller identity into
// the request context. With an OIDC issuer configured tokens are verified
// against the provider; otherwise the shared HS256 secret is used.
func Middleware(oidcIssuer, jwtSecret string) (func(http.Handler) http.Handler, error) {
	if oidcIssuer != "" {
		provider, err := oidc.NewProvider(context.Background(), oidcIssuer)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}
		verifier := provider.Verifier(&oidc.Config{
			SkipClientIDCheck: true,
		})

		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rawToken, err := ExtractTokenFromRequest(r)
				if err != nil {
					http.Error(w, err.Error(), http.StatusUnauthorized)
					return
				}

				idToken, err := verifier.Verify(r.Context(), rawToken)
				if err != nil {
					http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
					return
				}

				var claims struct {
					Sub string `json:"sub"`
				}
				if err := idToken.Claims(&claims); err != nil || claims.Sub == "" {
					http.Error(w, "failed to parse claims", http.StatusUnauthorized)
					return
				}

				ctx := context.WithValue(r.Context(), callerKey, claims.Sub)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		}, nil
	}

	if jwtSecret == "" {
		return nil, fmt.Errorf("neither OIDC_ISSUER nor JWT_SECRET configured")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			caller, err := VerifyCallerToken(rawToken, jwtSecret)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}
