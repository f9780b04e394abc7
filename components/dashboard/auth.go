package dashboard

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

type bearerTokenKey struct{}

// ContextWithBearerToken stores the viewer's bearer token on ctx so layout
// stores can authenticate the outbound request.
func ContextWithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

// BearerTokenFrom extracts the bearer token from ctx, if present.
func BearerTokenFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(bearerTokenKey{}).(string); ok {
		return token
	}
	return ""
}

// accessToken resolves a non-empty token from src. A nil source, a failing
// source and an empty token all count as missing.
func accessToken(src oauth2.TokenSource) (string, error) {
	if src == nil {
		return "", ErrMissingToken
	}
	tok, err := src.Token()
	if err != nil {
		return "", errors.Join(ErrMissingToken, err)
	}
	if tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return "", ErrMissingToken
	}
	return tok.AccessToken, nil
}

// StaticToken returns a token source that always yields token.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

type requestIDKey struct{}

// ContextWithRequestID tags outbound layout requests for correlation.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored by ContextWithRequestID.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
