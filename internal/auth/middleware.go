package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// Identity is the authenticated caller extracted from a validated token.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// CustomClaims contains the custom data we extract from the token.
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate satisfies the validator.CustomClaims interface; the standard
// claims checks are enough for us.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Middleware validates bearer tokens issued by the hosted auth service.
type Middleware struct {
	validator *validator.Validator
	required  *jwtmiddleware.JWTMiddleware
	optional  *jwtmiddleware.JWTMiddleware
}

func NewMiddleware(domain, audience string) (*Middleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT validator: %w", err)
	}

	return &Middleware{
		validator: jwtValidator,
		required:  jwtmiddleware.New(jwtValidator.ValidateToken),
		optional:  jwtmiddleware.New(jwtValidator.ValidateToken, jwtmiddleware.WithCredentialsOptional(true)),
	}, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return m.required.CheckJWT(next)
}

// OptionalAuth validates a bearer token when one is present but lets
// anonymous requests through; those are served by the local fallback paths.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return m.optional.CheckJWT(next)
}

// IdentityFromContext extracts the validated caller, or an error when the
// request carried no valid token.
func IdentityFromContext(ctx context.Context) (*Identity, error) {
	claims, ok := ctx.Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok {
		return nil, fmt.Errorf("no claims found in context")
	}

	customClaims, ok := claims.CustomClaims.(*CustomClaims)
	if !ok {
		return nil, fmt.Errorf("invalid custom claims format")
	}

	return &Identity{
		Subject: claims.RegisteredClaims.Subject,
		Email:   customClaims.Email,
		Name:    customClaims.Name,
	}, nil
}
