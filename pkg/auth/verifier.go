package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

// AuthError is the single error kind for all credential failures: signature,
// expiry, audience, issuer and key-set problems. Raw crypto errors never
// surface directly.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// Claims are the verified token claims
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity returns the best available user identity from the claims
func (c *Claims) Identity() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Subject
}

// ExtractToken extracts the JWT token from an Authorization header value.
// Supports "Bearer <token>" format.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("empty authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}

	return token, nil
}

// Verifier validates bearer tokens against the issuer's published key set.
// Keys are cached with a TTL and re-fetched on miss or expiry.
type Verifier struct {
	jwksURL  string
	audience string
	issuer   string
	client   *http.Client
	keys     *cache.Cache
	parser   *jwt.Parser
}

// NewVerifier creates a verifier for the given issuer domain (or full JWKS
// URL), expected audience and issuer. cacheTTL bounds how long fetched keys
// are trusted before a refresh.
func NewVerifier(domain, audience, issuer string, cacheTTL time.Duration) *Verifier {
	jwksURL := domain
	if !strings.HasPrefix(jwksURL, "http://") && !strings.HasPrefix(jwksURL, "https://") {
		jwksURL = "https://" + jwksURL
	}
	if !strings.HasSuffix(jwksURL, "/.well-known/jwks.json") {
		jwksURL = strings.TrimSuffix(jwksURL, "/") + "/.well-known/jwks.json"
	}

	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	return &Verifier{
		jwksURL:  jwksURL,
		audience: audience,
		issuer:   issuer,
		client:   &http.Client{Timeout: 10 * time.Second},
		keys:     cache.New(cacheTTL, 10*time.Minute),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(audience),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify checks signature, expiry, audience and issuer and returns the claims
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, &AuthError{Reason: "token header missing 'kid' claim"}
		}
		return v.signingKey(kid)
	})
	if err != nil {
		return nil, describeError(err)
	}

	return claims, nil
}

// signingKey returns the RSA public key for the key identifier, fetching the
// key set when it is not cached.
func (v *Verifier) signingKey(kid string) (*rsa.PublicKey, error) {
	if key, found := v.keys.Get(kid); found {
		return key.(*rsa.PublicKey), nil
	}

	if err := v.refreshKeys(); err != nil {
		return nil, err
	}

	if key, found := v.keys.Get(kid); found {
		return key.(*rsa.PublicKey), nil
	}

	return nil, &AuthError{Reason: "unable to find appropriate signing key"}
}

type jsonWebKeySet struct {
	Keys []jsonWebKey `json:"keys"`
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// refreshKeys fetches the issuer's key set and caches every RSA key in it
func (v *Verifier) refreshKeys() error {
	resp, err := v.client.Get(v.jwksURL)
	if err != nil {
		return &AuthError{Reason: fmt.Sprintf("failed to fetch key set: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &AuthError{Reason: fmt.Sprintf("key set endpoint returned status %d", resp.StatusCode)}
	}

	var keySet jsonWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keySet); err != nil {
		return &AuthError{Reason: fmt.Sprintf("malformed key set: %v", err)}
	}

	for _, k := range keySet.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		v.keys.SetDefault(k.Kid, pub)
	}

	return nil
}

// publicKey converts the JWK modulus/exponent pair to an RSA public key
func (k *jsonWebKey) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

// describeError maps jwt parse failures to a single AuthError kind with a
// descriptive message
func describeError(err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &AuthError{Reason: "token has expired"}
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return &AuthError{Reason: "token has invalid audience"}
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return &AuthError{Reason: "token has invalid issuer"}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &AuthError{Reason: "token signature is invalid"}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &AuthError{Reason: "invalid token header"}
	default:
		return &AuthError{Reason: fmt.Sprintf("invalid token: %v", err)}
	}
}
