// internal/app/identity.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/gfragi/attendance-app/internal/access"
	"github.com/gfragi/attendance-app/internal/ledger"
)

// Identity is the already-authenticated fact handed to the core: credentials
// are never verified here. Verified marks identities asserted by a trusted
// channel (proxy headers, SSO cache) as opposed to typed into a form; only
// unverified emails go through the domain-suffix policy.
type Identity struct {
	Email    string
	Name     string
	Verified bool
}

func (i Identity) Anonymous() bool {
	return i.Email == ""
}

// IdentityResolver extracts the caller identity from a request. Provider
// specifics (which headers, which cache) live entirely in the
// implementations.
type IdentityResolver interface {
	Resolve(r *http.Request) Identity
}

// HeaderResolver trusts identity headers set by an auth proxy in front of
// the service.
type HeaderResolver struct{}

var proxyEmailHeaders = []string{
	"X-Auth-Request-Email",
	"X-Email",
	"X-Forwarded-Email",
	"X-User-Email",
	"X-Remote-User",
}

var proxyNameHeaders = []string{
	"X-Auth-Request-User",
	"X-User",
	"X-Forwarded-User",
	"Display-Name",
	"X-Full-Name",
}

func (HeaderResolver) Resolve(r *http.Request) Identity {
	var email, name string
	for _, h := range proxyEmailHeaders {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			email = v
			break
		}
	}
	for _, h := range proxyNameHeaders {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			name = v
			break
		}
	}

	email = access.Normalize(email)
	if email != "" && name == "" {
		name = ledger.DisplayNameFromEmail(email)
	}
	return Identity{Email: email, Name: name, Verified: email != ""}
}

// ParamResolver reads identity from query parameters. Used in manual mode;
// nothing vouches for the values, so the identity is not verified and the
// email-domain policy applies downstream.
type ParamResolver struct{}

func (ParamResolver) Resolve(r *http.Request) Identity {
	email := access.Normalize(r.URL.Query().Get("email"))
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	return Identity{Email: email, Name: name, Verified: false}
}

// RedisResolver maps a bearer token to an identity stored as a redis hash
// with email/name fields, the way an oauth2 proxy keeps its session cache.
type RedisResolver struct {
	redis       *redis.Client
	keyTemplate string
	tokenHeader string
}

func NewRedisResolver(config *Config) (*RedisResolver, error) {
	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisResolver{
		redis:       client,
		keyTemplate: config.Auth.SessionKeyTemplate,
		tokenHeader: config.Auth.TokenHeader,
	}, nil
}

func (a *RedisResolver) Resolve(r *http.Request) Identity {
	authHeader := r.Header.Get(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Identity{}
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	key := strings.NewReplacer("{token}", token).Replace(a.keyTemplate)

	fields, err := a.redis.HGetAll(r.Context(), key).Result()
	if err != nil {
		logger.Debug.Printf("Redis error resolving identity: %v", err)
		return Identity{}
	}
	if len(fields) == 0 {
		logger.Debug.Printf("No identity found for key: %s", key)
		return Identity{}
	}

	email := access.Normalize(fields["email"])
	name := strings.TrimSpace(fields["name"])
	if email != "" && name == "" {
		name = ledger.DisplayNameFromEmail(email)
	}
	return Identity{Email: email, Name: name, Verified: email != ""}
}

func (a *RedisResolver) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
