package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/shape"
)

const signInURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseProvider authenticates against the Firebase Auth REST API with
// email and password. Sign-out is local only: Firebase ID tokens are
// stateless, so there is nothing to revoke server-side.
type FirebaseProvider struct {
	http   *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewFirebaseProvider creates a provider for the given web API key.
func NewFirebaseProvider(apiKey string, logger *zap.Logger) *FirebaseProvider {
	httpClient := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &FirebaseProvider{http: httpClient, apiKey: apiKey, logger: logger}
}

// SignIn exchanges the credentials for a Firebase identity.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (ProviderUser, error) {
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(map[string]any{
			"email":             email,
			"password":          password,
			"returnSecureToken": true,
		}).
		Post(signInURL)
	if err != nil {
		return ProviderUser{}, fmt.Errorf("identity provider unreachable: %w", err)
	}

	body := gjson.ParseBytes(resp.Body())
	if resp.IsError() {
		msg := shape.FirstString(body, "error.message", "message")
		if msg == "" {
			msg = resp.Status()
		}
		p.logger.Warn("provider rejected credentials", zap.String("reason", msg))
		return ProviderUser{}, fmt.Errorf("identity provider: %s", msg)
	}

	uid := shape.FirstString(body, "localId")
	if uid == "" {
		return ProviderUser{}, fmt.Errorf("identity provider returned no uid")
	}
	return ProviderUser{
		UID:   uid,
		Email: shape.FirstString(body, "email"),
		Name:  shape.FirstString(body, "displayName"),
	}, nil
}

// SignOut is a no-op: the durable token cleanup is the session store's job.
func (p *FirebaseProvider) SignOut(ctx context.Context) error { return nil }
