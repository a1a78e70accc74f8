package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleConfig holds the OAuth configuration for Google sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	// HostedDomain is sent as the "hd" hint so Google offers only accounts
	// from that workspace. It is a hint; the caller must still check the email.
	HostedDomain string

	// Endpoint and UserinfoURL override Google's endpoints. Used in tests.
	Endpoint    *oauth2.Endpoint
	UserinfoURL string
}

// GoogleUser is the identity returned by Google's userinfo endpoint.
type GoogleUser struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleClient runs the authorization code flow against Google.
type GoogleClient struct {
	oauth        *oauth2.Config
	hostedDomain string
	userinfoURL  string
	httpClient   *http.Client
}

// NewGoogleClient builds a client for the Google OAuth code flow.
func NewGoogleClient(config GoogleConfig) *GoogleClient {
	endpoint := google.Endpoint
	if config.Endpoint != nil {
		endpoint = *config.Endpoint
	}
	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.CallbackURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", googleoauth2.UserinfoEmailScope, googleoauth2.UserinfoProfileScope},
		},
		hostedDomain: config.HostedDomain,
		userinfoURL:  config.UserinfoURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL builds the consent URL. state must come from GenerateState and
// be checked on callback.
func (c *GoogleClient) AuthCodeURL(state string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
	if c.hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", c.hostedDomain))
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

// Authenticate exchanges the authorization code and loads the user's profile.
func (c *GoogleClient) Authenticate(ctx context.Context, code string) (*GoogleUser, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(c.oauth.Client(ctx, token))}
	if c.userinfoURL != "" {
		opts = append(opts, option.WithEndpoint(c.userinfoURL))
	}
	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return nil, errors.New("userinfo response missing id or email")
	}

	return &GoogleUser{
		ID:            info.Id,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail != nil && *info.VerifiedEmail,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}

// GenerateState returns a random URL-safe value for the OAuth state parameter.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
