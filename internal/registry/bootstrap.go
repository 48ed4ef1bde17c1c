package registry

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/oraclenet/orchestrator/internal/config"
	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/logging"
)

const (
	twitterTokenURL = "https://api.twitter.com/oauth2/token"
)

// Bootstrap constructs the baseline handlers plus any dynamic handlers
// driven by the persisted SupportedURL table, registering all of
// them in registration order (baseline first, so the narrower baseline
// matches win over a dynamically configured catch-all for the same host).
// A handler that cannot obtain credentials at startup is still registered
// with an empty token. Calls through it are not rejected locally: the
// processor sends them upstream without an Authorization header and reports
// whatever status the upstream API returns.
func Bootstrap(ctx context.Context, creds config.HandlerCredentials, dynamic []domain.SupportedURL, client *http.Client, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewDefault("registry")
	}
	reg := New()

	twitter := NewHandler(
		"twitter",
		[]string{"api.x.com", "api.twitter.com"},
		[]string{"/2/tweets", "/2/users/"},
		AcceptAll,
		60*time.Second,
	)
	if creds.TwitterBearerToken != "" {
		twitter.SetToken(creds.TwitterBearerToken)
	} else if creds.TwitterClientID != "" && creds.TwitterClientSecret != "" {
		token, err := FetchClientCredentialsToken(ctx, client, twitterTokenURL, creds.TwitterClientID, creds.TwitterClientSecret)
		if err != nil {
			log.WithError(err).Warn("twitter handler startup credential exchange failed; requests will be sent without an Authorization header")
		} else {
			twitter.SetToken(token)
		}
	}
	reg.Register(twitter)

	openai := NewHandler(
		"openai",
		[]string{"api.openai.com"},
		[]string{"/v1/chat/completions"},
		NewOpenAIValidator(),
		60*time.Second,
	)
	if creds.OpenAIToken != "" {
		openai.SetToken(creds.OpenAIToken)
	} else {
		log.Warn("openai handler has no static bearer token configured; requests will be sent without an Authorization header")
	}
	reg.Register(openai)

	for _, su := range dynamic {
		reg.Register(handlerFromSupportedURL(su))
	}

	return reg
}

func handlerFromSupportedURL(su domain.SupportedURL) *Handler {
	rate := su.RequestRate
	if rate <= 0 {
		rate = 60
	}
	h := NewHandler(su.Domain, []string{su.Domain}, su.SupportedPaths, AcceptAll, time.Duration(rate)*time.Second)
	h.AuthType = su.AuthType
	switch su.AuthType {
	case domain.AuthBearer, domain.AuthOAuth2:
		h.SetToken(su.AuthKey)
	case domain.AuthOAuth1:
		// AuthKey packs "consumerKey:consumerSecret:token:tokenSecret"; the
		// request processor signs each call fresh via h.OAuth1Creds rather
		// than caching a bearer token.
		h.OAuth1Creds = parseOAuth1Key(su.AuthKey)
	}
	return h
}

func parseOAuth1Key(authKey string) OAuth1Credentials {
	parts := strings.SplitN(authKey, ":", 4)
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	return OAuth1Credentials{
		ConsumerKey:    parts[0],
		ConsumerSecret: parts[1],
		Token:          parts[2],
		TokenSecret:    parts[3],
	}
}
