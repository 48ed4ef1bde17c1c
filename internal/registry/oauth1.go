package registry

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // OAuth1 HMAC-SHA1 is the mandated signature method
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OAuth1Credentials holds the consumer and token secrets needed to sign an
// OAuth1 request, for handlers whose providers use the older three-legged
// signing scheme instead of OAuth2 bearer tokens.
type OAuth1Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// SignRequest computes the OAuth1 HMAC-SHA1 Authorization header value for
// the given method, URL, and form parameters, per RFC 5849 §3.4.
func (c OAuth1Credentials) SignRequest(method, rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     c.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(time.Now().Unix(), 10),
		"oauth_version":          "1.0",
	}
	if c.Token != "" {
		oauthParams["oauth_token"] = c.Token
	}

	all := make(map[string]string, len(oauthParams)+len(params))
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			all[k] = vs[0]
		}
	}
	for k, v := range params {
		all[k] = v
	}
	for k, v := range oauthParams {
		all[k] = v
	}

	baseURL := fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path)
	signature := c.signature(method, baseURL, all)
	oauthParams["oauth_signature"] = signature

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%q", percentEncode(k), percentEncode(oauthParams[k]))
	}
	return b.String(), nil
}

func (c OAuth1Credentials) signature(method, baseURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}
	paramString := strings.Join(pairs, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(paramString)
	signingKey := percentEncode(c.ConsumerSecret) + "&" + percentEncode(c.TokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func generateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
