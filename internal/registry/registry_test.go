package registry

import (
	"net/url"
	"sync"
	"testing"
	"time"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestSelectMatchesHostAndPathPrefix(t *testing.T) {
	reg := New()
	reg.Register(NewHandler("twitter", []string{"api.x.com", "api.twitter.com"}, []string{"/2/tweets", "/2/users/"}, AcceptAll, time.Minute))
	reg.Register(NewHandler("openai", []string{"api.openai.com"}, []string{"/v1/chat/completions"}, AcceptAll, time.Minute))

	h := reg.Select(mustParse(t, "https://api.x.com/2/users/by/username/elonmusk"))
	if h == nil || h.Name != "twitter" {
		t.Fatalf("expected twitter handler to match, got %v", h)
	}

	h = reg.Select(mustParse(t, "https://evil.example.com/x"))
	if h != nil {
		t.Fatalf("expected no handler to match unsupported host, got %v", h)
	}

	h = reg.Select(mustParse(t, "https://api.openai.com/v1/chat/completions"))
	if h == nil || h.Name != "openai" {
		t.Fatalf("expected openai handler to match, got %v", h)
	}
}

func TestSelectReturnsFirstRegisteredMatch(t *testing.T) {
	reg := New()
	reg.Register(NewHandler("specific", []string{"api.example.com"}, []string{"/v1/"}, AcceptAll, time.Minute))
	reg.Register(NewHandler("catchall", []string{"api.example.com"}, []string{"/"}, AcceptAll, time.Minute))

	h := reg.Select(mustParse(t, "https://api.example.com/v1/widgets"))
	if h == nil || h.Name != "specific" {
		t.Fatalf("expected first registered match to win, got %v", h)
	}
}

func TestReserveSerialisesCallsByMinInterval(t *testing.T) {
	h := NewHandler("h", []string{"example.com"}, []string{"/"}, AcceptAll, 30*time.Millisecond)

	var wg sync.WaitGroup
	times := make([]time.Time, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Reserve()
			times[i] = time.Now()
		}(i)
	}
	wg.Wait()

	// Sort by time so we can measure pairwise gaps regardless of goroutine
	// scheduling order.
	for i := 0; i < len(times); i++ {
		for j := i + 1; j < len(times); j++ {
			if times[j].Before(times[i]) {
				times[i], times[j] = times[j], times[i]
			}
		}
	}
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		if gap < 25*time.Millisecond {
			t.Fatalf("expected calls to be spaced by >= minInterval, gap %d was %v", i, gap)
		}
	}
}

func TestOpenAIValidatorAcceptsGpt4o(t *testing.T) {
	v := NewOpenAIValidator()
	if !v("/v1/chat/completions", `{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`) {
		t.Fatalf("expected gpt-4o payload to validate")
	}
	if v("/v1/chat/completions", `{"model":"gpt-3.5-turbo","messages":[{"role":"user","content":"hi"}]}`) {
		t.Fatalf("expected unapproved model to be rejected")
	}
	if v("/v1/chat/completions", `not json`) {
		t.Fatalf("expected invalid JSON to be rejected")
	}
}
