package pick

import "testing"

func TestApplyDotShortCircuitsToWholeDocument(t *testing.T) {
	body := `{"data":{"public_metrics":{"followers_count":12345}}}`

	got, err := Apply(body, ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != body {
		t.Fatalf("expected round-trip of body, got %q", got)
	}

	got, err = Apply(body, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != body {
		t.Fatalf("expected round-trip of body for empty expr, got %q", got)
	}
}

func TestApplyDottedPath(t *testing.T) {
	body := `{"data":{"public_metrics":{"followers_count":12345}}}`

	got, err := Apply(body, ".data.public_metrics.followers_count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "12345" {
		t.Fatalf("expected 12345, got %q", got)
	}
}

func TestApplyBareDottedPathWithoutLeadingDot(t *testing.T) {
	body := `{"data":{"public_metrics":{"followers_count":12345}}}`

	got, err := Apply(body, "data.public_metrics.followers_count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "12345" {
		t.Fatalf("expected 12345, got %q", got)
	}
}

func TestApplyPathNotFoundFails(t *testing.T) {
	body := `{"data":{}}`

	if _, err := Apply(body, ".data.public_metrics.followers_count"); err == nil {
		t.Fatalf("expected an error when the path does not resolve")
	}
}

func TestApplyInvalidJSONFails(t *testing.T) {
	if _, err := Apply("not json", ".data.value"); err == nil {
		t.Fatalf("expected an error for non-JSON body with a non-trivial path")
	}
}
