package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExtractJSONObjectEmbedded(t *testing.T) {
	text := "Here is the analysis:\n```json\n{\"description\":\"A tiger\",\"style\":\"bold\"}\n```\nEnjoy!"

	var out map[string]any
	res := ExtractJSONObject(text, &out)
	if !res.Parsed {
		t.Fatalf("expected parsed, reason=%q", res.Reason)
	}
	if out["description"] != "A tiger" {
		t.Fatalf("unexpected value: %+v", out)
	}
}

func TestExtractJSONObjectMissing(t *testing.T) {
	var out map[string]any
	res := ExtractJSONObject("no braces at all", &out)
	if res.Parsed || res.Reason != ReasonNoJSONObject {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractJSONObjectInvalid(t *testing.T) {
	var out map[string]any
	res := ExtractJSONObject("{not: valid}", &out)
	if res.Parsed {
		t.Fatal("invalid JSON reported as parsed")
	}
	if !strings.HasPrefix(res.Reason, "invalid JSON") {
		t.Fatalf("reason=%q", res.Reason)
	}
}

func TestExtractJSONArray(t *testing.T) {
	var out []struct {
		Title string `json:"title"`
	}
	res := ExtractJSONArray(`Courses: [{"title":"Ink"},{"title":"Clay"}] hope this helps`, &out)
	if !res.Parsed || len(out) != 2 || out[1].Title != "Clay" {
		t.Fatalf("res=%+v out=%+v", res, out)
	}
}

func TestUpstreamStatus(t *testing.T) {
	err := fmt.Errorf("relay: %w", &UpstreamError{Target: "mistral", StatusCode: 429, Body: "slow down"})
	if got := UpstreamStatus(err); got != 429 {
		t.Fatalf("status=%d", got)
	}
	if got := UpstreamStatus(errors.New("boom")); got != 0 {
		t.Fatalf("status=%d", got)
	}
}
