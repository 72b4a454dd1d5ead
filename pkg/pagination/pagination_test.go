package pagination

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 10, 16, 9, 30, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", out, in)
	}

	empty, err := ParseCursor("  ")
	if err != nil || empty != nil {
		t.Fatalf("expected nil cursor for blank input, got %v %v", empty, err)
	}
	if _, err := ParseCursor("%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCursorIsURLSafe(t *testing.T) {
	for i := 0; i < 50; i++ {
		token := EncodeCursor(Cursor{CreatedAt: time.Now().Add(time.Duration(i) * time.Nanosecond), ID: uuid.New()})
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("cursor %q is not url safe", token)
		}
	}
	if _, err := ParseCursor(base64.RawURLEncoding.EncodeToString([]byte("no-separator"))); err == nil {
		t.Fatal("expected format error")
	}
}

func TestPage(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	key := func(c Cursor) Cursor { return c }

	page, next := Page(rows, 3, key)
	if len(page) != 3 || next == nil || next.ID != rows[2].ID {
		t.Fatalf("unexpected page %d next %+v", len(page), next)
	}
	page, next = Page(rows[:3], 3, key)
	if len(page) != 3 || next != nil {
		t.Fatalf("final page should have no cursor, got %+v", next)
	}

	clause, args := Keyset(rows[0])
	if !strings.Contains(clause, "id < ?") || len(args) != 3 || args[2] != rows[0].ID {
		t.Fatalf("unexpected keyset %q %v", clause, args)
	}
}
