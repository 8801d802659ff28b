package sha256

import (
	"testing"

	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/cv"
)

func TestHasherHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	got := h.Hash([]byte("hello world"))
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestHasherHashCV(t *testing.T) {
	t.Parallel()

	h := New()
	a := cv.CV{ReferenceNumber: "ref-1", Presentation: "welder"}
	b := a.Clone()

	hashA, err := h.HashCV(a)
	if err != nil {
		t.Fatalf("HashCV() error = %v", err)
	}
	hashB, err := h.HashCV(b)
	if err != nil {
		t.Fatalf("HashCV() error = %v", err)
	}
	if hashA != hashB {
		t.Fatalf("expected equal CVs to hash the same, got %s vs %s", hashA, hashB)
	}

	b.Presentation = "electrician"
	changed, err := h.HashCV(b)
	if err != nil {
		t.Fatalf("HashCV() error = %v", err)
	}
	if changed == hashA {
		t.Fatalf("expected a changed CV to hash differently")
	}
}
