package main

import (
	"encoding/binary"
	"testing"
)

func TestDecodeTitleFastPath(t *testing.T) {
	want := "Wii Sports"
	raw := make([]byte, 32)
	n := 0
	for _, r := range want {
		binary.BigEndian.PutUint16(raw[n:], uint16(r))
		n += 2
	}

	got, err := decodeTitle(raw)
	if err != nil {
		t.Fatalf("decodeTitle: %v", err)
	}
	if got != want {
		t.Fatalf("decodeTitle = %q, want %q", got, want)
	}
}

func TestDecodeTitleRejectsOddLength(t *testing.T) {
	if _, err := decodeTitle(make([]byte, 5)); err == nil {
		t.Fatalf("expected an error for an odd-length title field")
	}
}

func TestTrimTitleNul(t *testing.T) {
	if got := trimTitleNul("abc\x00\x00\x00"); got != "abc" {
		t.Fatalf("trimTitleNul = %q, want %q", got, "abc")
	}
	if got := trimTitleNul("noterminator"); got != "noterminator" {
		t.Fatalf("trimTitleNul = %q, want unchanged string", got)
	}
}
