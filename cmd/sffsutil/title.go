package main

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/leoetlino/dolphin/internal/utf16x"
)

// decodeTitle decodes a fixed-width big-endian UTF-16 title field the
// way Wii banner/save metadata embeds it, cutting the result at the
// first NUL. utf16x.ToUTF8, called with binary.BigEndian, is the fast
// path; when it reports an error, golang.org/x/text's big-endian UTF-16
// decoder is used instead, with any byte-order mark left uninterpreted
// (unicode.IgnoreBOM).
func decodeTitle(raw []byte) (string, error) {
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("title field is %d bytes, not a multiple of 2", len(raw))
	}

	fast := make([]byte, len(raw)*2)
	n, err := utf16x.ToUTF8(fast, raw, binary.BigEndian)
	if err == nil {
		return trimTitleNul(string(fast[:n])), nil
	}

	decoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, decErr := decoder.Bytes(raw)
	if decErr != nil {
		return "", fmt.Errorf("decoding title field: %w (fast path: %w)", decErr, err)
	}
	return trimTitleNul(string(out)), nil
}

func trimTitleNul(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return s[:i]
		}
	}
	return s
}
