package buffer

import "unicode/utf8"

// completeRunes splits p before a trailing UTF-8 sequence that still needs
// more bytes. Bytes that can never start a valid rune are left in complete.
func completeRunes(p []byte) (complete, partial []byte) {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if utf8.FullRune(p[i:]) {
			return p, nil
		}
		return p[:i], p[i:]
	}
	return p, nil
}
