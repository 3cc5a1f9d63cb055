package profile

// Hangul blocks accepted by the profile text rules:
// Jamo (1100-11FF), Compatibility Jamo (3130-318F), Syllables (AC00-D7A3),
// Jamo Extended-A (A960-A97F), Jamo Extended-B (D7B0-D7FF).
func isHangul(r rune) bool {
	switch {
	case r >= 0x1100 && r <= 0x11FF:
		return true
	case r >= 0x3130 && r <= 0x318F:
		return true
	case r >= 0xAC00 && r <= 0xD7A3:
		return true
	case r >= 0xA960 && r <= 0xA97F:
		return true
	case r >= 0xD7B0 && r <= 0xD7FF:
		return true
	default:
		return false
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

// IsKoreanOnly reports whether text consists solely of Hangul characters and
// whitespace. The empty string qualifies.
func IsKoreanOnly(text string) bool {
	return isKoreanOnly(text)
}

func isKoreanOnly(text string) bool {
	for _, r := range text {
		if !isHangul(r) && !isSpace(r) {
			return false
		}
	}
	return true
}

// HasSpecialCharacters reports whether text contains anything outside ASCII
// alphanumerics, Hangul blocks, and whitespace.
func HasSpecialCharacters(text string) bool {
	for _, r := range text {
		if isHangul(r) || isSpace(r) {
			continue
		}
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			continue
		}
		return true
	}
	return false
}
