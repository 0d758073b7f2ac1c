package activation

import (
	"crypto/subtle"
	"strings"

	"code.mfactor.org/golang/pkg/primitives"
)

const (
	// codeAlphabet is the Base32 character set of ceremony codes and OTPs.
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

	codeGroupLen = 5
	codeGroups   = 2
)

// GenerateCode draws a human-enterable ceremony code of form XXXXX-YYYYY
// from the Base32 alphabet. Ceremony codes and activation OTPs share the format.
func GenerateCode(provider primitives.Provider) (string, error) {
	raw, err := provider.RandomBytes(codeGroupLen * codeGroups)
	if nil != err {
		return "", wrapError(err, "failed drawing code bytes")
	}

	var sb strings.Builder
	for pos, b := range raw {
		if pos > 0 && 0 == pos%codeGroupLen {
			sb.WriteByte('-')
		}
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return sb.String(), nil
}

// CheckCode errors if code does not have the XXXXX-YYYYY shape.
func CheckCode(code string) error {
	if len(code) != codeGroups*codeGroupLen+codeGroups-1 {
		return newError("invalid code length %d", len(code))
	}
	for pos, c := range code {
		if codeGroupLen == pos%(codeGroupLen+1) {
			if '-' != c {
				return newError("missing separator at %d", pos)
			}
			continue
		}
		if !strings.ContainsRune(codeAlphabet, c) {
			return newError("character at %d outside code alphabet", pos)
		}
	}
	return nil
}

// MatchCode compares two codes in constant time.
func MatchCode(candidate, expected string) bool {
	return 1 == subtle.ConstantTimeCompare([]byte(candidate), []byte(expected))
}
