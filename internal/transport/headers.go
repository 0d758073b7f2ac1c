package transport

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Protocol HTTP header names and version strings.
// The literal "PowerAuth" scheme tokens are part of the wire contract with
// deployed devices and must not be renamed.
const (
	HEADER_AUTHORIZATION = "X-PowerAuth-Authorization"
	HEADER_TOKEN         = "X-PowerAuth-Token"

	VERSION_CURRENT = "3.0"
	VERSION_LEGACY  = "2.1"

	headerScheme = "PowerAuth"
)

// AuthorizationHeader carries a multi-factor request signature.
type AuthorizationHeader struct {
	ActivationId   string
	ApplicationKey []byte
	Nonce          []byte
	SignatureType  string
	Signature      string
	Version        string
}

// Format renders the header value.
// Binary fields are Base64-standard, the signature travels as its decimal form.
func (self AuthorizationHeader) Format() string {
	return fmt.Sprintf(
		`%s pa_activation_id="%s" pa_application_key="%s" pa_nonce="%s" pa_signature_type="%s" pa_signature="%s" pa_version="%s"`,
		headerScheme,
		self.ActivationId,
		base64.StdEncoding.EncodeToString(self.ApplicationKey),
		base64.StdEncoding.EncodeToString(self.Nonce),
		self.SignatureType,
		self.Signature,
		self.Version,
	)
}

// ParseAuthorizationHeader parses a header value produced by Format.
func ParseAuthorizationHeader(value string) (AuthorizationHeader, error) {
	fields, err := parseHeaderFields(value)
	if nil != err {
		return AuthorizationHeader{}, err
	}
	rv := AuthorizationHeader{
		ActivationId:  fields["pa_activation_id"],
		SignatureType: fields["pa_signature_type"],
		Signature:     fields["pa_signature"],
		Version:       fields["pa_version"],
	}
	rv.ApplicationKey, err = decodeHeaderField(fields, "pa_application_key")
	if nil != err {
		return AuthorizationHeader{}, err
	}
	rv.Nonce, err = decodeHeaderField(fields, "pa_nonce")
	if nil != err {
		return AuthorizationHeader{}, err
	}
	return rv, nil
}

// TokenHeader carries a token-authenticated request digest.
type TokenHeader struct {
	TokenId     string
	TokenDigest []byte
	Nonce       []byte
	Timestamp   string
	Version     string
}

// Format renders the header value.
// Binary fields are Base64-standard, the timestamp travels as decimal text.
func (self TokenHeader) Format() string {
	return fmt.Sprintf(
		`%s token_id="%s" token_digest="%s" nonce="%s" timestamp="%s" version="%s"`,
		headerScheme,
		self.TokenId,
		base64.StdEncoding.EncodeToString(self.TokenDigest),
		base64.StdEncoding.EncodeToString(self.Nonce),
		self.Timestamp,
		self.Version,
	)
}

// ParseTokenHeader parses a header value produced by Format.
func ParseTokenHeader(value string) (TokenHeader, error) {
	fields, err := parseHeaderFields(value)
	if nil != err {
		return TokenHeader{}, err
	}
	rv := TokenHeader{
		TokenId:   fields["token_id"],
		Timestamp: fields["timestamp"],
		Version:   fields["version"],
	}
	rv.TokenDigest, err = decodeHeaderField(fields, "token_digest")
	if nil != err {
		return TokenHeader{}, err
	}
	rv.Nonce, err = decodeHeaderField(fields, "nonce")
	if nil != err {
		return TokenHeader{}, err
	}
	return rv, nil
}

// parseHeaderFields splits a `PowerAuth key="value" ...` header value.
func parseHeaderFields(value string) (map[string]string, error) {
	rest, found := strings.CutPrefix(value, headerScheme+" ")
	if !found {
		return nil, newFlagError(HeaderError, "missing %s scheme", headerScheme)
	}

	fields := map[string]string{}
	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " ")
		if 0 == len(rest) {
			break
		}
		eq := strings.IndexByte(rest, '=')
		if eq < 1 || len(rest) < eq+2 || '"' != rest[eq+1] {
			return nil, newFlagError(HeaderError, "malformed header field near %q", rest)
		}
		name := rest[:eq]
		closing := strings.IndexByte(rest[eq+2:], '"')
		if closing < 0 {
			return nil, newFlagError(HeaderError, "unterminated header field %s", name)
		}
		fields[name] = rest[eq+2 : eq+2+closing]
		rest = rest[eq+2+closing+1:]
	}
	return fields, nil
}

func decodeHeaderField(fields map[string]string, name string) ([]byte, error) {
	rv, err := base64.StdEncoding.DecodeString(fields[name])
	if nil != err {
		return nil, wrapFlagError(err, HeaderError, "invalid base64 in %s", name)
	}
	return rv, nil
}
