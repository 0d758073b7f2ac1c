package utils

import (
	"encoding/hex"
)

// HexBinary is a byte slice that marshals to/from hexadecimal text.
// Test vector files use it for all binary fields.
type HexBinary []byte

func (self *HexBinary) UnmarshalText(text []byte) error {
	dst := make([]byte, hex.DecodedLen(len(text)))
	_, err := hex.Decode(dst, text)
	if nil != err {
		return wrapError(err, "invalid hex text")
	}

	*self = HexBinary(dst)
	return nil
}

func (self HexBinary) MarshalText() ([]byte, error) {
	dst := make([]byte, hex.EncodedLen(len(self)))
	hex.Encode(dst, []byte(self))
	return dst, nil
}
