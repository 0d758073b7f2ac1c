package primitives

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
)

// Padding selects the block padding of an AES-CBC operation.
type Padding int

const (
	// PaddingPKCS7 pads plaintext per PKCS#7, the mode used for data payloads.
	PaddingPKCS7 = Padding(iota)

	// PaddingNone requires plaintext length to be a multiple of the block size.
	// The single-block KDF and the status blob use it.
	PaddingNone
)

// AesCbcEncrypt encrypts plain with AES-128 in CBC mode.
// key must be 16 bytes and iv must be one block.
// With PaddingNone the plaintext length must be a multiple of 16 or the call
// fails with ErrInvalidInput.
func AesCbcEncrypt(plain, iv, key []byte, padding Padding) ([]byte, error) {
	block, err := newBlock(key, iv)
	if nil != err {
		return nil, err
	}

	switch padding {
	case PaddingPKCS7:
		plain = padPkcs7(plain)
	case PaddingNone:
		if 0 != len(plain)%aes.BlockSize {
			return nil, newFlagError(ErrInvalidInput, "plaintext length %d is not a block multiple", len(plain))
		}
	default:
		return nil, newFlagError(ErrInvalidInput, "unknown padding %d", padding)
	}

	rv := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(rv, plain)
	return rv, nil
}

// AesCbcDecrypt decrypts data produced by AesCbcEncrypt.
// With PaddingPKCS7 an invalid padding surfaces as ErrCryptoFailure without
// further detail, so that callers do not leak a padding oracle.
func AesCbcDecrypt(encrypted, iv, key []byte, padding Padding) ([]byte, error) {
	block, err := newBlock(key, iv)
	if nil != err {
		return nil, err
	}
	if 0 == len(encrypted) || 0 != len(encrypted)%aes.BlockSize {
		return nil, newFlagError(ErrInvalidInput, "ciphertext length %d is not a block multiple", len(encrypted))
	}

	rv := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(rv, encrypted)

	switch padding {
	case PaddingPKCS7:
		return unpadPkcs7(rv)
	case PaddingNone:
		return rv, nil
	default:
		return nil, newFlagError(ErrInvalidInput, "unknown padding %d", padding)
	}
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if SECRET_KEY_LEN != len(key) {
		return nil, newFlagError(ErrInvalidKey, "invalid key length %d, expected %d", len(key), SECRET_KEY_LEN)
	}
	if aes.BlockSize != len(iv) {
		return nil, newFlagError(ErrInvalidInput, "invalid iv length %d, expected %d", len(iv), aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if nil != err {
		return nil, wrapFlagError(err, ErrInvalidKey, "failed cipher construction")
	}
	return block, nil
}

func padPkcs7(plain []byte) []byte {
	n := aes.BlockSize - len(plain)%aes.BlockSize
	return append(append([]byte{}, plain...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpadPkcs7(plain []byte) ([]byte, error) {
	n := int(plain[len(plain)-1])
	if 0 == n || n > aes.BlockSize || n > len(plain) {
		return nil, newFlagError(ErrCryptoFailure, "decryption failed")
	}
	for _, b := range plain[len(plain)-n:] {
		if byte(n) != b {
			return nil, newFlagError(ErrCryptoFailure, "decryption failed")
		}
	}
	return plain[:len(plain)-n], nil
}
