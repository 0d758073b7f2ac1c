package activation

import (
	"github.com/google/uuid"
)

// ActivationRequest is sent by the device to start the key exchange.
// Code identifies the provisioned ceremony, Otp proves the out-of-band factor.
type ActivationRequest struct {
	Code            string `json:"1" cbor:"1,keyasint"`
	Otp             string `json:"2" cbor:"2,keyasint"`
	DevicePublicKey []byte `json:"3" cbor:"3,keyasint"`
}

// Check returns an error if the ActivationRequest is invalid.
func (self ActivationRequest) Check() error {
	if err := CheckCode(self.Code); nil != err {
		return wrapError(err, "invalid Code")
	}
	if err := CheckCode(self.Otp); nil != err {
		return wrapError(err, "invalid Otp")
	}
	if 0 == len(self.DevicePublicKey) {
		return newError("missing DevicePublicKey")
	}
	return nil
}

// ActivationResponse is the server reply carrying its ephemeral public key,
// the ECDSA proof over both public keys and the encrypted hash-chain seed.
type ActivationResponse struct {
	ActivationId     uuid.UUID `json:"1" cbor:"1,keyasint"`
	ServerPublicKey  []byte    `json:"2" cbor:"2,keyasint"`
	Signature        []byte    `json:"3" cbor:"3,keyasint"`
	EncryptedCtrSeed []byte    `json:"4" cbor:"4,keyasint"`
	Session          []byte    `json:"5" cbor:"5,keyasint"`
}

// Check returns an error if the ActivationResponse is invalid.
func (self ActivationResponse) Check() error {
	if uuid.Nil == self.ActivationId {
		return newError("nil ActivationId")
	}
	if 0 == len(self.ServerPublicKey) {
		return newError("missing ServerPublicKey")
	}
	if 0 == len(self.Signature) {
		return newError("missing Signature")
	}
	if 16 != len(self.EncryptedCtrSeed) {
		return newError("invalid EncryptedCtrSeed, length != 16")
	}
	return nil
}

// Confirmation closes the ceremony: the device proves possession of the
// derived keys with a 1FA signature over the activation identifier.
type Confirmation struct {
	ActivationId uuid.UUID `json:"1" cbor:"1,keyasint"`
	Signature    string    `json:"2" cbor:"2,keyasint"`
	Session      []byte    `json:"3" cbor:"3,keyasint"`
}

// Check returns an error if the Confirmation is invalid.
func (self Confirmation) Check() error {
	if uuid.Nil == self.ActivationId {
		return newError("nil ActivationId")
	}
	if 0 == len(self.Signature) {
		return newError("missing Signature")
	}
	if 0 == len(self.Session) {
		return newError("missing Session")
	}
	return nil
}

// confirmationData is the signature base string of the ceremony confirmation.
// Both sides derive it from the activation identifier alone.
func confirmationData(activationId uuid.UUID) []byte {
	return []byte("POST&/pa/activation/confirm&" + activationId.String())
}
