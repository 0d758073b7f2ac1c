// Package activation implements the multi-factor activation ceremony that
// binds a device key pair to a server key pair, and the activation record
// both sides persist afterwards.
//
// The client walks Idle -> Started -> KeyExchanged -> Active, the server
// walks Created -> OtpUsed -> Active (Blocked/Removed are administrative
// states reached outside the ceremony). Failure at any step is fatal for the
// activation attempt, partial state is discarded.
package activation

import (
	"github.com/google/uuid"

	"code.mfactor.org/golang/pkg/counter"
	"code.mfactor.org/golang/pkg/keyfactory"
	"code.mfactor.org/golang/pkg/status"
)

// ClientState tracks the device side of the ceremony.
type ClientState int

const (
	StateIdle = ClientState(iota)
	StateStarted
	StateKeyExchanged
	StateActive
)

// Wire status bytes of an activation, as carried in the status blob.
const (
	STATUS_CREATED  = byte(1)
	STATUS_OTP_USED = byte(2)
	STATUS_ACTIVE   = byte(3)
	STATUS_BLOCKED  = byte(4)
	STATUS_REMOVED  = byte(5)
)

// Protocol version bytes carried in the status blob.
const (
	VERSION_LEGACY  = byte(2)
	VERSION_CURRENT = byte(3)
)

// Record is the persisted outcome of a completed ceremony.
// Records built by the device side leave DevicePublicKey empty, the server
// side fills it.
// All binary fields round-trip byte for byte through the stores.
type Record struct {
	Id                uuid.UUID `json:"1" cbor:"1,keyasint"`
	Status            byte      `json:"2" cbor:"2,keyasint"`
	Possession        []byte    `json:"3" cbor:"3,keyasint"`
	Knowledge         []byte    `json:"4" cbor:"4,keyasint"`
	Biometry          []byte    `json:"5" cbor:"5,keyasint"`
	Transport         []byte    `json:"6" cbor:"6,keyasint"`
	Vault             []byte    `json:"7" cbor:"7,keyasint"`
	CtrFlavor         byte      `json:"8" cbor:"8,keyasint"`
	CtrNumeric        uint64    `json:"9" cbor:"9,keyasint"`
	CtrData           []byte    `json:"10" cbor:"10,keyasint"`
	DevicePublicKey   []byte    `json:"11" cbor:"11,keyasint,omitempty"`
	FailedAttempts    byte      `json:"12" cbor:"12,keyasint"`
	MaxFailedAttempts byte      `json:"13" cbor:"13,keyasint"`
}

// Check returns an error if the Record is invalid.
func (self Record) Check() error {
	if uuid.Nil == self.Id {
		return newError("nil activation Id")
	}
	for name, key := range map[string][]byte{
		"Possession": self.Possession,
		"Knowledge":  self.Knowledge,
		"Biometry":   self.Biometry,
		"Transport":  self.Transport,
		"Vault":      self.Vault,
	} {
		if 16 != len(key) {
			return newError("invalid %s key, length != 16", name)
		}
	}
	if byte(counter.FlavorHashChain) == self.CtrFlavor && 16 != len(self.CtrData) {
		return newError("invalid CtrData, length != 16")
	}
	return nil
}

// Keys returns the named protocol keys of the Record.
func (self Record) Keys() keyfactory.SecretKeys {
	return keyfactory.SecretKeys{
		Possession: self.Possession,
		Knowledge:  self.Knowledge,
		Biometry:   self.Biometry,
		Transport:  self.Transport,
		Vault:      self.Vault,
	}
}

// Counter rebuilds the signing counter of the Record.
func (self Record) Counter() (counter.Counter, error) {
	switch counter.Flavor(self.CtrFlavor) {
	case counter.FlavorNumeric:
		return counter.NewNumeric(self.CtrNumeric), nil
	case counter.FlavorHashChain:
		ctr, err := counter.NewHashChain(self.CtrData)
		return ctr, wrapError(err, "invalid CtrData") // nil if err is nil...
	default:
		return counter.Counter{}, newError("unknown counter flavor %d", self.CtrFlavor)
	}
}

// SetCounter stores ctr back into the Record after an accepted signature.
func (self *Record) SetCounter(ctr counter.Counter) {
	self.CtrFlavor = byte(ctr.Flavor())
	switch ctr.Flavor() {
	case counter.FlavorNumeric:
		self.CtrNumeric = ctr.Numeric()
		self.CtrData = nil
	case counter.FlavorHashChain:
		self.CtrNumeric = 0
		self.CtrData = ctr.Bytes()
	}
}

// StatusBlob composes the status blob the server returns on a status query.
func (self Record) StatusBlob() status.Blob {
	currentVersion := VERSION_CURRENT
	if byte(counter.FlavorNumeric) == self.CtrFlavor {
		currentVersion = VERSION_LEGACY
	}
	return status.Blob{
		Status:            self.Status,
		CurrentVersion:    currentVersion,
		UpgradeVersion:    VERSION_CURRENT,
		FailedAttempts:    self.FailedAttempts,
		MaxFailedAttempts: self.MaxFailedAttempts,
	}
}
