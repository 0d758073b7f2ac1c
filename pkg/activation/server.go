package activation

import (
	"crypto/ecdsa"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"code.mfactor.org/golang/internal/observability"
	"code.mfactor.org/golang/internal/session"
	"code.mfactor.org/golang/pkg/counter"
	"code.mfactor.org/golang/pkg/keyfactory"
	"code.mfactor.org/golang/pkg/primitives"
	"code.mfactor.org/golang/pkg/signature"
)

const (
	defaultMaxFailedAttempts = byte(5)
)

// Provision is the out-of-band material created before a ceremony:
// the activation identifier, the ceremony code the user enters on the device
// and the OTP proving the out-of-band channel.
// Persisting provisions until the device shows up is the collaborator's job.
type Provision struct {
	ActivationId uuid.UUID `json:"1" cbor:"1,keyasint"`
	Code         string    `json:"2" cbor:"2,keyasint"`
	Otp          string    `json:"3" cbor:"3,keyasint"`
}

// Server drives the server side of the activation ceremony.
// In-flight ceremonies between the key exchange and the confirmation live in
// an expiring session store; an unconfirmed ceremony simply ages out.
type Server struct {
	Provider primitives.Provider
	Facto    keyfactory.Factory
	Encoder  primitives.KeyEncoder
	Engine   signature.Engine

	// MasterKey is the long-term key whose signature authenticates the
	// key exchange towards the device.
	MasterKey *ecdsa.PrivateKey

	Logger *slog.Logger

	sessions *session.MemStore[session.Sid, Record]
}

// NewServer returns a Server holding pending ceremonies for about ttl.
func NewServer(masterKey *ecdsa.PrivateKey, ttl time.Duration) (*Server, error) {
	if nil == masterKey {
		return nil, newError("nil master key")
	}
	clock := &session.Clock{}
	err := clock.Init(ttl)
	if nil != err {
		return nil, wrapError(err, "invalid ttl")
	}
	sessions, err := session.NewMemStore[session.Sid, Record](session.SidFactory{Clock: clock, MaxAge: 1})
	if nil != err {
		return nil, wrapError(err, "failed session store creation")
	}
	return &Server{MasterKey: masterKey, sessions: sessions}, nil
}

// NewProvision creates the out-of-band material of a fresh ceremony.
func (self *Server) NewProvision() (Provision, error) {
	code, err := GenerateCode(self.Provider)
	if nil != err {
		return Provision{}, wrapError(err, "failed code generation")
	}
	otp, err := GenerateCode(self.Provider)
	if nil != err {
		return Provision{}, wrapError(err, "failed otp generation")
	}
	return Provision{ActivationId: uuid.New(), Code: code, Otp: otp}, nil
}

// ProcessRequest validates the device request against prov, runs the server
// side of the key exchange and parks the pending activation until the device
// confirms. The collaborator looked prov up by req.Code.
func (self *Server) ProcessRequest(req ActivationRequest, prov Provision) (ActivationResponse, error) {
	err := req.Check()
	if nil != err {
		return ActivationResponse{}, wrapError(err, "invalid request")
	}
	if !MatchCode(req.Code, prov.Code) {
		return ActivationResponse{}, newFlagError(ErrProtocolViolation, "ceremony code mismatch")
	}
	if !MatchCode(req.Otp, prov.Otp) {
		return ActivationResponse{}, newFlagError(ErrInvalidOtp, "otp mismatch")
	}

	devicePub, err := self.Encoder.DecodePoint(req.DevicePublicKey)
	if nil != err {
		return ActivationResponse{}, wrapError(err, "invalid device public key")
	}

	serverKey, err := self.Provider.GenerateKeyPair()
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed generating server key pair")
	}
	serverPub, err := self.Encoder.EncodePoint(serverKey.PublicKey())
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed encoding server public key")
	}

	// prove to the device that the exchange involves this server
	proof := append(append([]byte{}, req.DevicePublicKey...), serverPub...)
	srzsig, err := self.Provider.EcdsaSign(self.MasterKey, proof)
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed signing key exchange")
	}

	masterSecret, err := self.Facto.SharedSecret(serverKey, devicePub)
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed master secret agreement")
	}
	keys, err := self.Facto.DeriveAll(masterSecret)
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed key expansion")
	}

	seed, err := self.Provider.RandomBytes(counter.CTR_LEN)
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed counter seed generation")
	}
	encryptedSeed, err := primitives.AesCbcEncrypt(seed, make([]byte, 16), keys.Transport, primitives.PaddingNone)
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed counter seed encryption")
	}

	pending := Record{
		Id:                prov.ActivationId,
		Status:            STATUS_OTP_USED,
		Possession:        keys.Possession,
		Knowledge:         keys.Knowledge,
		Biometry:          keys.Biometry,
		Transport:         keys.Transport,
		Vault:             keys.Vault,
		CtrFlavor:         byte(counter.FlavorHashChain),
		CtrData:           seed,
		DevicePublicKey:   req.DevicePublicKey,
		MaxFailedAttempts: defaultMaxFailedAttempts,
	}
	sid, err := self.sessions.Save(pending)
	if nil != err {
		return ActivationResponse{}, wrapError(err, "failed parking pending activation")
	}
	self.log().Debug("activation key exchange served", "activationId", prov.ActivationId)

	rv := ActivationResponse{
		ActivationId:     prov.ActivationId,
		ServerPublicKey:  serverPub,
		Signature:        srzsig,
		EncryptedCtrSeed: encryptedSeed,
		Session:          sid.Bytes(),
	}
	return rv, nil
}

// ProcessConfirmation verifies the closing possession signature and returns
// the Active record to persist. The pending state is consumed either way,
// a failed confirmation discards the activation attempt.
func (self *Server) ProcessConfirmation(conf Confirmation) (Record, error) {
	err := conf.Check()
	if nil != err {
		return Record{}, wrapError(err, "invalid confirmation")
	}
	sid, err := session.ParseSid(conf.Session)
	if nil != err {
		return Record{}, wrapFlagError(err, ErrProtocolViolation, "invalid session")
	}
	pending, found := self.sessions.Pop(sid)
	if !found {
		return Record{}, newFlagError(ErrProtocolViolation, "unknown or expired ceremony session")
	}
	if pending.Id != conf.ActivationId {
		return Record{}, newFlagError(ErrProtocolViolation, "activation id mismatch")
	}

	ctr, err := pending.Counter()
	if nil != err {
		return Record{}, wrapError(err, "invalid pending counter")
	}
	ok, err := self.Engine.Verify(conf.Signature, confirmationData(pending.Id), [][]byte{pending.Possession}, ctr)
	if nil != err {
		return Record{}, wrapError(err, "failed confirmation verification")
	}
	if !ok {
		return Record{}, newFlagError(ErrProtocolViolation, "confirmation signature did not verify")
	}

	pending.SetCounter(ctr.Advance())
	pending.Status = STATUS_ACTIVE
	self.log().Debug("activation confirmed", "activationId", pending.Id)
	return pending, nil
}

func (self *Server) log() *slog.Logger {
	if nil == self.Logger {
		return observability.NoopLogger()
	}
	return self.Logger
}
