package activation

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"log/slog"

	"github.com/google/uuid"

	"code.mfactor.org/golang/internal/observability"
	"code.mfactor.org/golang/pkg/counter"
	"code.mfactor.org/golang/pkg/keyfactory"
	"code.mfactor.org/golang/pkg/primitives"
	"code.mfactor.org/golang/pkg/signature"
)

// Client drives the device side of the activation ceremony.
//
// A Client is single-use: it walks Idle -> Started -> KeyExchanged -> Active
// once, any failure resets it to Idle and discards the partial key material.
type Client struct {
	Provider primitives.Provider
	Facto    keyfactory.Factory
	Encoder  primitives.KeyEncoder
	Engine   signature.Engine

	// MasterPublicKey is the provisioned long-term server key used to
	// authenticate the key exchange.
	MasterPublicKey *ecdsa.PublicKey

	Logger *slog.Logger

	state        ClientState
	deviceKey    *ecdh.PrivateKey
	activationId uuid.UUID
	keys         keyfactory.SecretKeys
	ctr          counter.Counter
	session      []byte
}

// State returns the ceremony state of the Client.
func (self *Client) State() ClientState {
	return self.state
}

// Start generates the device key pair and builds the opening ActivationRequest.
// code and otp come from the out-of-band provisioning channel.
func (self *Client) Start(code, otp string) (ActivationRequest, error) {
	if StateIdle != self.state {
		return ActivationRequest{}, newFlagError(ErrProtocolViolation, "Start in state %d", self.state)
	}
	if nil == self.MasterPublicKey {
		return ActivationRequest{}, newError("missing MasterPublicKey")
	}

	deviceKey, err := self.Provider.GenerateKeyPair()
	if nil != err {
		return ActivationRequest{}, wrapError(err, "failed generating device key pair")
	}
	devicePub, err := self.Encoder.EncodePoint(deviceKey.PublicKey())
	if nil != err {
		return ActivationRequest{}, wrapError(err, "failed encoding device public key")
	}

	req := ActivationRequest{Code: code, Otp: otp, DevicePublicKey: devicePub}
	err = req.Check()
	if nil != err {
		return ActivationRequest{}, wrapError(err, "invalid request")
	}

	self.deviceKey = deviceKey
	self.state = StateStarted
	self.log().Debug("activation started", "code", code)
	return req, nil
}

// ProcessResponse authenticates the server reply, derives the protocol keys
// and returns the device key fingerprint to display to the user.
func (self *Client) ProcessResponse(resp ActivationResponse) (string, error) {
	if StateStarted != self.state {
		return "", newFlagError(ErrProtocolViolation, "ProcessResponse in state %d", self.state)
	}
	err := resp.Check()
	if nil != err {
		self.reset()
		return "", wrapError(err, "invalid response")
	}

	serverPub, err := self.Encoder.DecodePoint(resp.ServerPublicKey)
	if nil != err {
		self.reset()
		return "", wrapError(err, "invalid server public key")
	}

	// authenticate the exchange before touching any key derivation
	devicePub, err := self.Encoder.EncodePoint(self.deviceKey.PublicKey())
	if nil != err {
		self.reset()
		return "", wrapError(err, "failed encoding device public key")
	}
	proof := append(append([]byte{}, devicePub...), resp.ServerPublicKey...)
	if !primitives.EcdsaVerify(self.MasterPublicKey, proof, resp.Signature) {
		self.reset()
		return "", newFlagError(ErrProtocolViolation, "server signature did not verify")
	}

	masterSecret, err := self.Facto.SharedSecret(self.deviceKey, serverPub)
	if nil != err {
		self.reset()
		return "", wrapError(err, "failed master secret agreement")
	}
	keys, err := self.Facto.DeriveAll(masterSecret)
	if nil != err {
		self.reset()
		return "", wrapError(err, "failed key expansion")
	}

	seed, err := primitives.AesCbcDecrypt(resp.EncryptedCtrSeed, make([]byte, 16), keys.Transport, primitives.PaddingNone)
	if nil != err {
		self.reset()
		return "", wrapError(err, "failed counter seed decryption")
	}
	ctr, err := counter.NewHashChain(seed)
	if nil != err {
		self.reset()
		return "", wrapError(err, "invalid counter seed")
	}

	self.activationId = resp.ActivationId
	self.keys = keys
	self.ctr = ctr
	self.session = resp.Session
	self.state = StateKeyExchanged
	self.log().Debug("activation key exchange completed", "activationId", resp.ActivationId)

	return Fingerprint(self.deviceKey.PublicKey())
}

// Confirm closes the ceremony with a possession-factor signature and
// advances the signing counter past the confirmation.
func (self *Client) Confirm() (Confirmation, error) {
	if StateKeyExchanged != self.state {
		return Confirmation{}, newFlagError(ErrProtocolViolation, "Confirm in state %d", self.state)
	}

	srzsig, err := self.Engine.Compute(confirmationData(self.activationId), [][]byte{self.keys.Possession}, self.ctr)
	if nil != err {
		self.reset()
		return Confirmation{}, wrapError(err, "failed confirmation signature")
	}
	self.ctr = self.ctr.Advance()
	self.state = StateActive
	self.log().Debug("activation confirmed", "activationId", self.activationId)

	return Confirmation{ActivationId: self.activationId, Signature: srzsig, Session: self.session}, nil
}

// Record returns the activation record to persist on the device.
// It errors unless the ceremony completed.
func (self *Client) Record() (Record, error) {
	if StateActive != self.state {
		return Record{}, newFlagError(ErrProtocolViolation, "Record in state %d", self.state)
	}
	rv := Record{
		Id:                self.activationId,
		Status:            STATUS_ACTIVE,
		Possession:        self.keys.Possession,
		Knowledge:         self.keys.Knowledge,
		Biometry:          self.keys.Biometry,
		Transport:         self.keys.Transport,
		Vault:             self.keys.Vault,
		MaxFailedAttempts: defaultMaxFailedAttempts,
	}
	rv.SetCounter(self.ctr)
	return rv, nil
}

// reset discards all ceremony state, the activation attempt is over.
func (self *Client) reset() {
	*self = Client{
		Provider:        self.Provider,
		Facto:           self.Facto,
		Encoder:         self.Encoder,
		Engine:          self.Engine,
		MasterPublicKey: self.MasterPublicKey,
		Logger:          self.Logger,
	}
}

func (self *Client) log() *slog.Logger {
	if nil == self.Logger {
		return observability.NoopLogger()
	}
	return self.Logger
}
