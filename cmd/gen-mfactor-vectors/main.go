// Command gen-mfactor-vectors generates protocol test vectors covering the
// key derivation, signature and token digest algorithms. Vectors are emitted
// as a json document suitable for the testdata directories of interoperating
// implementations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path"

	"code.mfactor.org/golang/internal/utils"
	"code.mfactor.org/golang/pkg/counter"
	"code.mfactor.org/golang/pkg/keyfactory"
	"code.mfactor.org/golang/pkg/signature"
	"code.mfactor.org/golang/pkg/token"
)

const usageFmt = `
Command Usage: %s [Flags]
  Generate MFactor protocol test vectors.

Flags:
------
`

var rng *rand.ChaCha8 // see init at the bottom of this file

// Vectors groups the generated vector families.
type Vectors struct {
	Kdf       []KdfVector       `json:"kdf"`
	Signature []SignatureVector `json:"signature"`
	Token     []TokenVector     `json:"token"`
}

// KdfVector records one AES-index key derivation.
type KdfVector struct {
	MasterSecret utils.HexBinary `json:"master_secret"`
	Index        uint64          `json:"index"`
	Derived      utils.HexBinary `json:"derived"`
}

// SignatureVector records one multi-factor signature computation.
type SignatureVector struct {
	Data       utils.HexBinary   `json:"data"`
	Keys       []utils.HexBinary `json:"keys"`
	CtrFlavor  string            `json:"ctr_flavor"`
	CtrNumeric uint64            `json:"ctr_numeric,omitempty"`
	CtrData    utils.HexBinary   `json:"ctr_data,omitempty"`
	Signature  string            `json:"signature"`
}

// TokenVector records one token digest computation.
type TokenVector struct {
	Nonce     utils.HexBinary `json:"nonce"`
	Timestamp string          `json:"timestamp"`
	Secret    utils.HexBinary `json:"secret"`
	Digest    utils.HexBinary `json:"digest"`
}

type Cmd struct {
	Out    *json.Encoder
	Repeat int
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	var outPath string
	flags.StringVar(&outPath, "o", "-", `path where to save the generated vectors`)
	flags.IntVar(&cmd.Repeat, "n", 4, `number of vectors per family`)

	flags.Parse(args)

	out := os.Stdout
	if "-" != outPath {
		var err error
		out, err = os.Create(outPath)
		if nil != err {
			log.Fatalf("can not create output file %s, got error %v", outPath, err)
		}
	}
	cmd.Out = json.NewEncoder(out)
	cmd.Out.SetIndent("", "  ")

	return &cmd
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])

	vectors := Vectors{}
	facto := keyfactory.Factory{}
	engine := signature.Engine{AllowLegacy: true}

	for i := 0; i < cmd.Repeat; i++ {
		kdf, err := fillKdfVector(facto)
		if nil != err {
			log.Fatalf("failed kdf vector generation, got error %v", err)
		}
		vectors.Kdf = append(vectors.Kdf, kdf)

		sig, err := fillSignatureVector(engine, i)
		if nil != err {
			log.Fatalf("failed signature vector generation, got error %v", err)
		}
		vectors.Signature = append(vectors.Signature, sig)

		tok, err := fillTokenVector()
		if nil != err {
			log.Fatalf("failed token vector generation, got error %v", err)
		}
		vectors.Token = append(vectors.Token, tok)
	}

	err := cmd.Out.Encode(vectors)
	if nil != err {
		log.Fatalf("failed encoding vectors, got error %v", err)
	}
}

func fillKdfVector(facto keyfactory.Factory) (KdfVector, error) {
	vect := KdfVector{
		MasterSecret: drawBytes(16),
		Index:        uint64(rand.IntN(3000)),
	}
	derived, err := facto.Derive(vect.MasterSecret, vect.Index)
	if nil != err {
		return vect, err
	}
	vect.Derived = utils.HexBinary(derived)
	return vect, nil
}

func fillSignatureVector(engine signature.Engine, pos int) (SignatureVector, error) {
	vect := SignatureVector{Data: drawBytes(16 + rand.IntN(64))}
	numKeys := 1 + pos%signature.MAX_KEYS
	for i := 0; i < numKeys; i++ {
		vect.Keys = append(vect.Keys, drawBytes(16))
	}

	var ctr counter.Counter
	if 0 == pos%2 {
		vect.CtrFlavor = "numeric"
		vect.CtrNumeric = uint64(rand.IntN(1000))
		ctr = counter.NewNumeric(vect.CtrNumeric)
	} else {
		vect.CtrFlavor = "hashchain"
		vect.CtrData = drawBytes(16)
		var err error
		ctr, err = counter.NewHashChain(vect.CtrData)
		if nil != err {
			return vect, err
		}
	}

	keys := make([][]byte, 0, len(vect.Keys))
	for _, key := range vect.Keys {
		keys = append(keys, []byte(key))
	}
	srzsig, err := engine.Compute(vect.Data, keys, ctr)
	if nil != err {
		return vect, err
	}
	vect.Signature = srzsig
	return vect, nil
}

func fillTokenVector() (TokenVector, error) {
	vect := TokenVector{
		Nonce:     drawBytes(16),
		Timestamp: fmt.Sprintf("%d", 1_500_000_000_000+rand.Int64N(1_000_000_000_000)),
		Secret:    drawBytes(16),
	}
	digest, err := token.ComputeDigest(vect.Nonce, []byte(vect.Timestamp), vect.Secret)
	if nil != err {
		return vect, err
	}
	vect.Digest = utils.HexBinary(digest)
	return vect, nil
}

func drawBytes(n int) utils.HexBinary {
	rv := make([]byte, n)
	rng.Read(rv) // rng.Read can not fail
	return utils.HexBinary(rv)
}

func init() {
	// vectors are test fixtures, the rng does not need to be crypto rand.Reader
	var seed [32]byte
	copy(seed[:], "mfactor-test-vector-generator")
	rng = rand.NewChaCha8(seed)
}
