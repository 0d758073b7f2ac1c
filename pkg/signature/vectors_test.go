package signature

import (
	"fmt"
	"testing"

	"code.mfactor.org/golang/pkg/counter"
)

func TestSignatureVectors(t *testing.T) {
	vectors, err := LoadTestVectors("testdata/signature-vectors.json")
	if nil != err {
		t.Fatalf("Failed loading signature-vectors.json, got error %v", err)
	}
	engine := Engine{AllowLegacy: true}
	for tn, vec := range vectors {
		t.Run(fmt.Sprintf("[%d]%s", tn, vec.CtrFlavor), func(t *testing.T) {
			testVector(t, engine, vec)
		})
	}
}

func testVector(t *testing.T, engine Engine, vec TestVector) {
	var ctr counter.Counter
	var err error
	switch vec.CtrFlavor {
	case "numeric":
		ctr = counter.NewNumeric(vec.CtrNumeric)
	case "hashchain":
		ctr, err = counter.NewHashChain(vec.CtrData)
		if nil != err {
			t.Fatalf("Failed NewHashChain, got error %v", err)
		}
	default:
		t.Fatalf("Invalid ctr_flavor %s", vec.CtrFlavor)
	}

	keys := make([][]byte, 0, len(vec.Keys))
	for _, key := range vec.Keys {
		keys = append(keys, []byte(key))
	}

	computed, err := engine.Compute(vec.Data, keys, ctr)
	if nil != err {
		t.Fatalf("Failed Compute, got error %v", err)
	}
	if vec.Signature != computed {
		t.Errorf("Failed vect/local signature match\nvsig: %s\n!=\nlsig: %s", vec.Signature, computed)
	}

	ok, err := engine.Verify(vec.Signature, vec.Data, keys, ctr)
	if nil != err {
		t.Fatalf("Failed Verify, got error %v", err)
	}
	if !ok {
		t.Error("Failed verifying vector signature")
	}
}
