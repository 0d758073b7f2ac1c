package signature

import (
	"encoding/json"
	"os"

	"code.mfactor.org/golang/internal/utils"
)

// TestVector holds MFactor signature test vector fields.
type TestVector struct {
	Data       utils.HexBinary   `json:"data"`
	Keys       []utils.HexBinary `json:"keys"`
	CtrFlavor  string            `json:"ctr_flavor"`
	CtrNumeric uint64            `json:"ctr_numeric,omitempty"`
	CtrData    utils.HexBinary   `json:"ctr_data,omitempty"`
	Signature  string            `json:"signature"`
}

// LoadTestVectors loads test vectors from json file at srcpath.
func LoadTestVectors(srcpath string) ([]TestVector, error) {
	src, err := os.Open(srcpath)
	if nil != err {
		return nil, newError("failed opening file %s, got error %v", srcpath, err)
	}
	defer src.Close()
	dec := json.NewDecoder(src)
	rv := []TestVector{}
	err = dec.Decode(&rv)
	if nil != err {
		return nil, newError("failed decoding json test vectors, got error %v", err)
	}
	return rv, nil
}
