package e2e

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageWireEncoding(t *testing.T) {
	enc := testEncryptor(t, nil)
	message, err := enc.Encrypt([]byte("payload"))
	if nil != err {
		t.Fatalf("Failed Encrypt, got error %v", err)
	}

	srzmsg, err := json.Marshal(message)
	if nil != err {
		t.Fatalf("Failed json.Marshal, got error %v", err)
	}

	// binary fields travel Base64-standard
	if !strings.Contains(string(srzmsg), `"applicationKey":"oKGio6SlpqeoqaqrrK2urw=="`) {
		t.Errorf("Failed applicationKey encoding control, got %s", srzmsg)
	}

	var dst Message
	err = json.Unmarshal(srzmsg, &dst)
	if nil != err {
		t.Fatalf("Failed json.Unmarshal, got error %v", err)
	}
	if !bytes.Equal(message.Mac, dst.Mac) || !bytes.Equal(message.EncryptedData, dst.EncryptedData) {
		t.Error("Failed wire round trip")
	}

	decrypted, err := enc.Decrypt(dst)
	if nil != err {
		t.Fatalf("Failed Decrypt after wire round trip, got error %v", err)
	}
	if "payload" != string(decrypted) {
		t.Errorf("Failed payload control, got %s", decrypted)
	}
}
