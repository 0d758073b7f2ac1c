// Package boltdb provides the persistent device-side activation store,
// keeping activation records in a single file database.
//
// The device secure store is expected to wrap the file at rest; this package
// only guarantees byte-for-byte round trips of the persisted key material.
package boltdb

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"code.mfactor.org/golang/pkg/activation"
)

const (
	connectTimeout = 5 * time.Second

	activationTbl = "activationTbl"
)

// ClientActivationStore persists device activation records.
type ClientActivationStore struct {
	dbpath string
}

// New returns a ClientActivationStore backed by the boltdb file at dbpath.
// It errors if the database schema can not be created.
func New(dbpath string) (ClientActivationStore, error) {
	store := ClientActivationStore{dbpath: dbpath}

	db, err := bolt.Open(dbpath, 0600, &bolt.Options{Timeout: connectTimeout})
	if nil != err {
		return store, wrapError(err, "failed connecting to database")
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(activationTbl))
		return wrapError(err, "failed %s bucket creation", activationTbl) // nil if err is nil...
	})
	if nil != err {
		return store, wrapError(err, "failed db initialization")
	}

	return store, nil
}

// SaveActivation saves rec, overwriting a record with the same Id.
// It errors if rec is invalid or could not be stored.
func (self ClientActivationStore) SaveActivation(rec activation.Record) error {
	err := rec.Check()
	if nil != err {
		return wrapError(err, "record is invalid")
	}

	srzrec, err := cbor.Marshal(rec)
	if nil != err {
		return wrapError(err, "failed cbor.Marshal(rec)")
	}

	db, err := bolt.Open(self.dbpath, 0600, &bolt.Options{Timeout: connectTimeout})
	if nil != err {
		return wrapError(err, "failed connecting to database")
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(activationTbl)).Put(rec.Id[:], srzrec)
	})
	return wrapError(err, "failed storing record") // nil if err is nil...
}

// LoadActivation loads the record with activationId into dst.
// The bool flag is true if the record exists in the store.
func (self ClientActivationStore) LoadActivation(activationId uuid.UUID, dst *activation.Record) (bool, error) {
	if nil == dst {
		return false, newError("nil dst")
	}

	db, err := bolt.Open(self.dbpath, 0600, &bolt.Options{Timeout: connectTimeout})
	if nil != err {
		return false, wrapError(err, "failed connecting to database")
	}
	defer db.Close()

	var found bool
	err = db.View(func(tx *bolt.Tx) error {
		srzrec := tx.Bucket([]byte(activationTbl)).Get(activationId[:])
		if nil == srzrec {
			return nil
		}
		found = true
		return wrapError(cbor.Unmarshal(srzrec, dst), "failed cbor.Unmarshal(rec)") // nil if err is nil...
	})
	if nil != err {
		return false, wrapError(err, "failed loading record")
	}
	return found, nil
}

// RemoveActivation removes the record with activationId from the store.
// It returns true if the record was effectively removed.
func (self ClientActivationStore) RemoveActivation(activationId uuid.UUID) bool {
	db, err := bolt.Open(self.dbpath, 0600, &bolt.Options{Timeout: connectTimeout})
	if nil != err {
		return false
	}
	defer db.Close()

	var removed bool
	err = db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(activationTbl))
		if nil == bucket.Get(activationId[:]) {
			return nil
		}
		removed = true
		return bucket.Delete(activationId[:])
	})
	if nil != err {
		return false
	}
	return removed
}

// ListActivations returns all persisted records.
func (self ClientActivationStore) ListActivations() ([]activation.Record, error) {
	db, err := bolt.Open(self.dbpath, 0600, &bolt.Options{Timeout: connectTimeout})
	if nil != err {
		return nil, wrapError(err, "failed connecting to database")
	}
	defer db.Close()

	var rv []activation.Record
	err = db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(activationTbl)).ForEach(func(_, srzrec []byte) error {
			var rec activation.Record
			err := cbor.Unmarshal(srzrec, &rec)
			if nil != err {
				return wrapError(err, "failed cbor.Unmarshal(rec)")
			}
			rv = append(rv, rec)
			return nil
		})
	})
	if nil != err {
		return nil, wrapError(err, "failed listing records")
	}
	return rv, nil
}
