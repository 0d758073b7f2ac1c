// Package pgdb provides the server-side activation, provision and token store
// backed by a postgres database.
package pgdb

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"code.mfactor.org/golang/pkg/activation"
	"code.mfactor.org/golang/pkg/token"
)

// PGDB is implemented by pgx.Tx, pgx.Conn & pgxpool.Pool
// accessing a postgres database through this common interface simplifies testing
type PGDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ServerActivationStore persists server activation records, pending
// provisions and issued tokens.
type ServerActivationStore struct {
	DB PGDB
}

//go:embed srv_activation_schema.sql
var schemaScriptTpl string

// ServerActivationStoreMigrate creates the storage schema named dbschema and its tables.
func ServerActivationStoreMigrate(pgconn *pgx.Conn, dbschema string) error {
	schemaName := pgx.Identifier{dbschema}.Sanitize()
	schemaOwner := pgx.Identifier{dbschema + "_owner"}.Sanitize()
	schemaScript := strings.ReplaceAll(schemaScriptTpl, "${schema_name}", schemaName)
	schemaScript = strings.ReplaceAll(schemaScript, "${schema_owner}", schemaOwner)

	_, err := pgconn.Exec(context.Background(), schemaScript)

	return wrapError(err, "Failed db schema initialization") // nil if err is nil...
}

// NewServerActivationStore returns a store backed by a fresh connection pool.
func NewServerActivationStore(ctx context.Context, dsn string) (*ServerActivationStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if nil != err {
		return nil, wrapError(err, "failed connection pool creation")
	}

	return &ServerActivationStore{DB: pool}, nil
}

// SaveActivation saves rec, overwriting a record with the same Id.
// The counter columns are part of the upsert, saving after an accepted
// signature persists the advanced counter.
func (self *ServerActivationStore) SaveActivation(ctx context.Context, rec activation.Record) error {
	err := rec.Check()
	if nil != err {
		return wrapError(err, "invalid record")
	}
	_, err = self.DB.Exec(
		ctx,
		`INSERT INTO activation(
		   id, status, possession, knowledge, biometry, transport, vault,
		   ctr_flavor, ctr_numeric, ctr_data, device_public_key,
		   failed_attempts, max_failed_attempts
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		 status = EXCLUDED.status,
		 ctr_flavor = EXCLUDED.ctr_flavor,
		 ctr_numeric = EXCLUDED.ctr_numeric,
		 ctr_data = EXCLUDED.ctr_data,
		 failed_attempts = EXCLUDED.failed_attempts,
		 max_failed_attempts = EXCLUDED.max_failed_attempts`,
		rec.Id.String(),
		int16(rec.Status),
		rec.Possession,
		rec.Knowledge,
		rec.Biometry,
		rec.Transport,
		rec.Vault,
		int16(rec.CtrFlavor),
		int64(rec.CtrNumeric),
		rec.CtrData,
		rec.DevicePublicKey,
		int16(rec.FailedAttempts),
		int16(rec.MaxFailedAttempts),
	)

	return wrapError(err, "failed saving activation") // nil if err is nil...
}

// LoadActivation loads the record with activationId into dst.
// It errors with activation.ErrNotFound if the record does not exist.
func (self *ServerActivationStore) LoadActivation(ctx context.Context, activationId uuid.UUID, dst *activation.Record) error {
	if nil == dst {
		return newError("nil dst")
	}
	row := self.DB.QueryRow(
		ctx,
		`SELECT
		   id, status, possession, knowledge, biometry, transport, vault,
		   ctr_flavor, ctr_numeric, ctr_data, device_public_key,
		   failed_attempts, max_failed_attempts
		 FROM activation
		 WHERE id = $1`,
		activationId.String(),
	)

	var srzid string
	var status, ctrFlavor, failedAttempts, maxFailedAttempts int16
	var ctrNumeric int64
	rec := activation.Record{}
	err := row.Scan(
		&srzid, &status,
		&rec.Possession, &rec.Knowledge, &rec.Biometry, &rec.Transport, &rec.Vault,
		&ctrFlavor, &ctrNumeric, &rec.CtrData, &rec.DevicePublicKey,
		&failedAttempts, &maxFailedAttempts,
	)
	if nil != err {
		if errors.Is(err, pgx.ErrNoRows) {
			return wrapError(activation.ErrNotFound, "unknown activation")
		}
		return wrapError(err, "failed loading activation")
	}
	rec.Id, err = uuid.Parse(srzid)
	if nil != err {
		return wrapError(err, "invalid stored activation id")
	}
	rec.Status = byte(status)
	rec.CtrFlavor = byte(ctrFlavor)
	rec.CtrNumeric = uint64(ctrNumeric)
	rec.FailedAttempts = byte(failedAttempts)
	rec.MaxFailedAttempts = byte(maxFailedAttempts)

	*dst = rec
	return nil
}

// RemoveActivation removes the record with activationId, cascading to its tokens.
// It errors with activation.ErrNotFound if the record does not exist.
func (self *ServerActivationStore) RemoveActivation(ctx context.Context, activationId uuid.UUID) error {
	var deleted int
	row := self.DB.QueryRow(
		ctx,
		`WITH deleted AS (DELETE FROM activation WHERE id = $1 RETURNING id)
		 SELECT count(id) FROM deleted`,
		activationId.String(),
	)
	err := row.Scan(&deleted)
	if nil != err {
		return wrapError(err, "failed DELETE query")
	}
	if 0 == deleted {
		return wrapError(activation.ErrNotFound, "unknown activation")
	}

	return nil
}

// SaveProvision parks the out-of-band ceremony material until the device shows up.
func (self *ServerActivationStore) SaveProvision(ctx context.Context, prov activation.Provision) error {
	_, err := self.DB.Exec(
		ctx,
		`INSERT INTO provision(code, activation_id, otp) VALUES ($1, $2, $3)`,
		prov.Code,
		prov.ActivationId.String(),
		prov.Otp,
	)

	return wrapError(err, "failed saving provision") // nil if err is nil...
}

// PopProvision loads the provision registered under code into prov and removes
// it, a provision authorizes a single ceremony attempt.
// It errors with activation.ErrNotFound if no provision carries code.
func (self *ServerActivationStore) PopProvision(ctx context.Context, code string, prov *activation.Provision) error {
	if nil == prov {
		return newError("nil prov")
	}
	row := self.DB.QueryRow(
		ctx,
		`DELETE FROM provision WHERE code = $1 RETURNING code, activation_id, otp`,
		code,
	)
	var srzid string
	err := row.Scan(&prov.Code, &srzid, &prov.Otp)
	if nil != err {
		if errors.Is(err, pgx.ErrNoRows) {
			return wrapError(activation.ErrNotFound, "unknown provision code")
		}
		return wrapError(err, "failed popping provision")
	}
	prov.ActivationId, err = uuid.Parse(srzid)
	return wrapError(err, "invalid stored activation id") // nil if err is nil...
}

// SaveToken registers tok as issued for activationId.
func (self *ServerActivationStore) SaveToken(ctx context.Context, activationId uuid.UUID, tok token.Token) error {
	_, err := self.DB.Exec(
		ctx,
		`INSERT INTO token(id, activation_id, secret, factors) VALUES ($1, $2, $3, $4)`,
		tok.Id.String(),
		activationId.String(),
		tok.Secret,
		tok.Factors,
	)

	return wrapError(err, "failed saving token") // nil if err is nil...
}

// LoadToken loads the token with tokenId and the activation that issued it.
// It errors with activation.ErrNotFound if the token does not exist.
func (self *ServerActivationStore) LoadToken(ctx context.Context, tokenId uuid.UUID, dst *token.Token) (uuid.UUID, error) {
	if nil == dst {
		return uuid.Nil, newError("nil dst")
	}
	row := self.DB.QueryRow(
		ctx,
		`SELECT id, activation_id, secret, factors FROM token WHERE id = $1`,
		tokenId.String(),
	)
	var srzid, srzActivationId string
	tok := token.Token{}
	err := row.Scan(&srzid, &srzActivationId, &tok.Secret, &tok.Factors)
	if nil != err {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, wrapError(activation.ErrNotFound, "unknown token")
		}
		return uuid.Nil, wrapError(err, "failed loading token")
	}
	tok.Id, err = uuid.Parse(srzid)
	if nil != err {
		return uuid.Nil, wrapError(err, "invalid stored token id")
	}
	activationId, err := uuid.Parse(srzActivationId)
	if nil != err {
		return uuid.Nil, wrapError(err, "invalid stored activation id")
	}

	*dst = tok
	return activationId, nil
}

// RemoveToken destroys the token with tokenId.
// It errors with activation.ErrNotFound if the token does not exist.
func (self *ServerActivationStore) RemoveToken(ctx context.Context, tokenId uuid.UUID) error {
	var deleted int
	row := self.DB.QueryRow(
		ctx,
		`WITH deleted AS (DELETE FROM token WHERE id = $1 RETURNING id)
		 SELECT count(id) FROM deleted`,
		tokenId.String(),
	)
	err := row.Scan(&deleted)
	if nil != err {
		return wrapError(err, "failed DELETE query")
	}
	if 0 == deleted {
		return wrapError(activation.ErrNotFound, "unknown token")
	}

	return nil
}
