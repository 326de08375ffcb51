package sqlxdb

import (
	"context"
	"database/sql"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core/ledger"
	"github.com/speakmate/speakmate/storage/database"
)

const table = "records"

type (
	recordStore struct {
		db *database.DB
		sb sq.StatementBuilderType
	}

	row struct {
		Email string `db:"email"`
		Doc   []byte `db:"doc"`
	}
)

var _ ledger.Store = (*recordStore)(nil)

// NewRecordStore returns a document store keeping one JSON document per account.
// Every update is a read-modify-write in its own transaction.
func NewRecordStore(db *database.DB) *recordStore {
	return &recordStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(db.Dialect.Placeholder()),
	}
}

func (s *recordStore) selectWhere(f ledger.Filter) sq.SelectBuilder {
	d := s.db.Dialect
	q := s.sb.Select("email", "doc").From(table)
	if f.Email != "" {
		q = q.Where(sq.Eq{"email": f.Email})
	}
	if f.Role != "" {
		q = q.Where(sq.Eq{"role": f.Role})
	}
	if f.Class != "" {
		q = q.Where(sq.Expr(d.ArrayContains("classes"), f.Class))
	}
	if f.Section != "" {
		q = q.Where(sq.Expr(d.ArrayContains("sections"), f.Section))
	}
	if f.AssignmentID != "" {
		q = q.Where(sq.Expr(d.OwnsAssignment(), f.AssignmentID))
	}
	return q.OrderBy("email")
}

func (s *recordStore) FindOne(ctx context.Context, f ledger.Filter) (ledger.Record, error) {
	query, args, err := s.selectWhere(f).Limit(1).ToSql()
	if err != nil {
		return ledger.Record{}, errors.Wrap(err, "building query")
	}
	var r row
	if err = s.db.GetContext(ctx, &r, query, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return ledger.Record{}, ledger.ErrNotFound
		}
		return ledger.Record{}, errors.Wrap(err, "selecting record")
	}
	return decode(r.Doc)
}

func (s *recordStore) FindMany(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	query, args, err := s.selectWhere(f).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []row
	if err = s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}
	recs := make([]ledger.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := decode(r.Doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *recordStore) UpdateOne(ctx context.Context, f ledger.Filter, mut ledger.Mutation, opts ...ledger.UpdateOption) (ledger.UpdateResult, error) {
	var res ledger.UpdateResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res = ledger.UpdateResult{}

		q := s.selectWhere(f).Limit(1)
		if suffix := s.db.Dialect.LockSuffix(); suffix != "" {
			q = q.Suffix(suffix)
		}
		query, args, err := q.ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}

		var r row
		err = tx.GetContext(ctx, &r, query, args...)
		if errors.Cause(err) == sql.ErrNoRows {
			if !ledger.ApplyOptions(opts).Upsert {
				return nil
			}
			rec, err := ledger.UpsertRecord(f)
			if err != nil {
				return err
			}
			if _, err = mut(&rec); err != nil {
				return err
			}
			if err = s.insert(ctx, tx, rec); err != nil {
				return err
			}
			res.Upserted = true
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "selecting record")
		}

		res.Matched = 1
		rec, err := decode(r.Doc)
		if err != nil {
			return err
		}
		modified, err := mut(&rec)
		if err != nil || !modified {
			return err
		}
		if err = s.update(ctx, tx, r.Email, rec); err != nil {
			return err
		}
		res.Modified = 1
		return nil
	})
	if err != nil {
		return ledger.UpdateResult{}, err
	}
	return res, nil
}

// UpdateMany applies `mut` to every matching document, one transaction per document.
// A failure stops the fan-out; documents already updated stay updated.
func (s *recordStore) UpdateMany(ctx context.Context, f ledger.Filter, mut ledger.Mutation) (ledger.UpdateResult, error) {
	var res ledger.UpdateResult

	query, args, err := s.selectWhere(f).ToSql()
	if err != nil {
		return res, errors.Wrap(err, "building query")
	}
	var rows []row
	if err = s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return res, errors.Wrap(err, "selecting records")
	}
	res.Matched = len(rows)

	for _, r := range rows {
		docFilter := f
		docFilter.Email = r.Email
		one, err := s.UpdateOne(ctx, docFilter, mut)
		if err != nil {
			return res, errors.Wrapf(err, "updating %s", r.Email)
		}
		res.Modified += one.Modified
	}
	return res, nil
}

func (s *recordStore) InsertOne(ctx context.Context, rec ledger.Record) (string, error) {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return s.insert(ctx, tx, rec)
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *recordStore) insert(ctx context.Context, tx *sqlx.Tx, rec ledger.Record) error {
	doc, err := encode(rec)
	if err != nil {
		return err
	}
	query, args, err := s.sb.Insert(table).
		Columns("email", "role", "doc").
		Values(rec.Email, rec.Role, sq.Expr(s.db.Dialect.DocParam(), string(doc))).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building insert")
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		if s.db.Dialect.IsUniqueViolation(err) {
			return ledger.ErrDuplicate
		}
		return errors.Wrap(err, "inserting record")
	}
	return nil
}

func (s *recordStore) update(ctx context.Context, tx *sqlx.Tx, email string, rec ledger.Record) error {
	doc, err := encode(rec)
	if err != nil {
		return err
	}
	query, args, err := s.sb.Update(table).
		Set("role", rec.Role).
		Set("doc", sq.Expr(s.db.Dialect.DocParam(), string(doc))).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building update")
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "updating record")
	}
	return nil
}

func (s *recordStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func encode(rec ledger.Record) ([]byte, error) {
	doc, err := json.Marshal(rec)
	return doc, errors.Wrap(err, "encoding record")
}

func decode(doc []byte) (ledger.Record, error) {
	var rec ledger.Record
	err := json.Unmarshal(doc, &rec)
	return rec, errors.Wrap(err, "decoding record")
}
