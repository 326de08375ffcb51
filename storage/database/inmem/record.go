package inmemdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core/ledger"
)

type recordStore struct {
	db *recordTable
}

var _ ledger.Store = (*recordStore)(nil)

func NewRecordStore(db *DB) *recordStore {
	return &recordStore{db: db.record}
}

// query returns the matching records ordered by email. Callers must hold the lock.
func (s *recordStore) query(f ledger.Filter) ([]ledger.Record, error) {
	if f.Email != "" {
		doc, ok := s.db.table[f.Email]
		if !ok {
			return nil, nil
		}
		rec, err := decode(doc)
		if err != nil || !f.Match(&rec) {
			return nil, err
		}
		return []ledger.Record{rec}, nil
	}

	recs := make([]ledger.Record, 0)
	for _, doc := range s.db.table {
		rec, err := decode(doc)
		if err != nil {
			return nil, err
		}
		if f.Match(&rec) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Email < recs[j].Email })
	return recs, nil
}

func (s *recordStore) FindOne(_ context.Context, f ledger.Filter) (ledger.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	recs, err := s.query(f)
	if err != nil {
		return ledger.Record{}, err
	}
	if len(recs) == 0 {
		return ledger.Record{}, ledger.ErrNotFound
	}
	return recs[0], nil
}

func (s *recordStore) FindMany(_ context.Context, f ledger.Filter) ([]ledger.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()
	return s.query(f)
}

func (s *recordStore) UpdateOne(ctx context.Context, f ledger.Filter, mut ledger.Mutation, opts ...ledger.UpdateOption) (ledger.UpdateResult, error) {
	var res ledger.UpdateResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	recs, err := s.query(f)
	if err != nil {
		return res, err
	}
	if len(recs) == 0 {
		if !ledger.ApplyOptions(opts).Upsert {
			return res, nil
		}
		if _, exists := s.db.table[f.Email]; exists {
			return res, ledger.ErrDuplicate
		}
		rec, err := ledger.UpsertRecord(f)
		if err != nil {
			return res, err
		}
		if _, err = mut(&rec); err != nil {
			return res, err
		}
		if err = s.save(rec); err != nil {
			return res, err
		}
		res.Upserted = true
		return res, nil
	}

	res.Matched = 1
	rec := recs[0]
	modified, err := mut(&rec)
	if err != nil || !modified {
		return res, err
	}
	if err = s.save(rec); err != nil {
		return res, err
	}
	res.Modified = 1
	return res, nil
}

func (s *recordStore) UpdateMany(ctx context.Context, f ledger.Filter, mut ledger.Mutation) (ledger.UpdateResult, error) {
	var res ledger.UpdateResult

	s.db.mutex.RLock()
	recs, err := s.query(f)
	s.db.mutex.RUnlock()
	if err != nil {
		return res, err
	}
	res.Matched = len(recs)

	// each document is updated under its own critical section
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		modified, err := s.updateOne(rec.Email, mut)
		if err != nil {
			return res, errors.Wrapf(err, "updating %s", rec.Email)
		}
		if modified {
			res.Modified++
		}
	}
	return res, nil
}

func (s *recordStore) updateOne(email string, mut ledger.Mutation) (bool, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	doc, ok := s.db.table[email]
	if !ok {
		return false, nil // removed concurrently
	}
	rec, err := decode(doc)
	if err != nil {
		return false, err
	}
	modified, err := mut(&rec)
	if err != nil || !modified {
		return false, err
	}
	return true, s.save(rec)
}

func (s *recordStore) InsertOne(_ context.Context, rec ledger.Record) (string, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	if _, exists := s.db.table[rec.Email]; exists {
		return "", ledger.ErrDuplicate
	}
	return rec.ID, s.save(rec)
}

func (s *recordStore) save(rec ledger.Record) error {
	doc, err := encode(rec)
	if err != nil {
		return err
	}
	s.db.table[rec.Email] = doc
	return nil
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
