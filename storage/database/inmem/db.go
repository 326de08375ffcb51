package inmemdb

import (
	"sync"

	"github.com/speakmate/speakmate/core/ledger"
)

type (
	DB struct {
		record *recordTable
	}

	// recordTable holds encoded documents so that callers never share memory with the store.
	recordTable struct {
		table map[string][]byte // {email: JSON document}
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		record: &recordTable{table: make(map[string][]byte)},
	}
}

// Seed inserts or replaces records as-is.
func (db *DB) Seed(recs ...ledger.Record) error {
	db.record.mutex.Lock()
	defer db.record.mutex.Unlock()
	for _, rec := range recs {
		doc, err := encode(rec)
		if err != nil {
			return err
		}
		db.record.table[rec.Email] = doc
	}
	return nil
}

func (db *DB) Len() int {
	db.record.mutex.RLock()
	defer db.record.mutex.RUnlock()
	return len(db.record.table)
}
