// Package indexdb keeps a queryable sqlite view of the tick stream. It is a
// secondary index: the compressed JSONL tick logs remain the source of truth,
// so writes here may be dropped under load without losing anything.
package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"colonycraft/internal/persistence/snapshot"
	"colonycraft/internal/protocol"
)

const schemaVersion = 1

// setup runs once on open. WAL suits the append-only tick stream; NORMAL
// durability is enough for a rebuildable index.
var setup = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
	"PRAGMA temp_store=MEMORY;",
	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS ticks (
		tick INTEGER PRIMARY KEY,
		agents INTEGER NOT NULL,
		spawning INTEGER NOT NULL,
		hostiles INTEGER NOT NULL,
		actions INTEGER NOT NULL,
		moves INTEGER NOT NULL,
		drops INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		spawned INTEGER NOT NULL,
		culled INTEGER NOT NULL,
		raw_json TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_ticks_warnings ON ticks(warnings) WHERE warnings > 0;`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		tick INTEGER PRIMARY KEY,
		path TEXT NOT NULL,
		agents INTEGER NOT NULL,
		structures INTEGER NOT NULL,
		sources INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);`,
}

const (
	insertTickSQL = `INSERT OR REPLACE INTO ticks
		(tick,agents,spawning,hostiles,actions,moves,drops,warnings,spawned,culled,raw_json)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`
	insertSnapshotSQL = `INSERT OR REPLACE INTO snapshots
		(tick,path,agents,structures,sources,recorded_at)
		VALUES(?,?,?,?,?,?)`
)

type req struct {
	tick *protocol.TickDigest
	snap *snapshotRow
	sync chan struct{} // non-nil: commit the batch, then signal
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Agents     int
	Structures int
	Sources    int
	RecordedAt string
}

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	if _, err := db.Exec(
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`,
		fmt.Sprint(schemaVersion),
	); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
	return s, nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick queues a digest row. Drops when the indexer falls behind; the
// JSONL log still has the row.
func (s *SQLiteIndex) WriteTick(d protocol.TickDigest) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{tick: &d}:
	default:
	}
}

// RecordSnapshot queues a pointer row for a snapshot already written to disk.
func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	row := snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Agents:     len(snap.Agents),
		Structures: len(snap.Structures),
		Sources:    len(snap.Sources),
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{snap: &row}:
	default:
	}
}

// Flush blocks until every write queued before the call has been committed.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{sync: done}
	<-done
}

// batch holds the open transaction between commits. Rows accumulate until
// batchRows is reached or the batch goes stale.
type batch struct {
	db   *sql.DB
	tx   *sql.Tx
	rows int
	born time.Time
}

const (
	batchRows    = 500
	batchMaxAge  = 2 * time.Second
	batchAgeTick = time.Second
)

func (b *batch) exec(query string, args ...any) {
	if b.tx == nil {
		tx, err := b.db.Begin()
		if err != nil {
			return
		}
		b.tx = tx
		b.rows = 0
		b.born = time.Now()
	}
	_, _ = b.tx.Exec(query, args...)
	b.rows++
	if b.rows >= batchRows {
		b.commit()
	}
}

func (b *batch) commit() {
	if b.tx == nil {
		return
	}
	_ = b.tx.Commit()
	b.tx = nil
}

func (b *batch) stale() bool {
	return b.tx != nil && time.Since(b.born) >= batchMaxAge
}

func (s *SQLiteIndex) run() {
	b := &batch{db: s.db}
	age := time.NewTicker(batchAgeTick)
	defer age.Stop()

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				b.commit()
				return
			}
			switch {
			case r.sync != nil:
				b.commit()
				close(r.sync)
			case r.tick != nil:
				raw, _ := json.Marshal(r.tick)
				b.exec(insertTickSQL,
					r.tick.Tick, r.tick.Agents, r.tick.Spawning, r.tick.Hostiles,
					r.tick.ActionsIssued, r.tick.MovesIssued, r.tick.Drops,
					r.tick.Warnings, r.tick.Spawned, r.tick.Culled, string(raw))
			case r.snap != nil:
				b.exec(insertSnapshotSQL,
					r.snap.Tick, r.snap.Path, r.snap.Agents,
					r.snap.Structures, r.snap.Sources, r.snap.RecordedAt)
			}
		case <-age.C:
			if b.stale() {
				b.commit()
			}
		}
	}
}

// TickRange reads back digests in [from, to], for the replay driver and
// tests.
func (s *SQLiteIndex) TickRange(from, to uint64) ([]protocol.TickDigest, error) {
	rows, err := s.db.Query(`SELECT raw_json FROM ticks WHERE tick BETWEEN ? AND ? ORDER BY tick`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []protocol.TickDigest
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d protocol.TickDigest
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the most recent recorded snapshot path and tick.
func (s *SQLiteIndex) LatestSnapshot() (string, uint64, bool, error) {
	row := s.db.QueryRow(`SELECT path, tick FROM snapshots ORDER BY tick DESC LIMIT 1`)
	var (
		path string
		tick uint64
	)
	switch err := row.Scan(&path, &tick); err {
	case nil:
		return path, tick, true, nil
	case sql.ErrNoRows:
		return "", 0, false, nil
	default:
		return "", 0, false, err
	}
}
