// Package recording stores every cache access of a simulation run in a
// SQLite database for later analysis.
package recording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/cache"
)

// DefaultBatchSize is the number of accesses buffered before a flush.
const DefaultBatchSize = 100000

// ErrFileExists is returned by Available when the database file is taken.
var ErrFileExists = errors.New("recording file already exists")

// AccessEntry is one row of the access table. Addresses and tags are stored
// as the int64 with the same bits, since SQLite integers are signed.
type AccessEntry struct {
	RunID      string
	Seq        uint64
	Tick       uint64
	Address    int64
	SetIndex   int64
	Tag        int64
	Way        int
	Hit        bool
	Evicted    bool
	EvictedTag int64
}

// SQLiteRecorder writes accesses into a SQLite database. It implements
// cache.AccessHook.
type SQLiteRecorder struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	runID     string
	batchSize int
	seq       uint64
	entries   []AccessEntry
}

// NewSQLiteRecorder creates a recorder that writes to path + ".sqlite3".
// An empty path picks a unique name. Nothing is created until Init.
func NewSQLiteRecorder(path string) *SQLiteRecorder {
	r := &SQLiteRecorder{
		dbName:    path,
		runID:     xid.New().String(),
		batchSize: DefaultBatchSize,
	}

	if r.dbName == "" {
		r.dbName = "csim_accesses_" + r.runID
	}

	return r
}

// WithBatchSize sets how many accesses are buffered between flushes.
func (r *SQLiteRecorder) WithBatchSize(n int) *SQLiteRecorder {
	r.batchSize = n
	return r
}

// RunID returns the ID that tags every row written by this recorder.
func (r *SQLiteRecorder) RunID() string {
	return r.runID
}

// Filename returns the database file the recorder writes to.
func (r *SQLiteRecorder) Filename() string {
	return r.dbName + ".sqlite3"
}

// Available returns ErrFileExists if the database file is already on disk.
func (r *SQLiteRecorder) Available() error {
	if _, err := os.Stat(r.Filename()); err == nil {
		return fmt.Errorf("%w: %s", ErrFileExists, r.Filename())
	}
	return nil
}

// Init creates the database file and its tables and arranges for buffered
// accesses to be flushed at exit. It panics if the file already exists.
func (r *SQLiteRecorder) Init() {
	if err := r.Available(); err != nil {
		panic(err)
	}

	filename := r.Filename()

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	// BEGIN and COMMIT are issued through the pool, so they must share the
	// connection the inserts run on.
	db.SetMaxOpenConns(1)
	r.DB = db

	r.createTables()
	r.prepareStatement()

	atexit.Register(func() { r.Flush() })
}

func (r *SQLiteRecorder) createTables() {
	r.mustExecute(`
		create table run
		(
			run_id        varchar(32) not null primary key,
			set_bits      integer     not null,
			associativity integer     not null,
			block_bits    integer     not null,
			hits          integer     not null default 0,
			misses        integer     not null default 0,
			evictions     integer     not null default 0
		);
	`)

	r.mustExecute(`
		create table access
		(
			run_id      varchar(32) not null,
			seq         integer     not null,
			tick        integer     not null,
			address     integer     not null,
			set_index   integer     not null,
			tag         integer     not null,
			way         integer     not null,
			hit         boolean     not null,
			evicted     boolean     not null,
			evicted_tag integer     not null
		);
	`)

	r.mustExecute(`
		create index access_set_index
			on access (run_id, set_index);
	`)
}

func (r *SQLiteRecorder) prepareStatement() {
	stmt, err := r.Prepare(`
		insert into access
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		panic(err)
	}

	r.statement = stmt
}

// OnAccess buffers one access.
func (r *SQLiteRecorder) OnAccess(outcome cache.Outcome) {
	r.seq++
	r.entries = append(r.entries, AccessEntry{
		RunID:      r.runID,
		Seq:        r.seq,
		Tick:       outcome.Tick,
		Address:    int64(outcome.Addr),
		SetIndex:   int64(outcome.Set),
		Tag:        int64(outcome.Tag),
		Way:        outcome.Way,
		Hit:        outcome.Hit,
		Evicted:    outcome.Evicted,
		EvictedTag: int64(outcome.EvictedTag),
	})

	if len(r.entries) >= r.batchSize {
		r.Flush()
	}
}

// RecordRun writes the geometry and final counters of the run.
func (r *SQLiteRecorder) RecordRun(config cache.Config, stats cache.Statistics) {
	_, err := r.Exec(
		`insert or replace into run values (?, ?, ?, ?, ?, ?, ?)`,
		r.runID,
		config.SetBits,
		config.Associativity,
		config.BlockBits,
		int64(stats.Hits),
		int64(stats.Misses),
		int64(stats.Evictions),
	)
	if err != nil {
		panic(err)
	}
}

// Flush writes all buffered accesses to the database.
func (r *SQLiteRecorder) Flush() {
	if len(r.entries) == 0 || r.DB == nil {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, e := range r.entries {
		_, err := r.statement.Exec(
			e.RunID,
			int64(e.Seq),
			int64(e.Tick),
			e.Address,
			e.SetIndex,
			e.Tag,
			e.Way,
			e.Hit,
			e.Evicted,
			e.EvictedTag,
		)
		if err != nil {
			fmt.Printf("Failed to insert access: %+v\n", e)
			panic(err)
		}
	}

	r.entries = nil
}

// Close flushes and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.Flush()

	if r.statement != nil {
		_ = r.statement.Close()
		r.statement = nil
	}

	db := r.DB
	if db == nil {
		return nil
	}
	r.DB = nil

	return db.Close()
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
