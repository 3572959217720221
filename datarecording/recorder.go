// Package datarecording stores simulation traces in SQLite tables. Each
// table holds one struct type; every exported field becomes a column.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Register the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// Errors returned by the recorder.
var (
	ErrTableExists   = errors.New("table already exists")
	ErrNoSuchTable   = errors.New("table does not exist")
	ErrInvalidEntry  = errors.New("entry is not a flat struct")
	ErrEntryMismatch = errors.New("entry type does not match the table")
)

// DataRecorder is a backend that records rows into tables.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any) error

	// InsertData buffers one row. Rows reach the database on Flush.
	InsertData(tableName string, entry any) error

	// ListTables returns the names of the tables, sorted.
	ListTables() []string

	// Flush writes all the buffered rows.
	Flush() error

	// Close flushes and releases the database.
	Close() error
}

type table struct {
	structType reflect.Type
	entries    []any
}

// SQLiteRecorder is a DataRecorder backed by a SQLite file.
type SQLiteRecorder struct {
	*sql.DB

	lock       sync.Mutex
	path       string
	tables     map[string]*table
	batchSize  int
	entryCount int
	closed     bool
}

// DefaultFileName returns a new unique database file name.
func DefaultFileName() string {
	return "ufmsim_trace_" + xid.New().String() + ".sqlite3"
}

// New creates a recorder that writes to a new SQLite file. An empty path
// picks a unique name. The recorder flushes when the process exits through
// atexit.
func New(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = DefaultFileName()
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("datarecording: file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("datarecording: %w", err)
	}

	r := NewWithDB(db)
	r.path = path

	return r, nil
}

// NewWithDB creates a recorder on an open database.
func NewWithDB(db *sql.DB) *SQLiteRecorder {
	r := &SQLiteRecorder{
		DB:        db,
		tables:    make(map[string]*table),
		batchSize: 100000,
	}

	atexit.Register(func() { _ = r.Close() })

	return r
}

// Path returns the database file, if the recorder created one.
func (r *SQLiteRecorder) Path() string {
	return r.path
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrInvalidEntry, entry)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("%w: field %s of %s", ErrInvalidEntry,
				field.Name, t)
		}
	}

	return nil
}

// CreateTable creates a table with one column per field of sampleEntry.
func (r *SQLiteRecorder) CreateTable(tableName string, sampleEntry any) error {
	if err := checkStructFields(sampleEntry); err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, exists := r.tables[tableName]; exists {
		return fmt.Errorf("%w: %s", ErrTableExists, tableName)
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")
	createSQL := "CREATE TABLE " + tableName + " (\n\t" + fields + "\n);"

	if _, err := r.Exec(createSQL); err != nil {
		return fmt.Errorf("datarecording: create %s: %w", tableName, err)
	}

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}

	return nil
}

// InsertData buffers one row of tableName.
func (r *SQLiteRecorder) InsertData(tableName string, entry any) error {
	r.lock.Lock()

	t, exists := r.tables[tableName]
	if !exists {
		r.lock.Unlock()
		return fmt.Errorf("%w: %s", ErrNoSuchTable, tableName)
	}

	if reflect.TypeOf(entry) != t.structType {
		r.lock.Unlock()
		return fmt.Errorf("%w: %T into %s", ErrEntryMismatch, entry, tableName)
	}

	t.entries = append(t.entries, entry)
	r.entryCount++
	full := r.entryCount >= r.batchSize

	r.lock.Unlock()

	if full {
		return r.Flush()
	}

	return nil
}

// ListTables returns the table names in sorted order.
func (r *SQLiteRecorder) ListTables() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Flush writes the buffered rows in one transaction.
func (r *SQLiteRecorder) Flush() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.entryCount == 0 || r.closed {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("datarecording: %w", err)
	}

	for name, t := range r.tables {
		if len(t.entries) == 0 {
			continue
		}

		if err := insertRows(tx, name, t.entries); err != nil {
			_ = tx.Rollback()
			return err
		}

		t.entries = nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datarecording: %w", err)
	}

	r.entryCount = 0

	return nil
}

func insertRows(tx *sql.Tx, tableName string, entries []any) error {
	placeholders := make([]string, len(structs.Names(entries[0])))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	stmt, err := tx.Prepare("INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")")
	if err != nil {
		return fmt.Errorf("datarecording: prepare %s: %w", tableName, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(structs.Values(e)...); err != nil {
			return fmt.Errorf("datarecording: insert into %s: %w",
				tableName, err)
		}
	}

	return nil
}

// Close flushes the buffered rows and closes the database. Closing twice is
// a no-op.
func (r *SQLiteRecorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	return r.DB.Close()
}

var _ DataRecorder = (*SQLiteRecorder)(nil)
