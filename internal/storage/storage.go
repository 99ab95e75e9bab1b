package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/hailam/whitecore/internal/engine"
)

const keyOptions = "uci_options"

const (
	DefaultHash         = 16
	DefaultThreads      = 1
	DefaultMoveOverhead = 10
	MaxMoveOverhead     = 5000
)

var ErrInvalidOptions = errors.New("invalid options")

// Options are the UCI options that survive a restart.
type Options struct {
	Hash         int `json:"hash"`
	Threads      int `json:"threads"`
	MoveOverhead int `json:"move_overhead_ms"`

	// NNUE network files; classical evaluation unless both are set.
	EvalFile      string `json:"eval_file,omitempty"`
	EvalFileSmall string `json:"eval_file_small,omitempty"`
}

// UseNNUE reports whether both network files are configured.
func (o Options) UseNNUE() bool {
	return o.EvalFile != "" && o.EvalFileSmall != ""
}

// DefaultOptions returns the options of a fresh install.
func DefaultOptions() Options {
	return Options{
		Hash:         DefaultHash,
		Threads:      DefaultThreads,
		MoveOverhead: DefaultMoveOverhead,
	}
}

// Validate checks every option against the range the engine accepts.
func (o Options) Validate() error {
	switch {
	case o.Hash < engine.MinHashMB || o.Hash > engine.MaxHashMB:
		return fmt.Errorf("%w: hash %d MB", ErrInvalidOptions, o.Hash)
	case o.Threads < engine.MinThreads || o.Threads > engine.MaxThreads:
		return fmt.Errorf("%w: %d threads", ErrInvalidOptions, o.Threads)
	case o.MoveOverhead < 0 || o.MoveOverhead > MaxMoveOverhead:
		return fmt.Errorf("%w: move overhead %d ms", ErrInvalidOptions, o.MoveOverhead)
	}
	return nil
}

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db  *badger.DB
	dir string
	log zerolog.Logger
}

// Open opens (or creates) the database below dataDir. An empty dataDir
// selects DataDir().
func Open(dataDir string, log zerolog.Logger) (*Storage, error) {
	if dataDir == "" {
		var err error
		if dataDir, err = DataDir(); err != nil {
			return nil, err
		}
	}
	dbDir, err := databaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("component", "storage").Logger()

	db, err := badger.Open(badger.DefaultOptions(dbDir).WithLogger(badgerLogger{log}))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbDir, err)
	}
	log.Debug().Str("dir", dbDir).Msg("database opened")
	return &Storage{db: db, dir: dbDir, log: log}, nil
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(log zerolog.Logger) (*Storage, error) {
	log = log.With().Str("component", "storage").Logger()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{log}))
	if err != nil {
		return nil, err
	}
	return &Storage{db: db, log: log}, nil
}

// Dir returns the database directory, empty for an in-memory store.
func (s *Storage) Dir() string {
	return s.dir
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOptions validates and stores o.
func (s *Storage) SaveOptions(o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// LoadOptions returns the stored options, or the defaults if none were
// saved. Fields missing from the stored record keep their defaults.
func (s *Storage) LoadOptions() (Options, error) {
	opts := DefaultOptions()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &opts)
		})
	})
	if err != nil {
		return DefaultOptions(), err
	}
	if err := opts.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("ignoring stored options")
		return DefaultOptions(), err
	}
	return opts, nil
}

// badgerLogger routes badger's log output through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func trimMsg(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(trimMsg(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(trimMsg(format, args))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(trimMsg(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(trimMsg(format, args))
}
