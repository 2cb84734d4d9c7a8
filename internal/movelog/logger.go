package movelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const closeTimeout = 2 * time.Second

// Logger appends move records to a per-game log file. LogMove never blocks
// the caller; a single background worker drains the queue and rewrites the
// file under a lock shared with the Tailer, so the file is always one
// well-formed JSON array.
type Logger struct {
	path string
	log  zerolog.Logger

	fileMu *sync.Mutex

	queue  chan Record
	done   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// New creates the log file's directory if needed and starts the worker. The
// file itself appears on the first accepted move.
func New(gameID, dir string, log zerolog.Logger) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}
	l := &Logger{
		path:   filepath.Join(dir, "moves_"+gameID+".json"),
		log:    log.With().Str("component", "movelog").Str("game_id", gameID).Logger(),
		fileMu: &sync.Mutex{},
		queue:  make(chan Record, 1024),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *Logger) Path() string { return l.path }

// FileMu is the lock guarding the log file, shared with the Tailer.
func (l *Logger) FileMu() *sync.Mutex { return l.fileMu }

// LogMove enqueues a record without blocking. The audit trail is best-effort:
// if the queue is full the record is dropped and the game continues.
func (l *Logger) LogMove(r Record) {
	select {
	case <-l.done:
	case l.queue <- r:
	default:
		l.log.Warn().Str("player", r.Player).Msg("move log queue full, record dropped")
	}
}

func (l *Logger) run() {
	defer close(l.closed)
	for {
		select {
		case r := <-l.queue:
			l.append(r)
		case <-l.done:
			// Drain whatever was enqueued before shutdown.
			for {
				select {
				case r := <-l.queue:
					l.append(r)
				default:
					return
				}
			}
		}
	}
}

// append rewrites the whole file with the new record added. Acceptable at
// tens to low hundreds of moves per game; the payoff is a file readable in
// one shot.
func (l *Logger) append(r Record) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	records, err := readRecords(l.path)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to read existing records, record dropped")
		return
	}
	records = append(records, r)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		l.log.Error().Err(err).Msg("failed to marshal records, record dropped")
		return
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		l.log.Error().Err(err).Msg("failed to write log file, record dropped")
		return
	}
	l.log.Debug().Str("player", r.Player).Str("kind", string(r.Kind)).Msg("move recorded")
}

// Close stops accepting records, drains the queue and waits for the worker
// with a bounded timeout.
func (l *Logger) Close() {
	l.once.Do(func() { close(l.done) })
	select {
	case <-l.closed:
	case <-time.After(closeTimeout):
		l.log.Warn().Msg("move log worker did not stop in time")
	}
}

// ReadRecords returns all records in submission order. A missing or empty
// file yields no records and no error.
func ReadRecords(path string) ([]Record, error) {
	return readRecords(path)
}

func readRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("malformed log file: %v", err)
	}
	return records, nil
}
