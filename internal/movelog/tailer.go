package movelog

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tailer periodically re-reads a move log and republishes its last record
// for live display. It shares the file lock with the Logger writing the same
// file.
type Tailer struct {
	path     string
	fileMu   *sync.Mutex
	interval time.Duration
	onLast   func(last Record, ok bool)
	log      zerolog.Logger

	mu   sync.Mutex
	last Record
	have bool

	done   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// NewTailer starts tailing the given logger's file. onLast is called once per
// poll from the tailer's goroutine; ok is false while there are no moves yet.
// onLast may be nil when only Last is used.
func NewTailer(l *Logger, interval time.Duration, onLast func(Record, bool), log zerolog.Logger) *Tailer {
	t := &Tailer{
		path:     l.Path(),
		fileMu:   l.FileMu(),
		interval: interval,
		onLast:   onLast,
		log:      log.With().Str("component", "movetail").Logger(),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Tailer) run() {
	defer close(t.closed)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.poll()
		case <-t.done:
			return
		}
	}
}

func (t *Tailer) poll() {
	t.fileMu.Lock()
	records, err := readRecords(t.path)
	t.fileMu.Unlock()

	if err != nil {
		t.log.Error().Err(err).Msg("failed to read move log")
		return
	}

	var last Record
	ok := len(records) > 0
	if ok {
		last = records[len(records)-1]
	}

	t.mu.Lock()
	t.last, t.have = last, ok
	t.mu.Unlock()

	if t.onLast != nil {
		t.onLast(last, ok)
	}
}

// Last returns the most recently observed record. ok is false while the file
// is missing or empty ("no moves yet").
func (t *Tailer) Last() (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.have
}

// Close stops the polling loop promptly.
func (t *Tailer) Close() {
	t.once.Do(func() { close(t.done) })
	select {
	case <-t.closed:
	case <-time.After(closeTimeout):
		t.log.Warn().Msg("tailer did not stop in time")
	}
}
