// Package eventlog implements the Core's append-only Event Log: O(1)
// in-memory append plus a non-blocking JSON Lines writer backed by a
// bounded queue and a background drain worker.
package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dawnlabs/dawn-core/model"
)

// defaultQueueDepth bounds how many events may be buffered for the
// background writer; once it is full, Append skips the writer for further
// events and counts them in Dropped.
const defaultQueueDepth = 1024

// Log is the in-memory append-only record plus an optional async JSON
// Lines writer. Append is O(1) and never blocks: not on disk I/O, and not
// on a saturated writer queue, where the event is kept in memory but not
// written to disk, and is counted by Dropped.
type Log struct {
	mu      sync.RWMutex
	records []model.Event

	queue      chan model.Event
	group      *errgroup.Group
	cancel     context.CancelFunc
	dropped    int
	droppedMu  sync.Mutex
}

// New creates an in-memory-only log with no persistence.
func New() *Log {
	return &Log{}
}

// Append records e in memory and, if a writer is attached, enqueues it for
// background persistence. The in-memory append always succeeds.
func (l *Log) Append(e model.Event) {
	l.mu.Lock()
	l.records = append(l.records, e)
	l.mu.Unlock()

	if l.queue == nil {
		return
	}
	select {
	case l.queue <- e:
	default:
		l.droppedMu.Lock()
		l.dropped++
		l.droppedMu.Unlock()
	}
}

// All returns a copy of every event appended so far, in append order.
func (l *Log) All() []model.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Event(nil), l.records...)
}

// Len returns the number of events appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Dropped returns the number of events discarded because the background
// writer's queue was full — a dead-letter counter that tick.Core.Snapshot
// reports as DroppedEvents.
func (l *Log) Dropped() int {
	l.droppedMu.Lock()
	defer l.droppedMu.Unlock()
	return l.dropped
}

// StartWriter attaches a background JSON Lines writer appending to path.
// It must be called at most once per Log. Call Close to drain the queue
// and stop the worker.
func (l *Log) StartWriter(ctx context.Context, path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.queue = make(chan model.Event, defaultQueueDepth)

	g, gctx := errgroup.WithContext(ctx)
	l.group = g
	g.Go(func() error {
		defer f.Close()
		w := bufio.NewWriter(f)
		defer w.Flush()

		for {
			select {
			case e, ok := <-l.queue:
				if !ok {
					return w.Flush()
				}
				if err := writeLine(w, e); err != nil {
					return err
				}
			case <-gctx.Done():
				// Drain whatever is already queued before exiting.
				for {
					select {
					case e, ok := <-l.queue:
						if !ok {
							return w.Flush()
						}
						if err := writeLine(w, e); err != nil {
							return err
						}
					default:
						return w.Flush()
					}
				}
			}
		}
	})
	return nil
}

func writeLine(w *bufio.Writer, e model.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Close stops accepting new writes, drains the queue, and waits for the
// background writer to flush and exit.
func (l *Log) Close() error {
	if l.queue == nil {
		return nil
	}
	close(l.queue)
	if l.cancel != nil {
		l.cancel()
	}
	return l.group.Wait()
}

// ReadLog reads every event from a JSON Lines log file, skipping malformed
// lines and counting them.
func ReadLog(path string) (events []model.Event, parseErrors int, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return nil, 0, nil
		}
		return nil, 0, openErr
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.Event
		if jerr := json.Unmarshal(line, &e); jerr != nil {
			parseErrors++
			continue
		}
		events = append(events, e)
	}
	return events, parseErrors, scanner.Err()
}
