package fusion

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/atomic"

	"go.viam.com/depthfusion/logging"
)

// Sink receives the result of every successful cycle. Each publication replaces the previous
// one. Publish is called from the cycle's worker goroutine and must not block for long.
type Sink interface {
	Publish(res *Result)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(res *Result)

// Publish calls f.
func (f SinkFunc) Publish(res *Result) {
	f(res)
}

// LatestSink keeps the most recent result behind a single atomic pointer so a reader always
// sees one complete detection set.
type LatestSink struct {
	latest atomic.Pointer[Result]
	count  atomic.Uint64
}

// NewLatestSink returns an empty LatestSink.
func NewLatestSink() *LatestSink {
	return &LatestSink{}
}

// Publish replaces the stored result.
func (s *LatestSink) Publish(res *Result) {
	s.latest.Store(res)
	s.count.Inc()
}

// Latest returns the last published result, or nil before the first publication.
func (s *LatestSink) Latest() *Result {
	return s.latest.Load()
}

// Count is the number of results published so far.
func (s *LatestSink) Count() uint64 {
	return s.count.Load()
}

// MailboxSink hands results to a single consumer goroutine, such as a render loop, through a
// one-slot mailbox. An unread result is overwritten by the next one.
type MailboxSink struct {
	mu          sync.Mutex
	ch          chan *Result
	overwritten atomic.Uint64
}

// NewMailboxSink returns an empty mailbox.
func NewMailboxSink() *MailboxSink {
	return &MailboxSink{ch: make(chan *Result, 1)}
}

// Publish stores res, discarding any result the consumer has not read yet.
func (s *MailboxSink) Publish(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ch:
		s.overwritten.Inc()
	default:
	}
	s.ch <- res
}

// Updates is the consumer side of the mailbox.
func (s *MailboxSink) Updates() <-chan *Result {
	return s.ch
}

// Overwritten counts results replaced before the consumer read them.
func (s *MailboxSink) Overwritten() uint64 {
	return s.overwritten.Load()
}

// WriterSink writes each result as one JSON line.
type WriterSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	logger logging.Logger
}

// NewWriterSink writes results to w.
func NewWriterSink(w io.Writer, logger logging.Logger) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w), logger: logger}
}

// Publish encodes res. Encoding errors are logged, not returned.
func (s *WriterSink) Publish(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(res); err != nil {
		s.logger.Errorw("cannot write fusion result", "cycle", res.CycleID, "error", err)
	}
}
