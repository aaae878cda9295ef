package outcome

import "strings"

// Log is the ordered, append-only sequence of outcome records for one run.
// The engine appends; collectors read, in batch at end of run or streamed
// per record via Subscribe.
type Log struct {
	records []Record
	subs    []func(Record)
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{records: make([]Record, 0)}
}

// Append adds a record and notifies subscribers in registration order.
func (l *Log) Append(r Record) {
	l.records = append(l.records, r)
	for _, fn := range l.subs {
		fn(r)
	}
}

// Subscribe registers a streaming consumer. Subscribers must not mutate the
// record.
func (l *Log) Subscribe(fn func(Record)) {
	l.subs = append(l.subs, fn)
}

// Records returns the recorded sequence. The returned slice is the log's
// backing store; callers must treat it as read-only.
func (l *Log) Records() []Record {
	return l.records
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// String renders the whole sequence, one record per line. Two runs with
// identical configuration and seed must produce byte-identical output here.
func (l *Log) String() string {
	var b strings.Builder
	for _, r := range l.records {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
