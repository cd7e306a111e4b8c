package events

import "time"

// BatchStart is emitted before a batch of rows is evaluated.
type BatchStart struct {
	Tree string
	Mode string
	Rows int
}

// BatchFinish is emitted after a batch completes or aborts. Evaluated counts
// the rows that produced a value.
type BatchFinish struct {
	Tree      string
	Mode      string
	Rows      int
	Evaluated int
	Err       error
	Duration  time.Duration
}
