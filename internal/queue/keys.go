// Package queue names the Redis keys of a delayed-job queue and opens the
// client shared by the recurrence index and the job store.
package queue

const (
	DefaultPrefix = "bull"
	DefaultName   = "default"
)

// Keys derives every Redis key of one queue from its prefix and name.
type Keys struct {
	Prefix string
	Queue  string
}

// NewKeys applies defaults for empty values.
func NewKeys(prefix, queue string) Keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if queue == "" {
		queue = DefaultName
	}
	return Keys{Prefix: prefix, Queue: queue}
}

// Base is the common prefix of all keys, ending in ":".
func (k Keys) Base() string {
	return k.Prefix + ":" + k.Queue + ":"
}

// Repeat is the sorted set of recurrence index entries scored by next fire time.
func (k Keys) Repeat() string {
	return k.Base() + "repeat"
}

// Delayed is the sorted set of job ids scored by the time they become due.
func (k Keys) Delayed() string {
	return k.Base() + "delayed"
}

// Wait is the list of job ids ready to run.
func (k Keys) Wait() string {
	return k.Base() + "wait"
}

// Job is the hash holding one job.
func (k Keys) Job(id string) string {
	return k.Base() + id
}
