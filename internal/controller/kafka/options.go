package kafka

import "time"

type Option func(*Worker)

func TransientDelay(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.transientDelay = d
		}
	}
}

func ProcessTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.processTimeout = d
		}
	}
}

func CommitTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.commitTimeout = d
		}
	}
}
