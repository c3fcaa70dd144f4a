package outbox

import "time"

type Option func(*Relay)

func PollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func BatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func BatchTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.batchTimeout = d
		}
	}
}
