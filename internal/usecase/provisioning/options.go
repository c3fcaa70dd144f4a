package provisioning

import "time"

type Option func(*UseCase)

func MaxAttempts(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

func BaseDelay(d time.Duration) Option {
	return func(uc *UseCase) {
		if d > 0 {
			uc.baseDelay = d
		}
	}
}
