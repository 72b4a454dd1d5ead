package main

import (
	"math/rand"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// backoff doubles from base up to maxBackoff on consecutive failures.
type backoff struct {
	base    time.Duration
	current time.Duration
}

func newBackoff(base time.Duration) *backoff {
	return &backoff{base: base, current: base}
}

func (b *backoff) fail() time.Duration {
	b.current *= 2
	if b.current > maxBackoff {
		b.current = maxBackoff
	}
	return b.current
}

func (b *backoff) reset() {
	b.current = b.base
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int63n(int64(jitterWindow)))
}
