package ui

import "github.com/bamsammich/cloudmig/internal/stats"

// quietPresenter consumes events but produces no output.
type quietPresenter struct {
	stats stats.Reader
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
		// Drain so the engine's non-blocking sends never back up.
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
