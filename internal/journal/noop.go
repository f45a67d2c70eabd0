package journal

import "context"

// Noop is the default journal: it drops everything.
type Noop struct{}

func (Noop) Record(context.Context, Entry) error { return nil }

func (Noop) Recent(context.Context, string, int) ([]Entry, error) { return nil, nil }

func (Noop) Close() error { return nil }
