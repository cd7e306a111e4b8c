package main

import (
	"context"

	"github.com/sirupsen/logrus"

	eventbus "github.com/hanpama/objrow/internal/eventbus"
	events "github.com/hanpama/objrow/internal/events"
	reqid "github.com/hanpama/objrow/internal/reqid"
)

// logEvents logs executor events through log until the returned function is
// called.
func logEvents(log logrus.FieldLogger) func() {
	entry := func(ctx context.Context, fields logrus.Fields) *logrus.Entry {
		if rid, ok := reqid.FromContext(ctx); ok {
			fields["run"] = rid
		}
		return log.WithFields(fields)
	}
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.CompileFinish) {
			l := entry(ctx, logrus.Fields{
				"mode":     e.Mode,
				"nodes":    e.Nodes,
				"cached":   e.Cached,
				"duration": e.Duration,
			})
			if e.Err != nil {
				l.WithError(e.Err).Debug("tree preparation failed")
				return
			}
			l.Debug("tree prepared")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.CodegenFallback) {
			entry(ctx, logrus.Fields{"tree": e.Tree}).WithError(e.Err).Debug("falling back to interpreted evaluation")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.BatchFinish) {
			l := entry(ctx, logrus.Fields{
				"mode":      e.Mode,
				"rows":      e.Rows,
				"evaluated": e.Evaluated,
				"duration":  e.Duration,
			})
			if e.Err != nil {
				l = l.WithError(e.Err)
			}
			l.Debug("batch finished")
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
