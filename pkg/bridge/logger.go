package bridge

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/g4link/pkg/link"
)

// Logger logs events from a Bus.
type Logger struct {
	Bus *Bus
}

// Name implements framework.Named.
func (l *Logger) Name() string {
	return "event-logger"
}

// Run implements framework.Runnable.
func (l *Logger) Run(ctx context.Context) error {
	sub := l.Bus.Subscribe()
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			logEvent(ev)
		}
	}
}

func logEvent(ev link.Event) {
	switch e := ev.(type) {
	case *link.ConnStateEvent:
		if e.Port == "" {
			glog.Infof("device %s", e.State)
		} else {
			glog.Infof("device %s: %s", e.Port, e.State)
		}
	case *link.ErrorEvent:
		glog.Errorf("device %s: %v", e.Port, e.Err)
	case *link.StatsEvent:
		glog.V(1).Infof("reports: %.1f/s", e.ReportsPerSec)
	case *link.MessageEvent:
		glog.V(3).Infof("%s: %d sample bytes", e.Port, len(e.Message.Hall))
	}
}
