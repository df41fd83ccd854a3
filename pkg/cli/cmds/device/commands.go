package device

import (
	"context"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/g4link/pkg/cli/sh"
	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
)

func apply(c *ishell.Context, setting *msgs.Setting) {
	s := sh.ShellFrom(c)
	ctx, cancel := s.Context()
	defer cancel()
	if err := s.Client.Apply(ctx, setting); err != nil {
		c.Err(err)
		return
	}
	c.Println("OK")
}

func watch(c *ishell.Context, dur time.Duration, fn func(link.Event) bool) {
	ctx, cancel := context.WithTimeout(context.Background(), dur)
	defer cancel()
	evCh := make(chan link.Event, 16)
	subs := sh.ShellFrom(c).Client.Watch(func(ev link.Event) {
		select {
		case evCh <- ev:
		default:
		}
	})
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-evCh:
			if !fn(ev) {
				return
			}
		}
	}
}

func formatEvent(ev link.Event) string {
	switch e := ev.(type) {
	case *link.ConnStateEvent:
		if e.Port == "" {
			return e.State.String()
		}
		return e.Port + " " + e.State.String()
	case *link.StatsEvent:
		return fmt.Sprintf("%.1f reports/s", e.ReportsPerSec)
	case *link.ErrorEvent:
		return "error: " + e.Err.Error()
	case *link.MessageEvent:
		if e.Message.State != nil {
			return fmt.Sprintf("state accepted=%v %s", e.Message.State.Accepted, FormatSettings(e.Message.State.Settings))
		}
		return fmt.Sprintf("%d samples", len(e.Message.Samples()))
	}
	return fmt.Sprintf("%v", ev)
}

var (
	// CheckCmd asks the device to echo its state.
	CheckCmd = ishell.Cmd{
		Name:    "check",
		Aliases: []string{"get-state"},
		Help:    "ask the device to report its settings",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			ctx, cancel := s.Context()
			defer cancel()
			if err := s.Client.Do(ctx, msgs.CheckState()); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// SetCmd changes a setting.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "sampling|report|viewport VALUE (µs, µs, ms)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: set sampling|report|viewport VALUE"))
				return
			}
			setting, err := ParseSetting(c.Args[0], c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			apply(c, setting)
		}),
	}

	// PresetCmd selects a sampling frequency preset.
	PresetCmd = ishell.Cmd{
		Name: "preset",
		Help: "INDEX, see presets",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: preset INDEX"))
				return
			}
			setting, err := PresetSetting(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			apply(c, setting)
		}),
	}

	// PresetsCmd lists sampling frequency presets.
	PresetsCmd = ishell.Cmd{
		Name: "presets",
		Help: "list sampling frequency presets",
		Func: func(c *ishell.Context) {
			for n, intv := range msgs.FreqPresets {
				c.Printf("%d: %dµs %s\n", n, intv, FormatFreq(intv))
			}
		},
	}

	// SettingsCmd prints current settings.
	SettingsCmd = ishell.Cmd{
		Name: "settings",
		Help: "print current settings",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			ctx, cancel := s.Context()
			defer cancel()
			settings, err := s.Client.Settings(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, settings, FormatSettings(settings))
		}),
	}

	// WatchCmd prints events for a while.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION], default 5s",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			dur := 5 * time.Second
			if len(c.Args) > 0 {
				var err error
				if dur, err = time.ParseDuration(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			s := sh.ShellFrom(c)
			watch(c, dur, func(ev link.Event) bool {
				s.Print(c, ev, formatEvent(ev))
				return true
			})
		}),
	}

	// StatsCmd prints the next throughput report.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "print reports per second",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			var got bool
			watch(c, s.Timeout+link.DefaultStatsInterval, func(ev link.Event) bool {
				if stats, ok := ev.(*link.StatsEvent); ok {
					s.Print(c, stats, formatEvent(stats))
					got = true
					return false
				}
				return true
			})
			if !got {
				c.Err(fmt.Errorf("no stats received"))
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&CheckCmd,
		&SetCmd,
		&PresetCmd,
		&PresetsCmd,
		&SettingsCmd,
		&WatchCmd,
		&StatsCmd,
	)
}
