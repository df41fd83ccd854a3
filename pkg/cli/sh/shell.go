package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/g4link/pkg/bridge/mqtt"
	"github.com/robotalks/g4link/pkg/env"
	"github.com/robotalks/g4link/pkg/link/uart"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Client *mqtt.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = 2 * time.Second

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout of broker operations.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Client == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Context creates a context bounded by the shell timeout.
func (s *Shell) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Timeout)
}

// Print prints v as JSON when OutputJSON is set, otherwise text.
func (s *Shell) Print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverHosts lists hosts publishing to the broker.
func (s *Shell) DiscoverHosts() ([]mqtt.HostInfo, error) {
	q, err := mqtt.NewQueueFromURL(s.Config.MQTTBrokerURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.Context()
	defer cancel()
	if err = q.Connect(ctx); err != nil {
		return nil, err
	}
	defer q.Close()
	return mqtt.Discover(ctx, q, mqtt.DefaultDiscoverTimeout)
}

// SelectHost discovers hosts and asks for a choice.
func (s *Shell) SelectHost() (*mqtt.HostInfo, error) {
	hosts, err := s.DiscoverHosts()
	if err != nil || len(hosts) == 0 {
		return nil, err
	}
	var index int
	if len(hosts) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 hosts discovered in non-interactive mode")
		}
		items := make([]string, len(hosts))
		for n, host := range hosts {
			items[n] = FormatHost(host)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &hosts[index], nil
}

// FormatHost prints HostInfo into friendly string for display.
func FormatHost(host mqtt.HostInfo) string {
	return fmt.Sprintf("%s: %s @%d", host.ID, host.Meta.Vendor, host.Meta.Baud)
}

// Connect connects to host id.
func (s *Shell) Connect(id string) error {
	client, err := mqtt.NewClient(s.Config.MQTTBrokerURL, id)
	if err != nil {
		return err
	}
	ctx, cancel := s.Context()
	defer cancel()
	if err = client.Connect(ctx); err != nil {
		return err
	}
	s.Disconnect()
	s.Client = client
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", id))
	return nil
}

// Disconnect disconnects current host.
func (s *Shell) Disconnect() {
	if s.Client != nil {
		s.Client.Close()
		s.Client = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.ID != "" && s.Config.MQTTBrokerURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.ID)
		}
		if err := s.Connect(s.Config.ID); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.ID, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers hosts.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list hosts on the broker",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			hosts, err := s.DiscoverHosts()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(hosts) == 0 {
					// in case hosts is nil, make it empty slice.
					hosts = []mqtt.HostInfo{}
				}
				s.Print(c, hosts, "")
				return
			}
			if len(hosts) == 0 {
				c.Println("No hosts found")
				return
			}
			for _, host := range hosts {
				c.Println(FormatHost(host))
			}
		},
	}

	// ConnectCmd connects a host.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var id string
			if len(c.Args) > 0 {
				id = c.Args[0]
			} else {
				host, err := s.SelectHost()
				if err != nil {
					c.Err(err)
					return
				}
				if host == nil {
					c.Err(fmt.Errorf("no host discovered"))
					return
				}
				id = host.ID
			}
			if err := s.Connect(id); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current host.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists local serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list local serial ports",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := uart.Enumerator{}.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				s.Print(c, ports, "")
				return
			}
			for _, p := range ports {
				mark := " "
				if p.IsUSB && p.Manufacturer == s.Config.Vendor {
					mark = "*"
				}
				c.Printf("%s %s %s:%s %s %s\n", mark, p.Name, p.VID, p.PID, p.Manufacturer, p.Product)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
