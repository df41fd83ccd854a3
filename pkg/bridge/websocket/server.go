// Package websocket streams link events to browsers and accepts commands
// over HTTP.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/g4link/pkg/bridge"
	fx "github.com/robotalks/g4link/pkg/framework"
	"github.com/robotalks/g4link/pkg/g4/msgs"
	"github.com/robotalks/g4link/pkg/link"
)

// Controller is the command surface exposed over HTTP.
// It is implemented by link.Supervisor.
type Controller interface {
	Apply(*msgs.Setting) error
	Do(*msgs.Command) (int, error)
	Sessions() []string
}

// Request is sent by clients on the event stream.
// Exactly one of Set and Check is expected.
type Request struct {
	Set   *msgs.Setting `json:"set,omitempty"`
	Check bool          `json:"check,omitempty"`
}

// Server serves:
//
//	/events    websocket, JSON bridge.Envelope out, JSON Request in
//	/settings  GET current settings, POST a JSON msgs.Setting
//	/status    GET live sessions
type Server struct {
	Addr       string
	Bus        *bridge.Bus
	Controller Controller
	Settings   *link.SettingsStore
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "http"
}

// Handler returns the http.Handler of all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/events", websocket.Handler(s.eventStream))
	mux.HandleFunc("/settings", s.settings)
	mux.HandleFunc("/status", s.status)
	return mux
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{Addr: s.Addr, Handler: s.Handler()}
	glog.Infof("http listening on %s", s.Addr)
	err := fx.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}, server.ListenAndServe)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) eventStream(conn *websocket.Conn) {
	defer conn.Close()
	sub := s.Bus.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.receiveRequests(conn)
	}()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, bridge.Wrap(ev)); err != nil {
				glog.V(2).Infof("ws send: %v", err)
				return
			}
		case <-done:
			return
		case <-conn.Request().Context().Done():
			return
		}
	}
}

func (s *Server) receiveRequests(conn *websocket.Conn) {
	for {
		var req Request
		if err := websocket.JSON.Receive(conn, &req); err != nil {
			glog.V(2).Infof("ws receive: %v", err)
			return
		}
		if err := s.handle(&req); err != nil {
			s.Bus.Emit(context.Background(), &link.ErrorEvent{Err: err})
		}
	}
}

func (s *Server) handle(req *Request) error {
	switch {
	case req.Set != nil:
		return s.Controller.Apply(req.Set)
	case req.Check:
		_, err := s.Controller.Do(msgs.CheckState())
		return err
	}
	return errors.New("empty request")
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var setting msgs.Setting
		if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if err := s.Controller.Apply(&setting); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, fmt.Sprintf("method %s not allowed", r.Method), http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Settings.Snapshot())
}

type statusReply struct {
	Sessions    []string `json:"sessions"`
	Subscribers int      `json:"subscribers"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &statusReply{
		Sessions:    s.Controller.Sessions(),
		Subscribers: s.Bus.Subscribers(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.V(2).Infof("http write: %v", err)
	}
}
