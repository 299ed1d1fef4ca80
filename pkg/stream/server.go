package stream

import (
	"context"
	"flag"
	"net"
	"net/http"

	"github.com/golang/glog"

	fx "github.com/robotalks/segbot/pkg/framework"
)

// Config defines the configurations for the stream server.
type Config struct {
	// Listen is the address to serve on, empty disables the server.
	Listen string `yaml:"listen"`
}

var defaultConfig Config

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Serve telemetry over websocket on this address, e.g. :8080.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewServer creates a Server using the config.
func (c *Config) NewServer(hub *Hub) *Server {
	return &Server{Addr: c.Listen, Hub: hub}
}

// Server serves a Hub at /ws.
type Server struct {
	Addr string
	Hub  *Hub
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "stream-server"
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Hub.Handler())
	server := &http.Server{Handler: mux}
	glog.Infof("stream serving on %s", ln.Addr())
	return fx.RunWithContextCloser(ctx, server, func() error {
		err := server.Serve(ln)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
}
