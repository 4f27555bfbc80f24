package portal

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fernwood-labs/adsnode/internal/confstore"
	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
	"github.com/fernwood-labs/adsnode/internal/process"
)

// shutdownTimeout bounds the HTTP server drain when the portal closes.
const shutdownTimeout = 2 * time.Second

// Logger is the logging interface the portal reports through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Submission is what the operator typed into the portal form.
type Submission struct {
	// SSID and Passphrase are the network credentials to join.
	SSID       string
	Passphrase string

	// Broker is the edited broker record, already clamped.
	Broker confstore.BrokerConfig
}

// Portal raises the configuration access point and serves the form.
type Portal struct {
	cfg       config.PortalConfig
	wifiIface string
	logger    Logger

	submissions chan Submission
	activity    chan struct{}
}

// New creates a Portal.
//
// Parameters:
//   - cfg: Portal settings from node.yaml
//   - wifiIface: The wireless interface the AP runs on
func New(cfg config.PortalConfig, wifiIface string) *Portal {
	return &Portal{
		cfg:         cfg,
		wifiIface:   wifiIface,
		logger:      noopLogger{},
		submissions: make(chan Submission, 1),
		activity:    make(chan struct{}, 1),
	}
}

// SetLogger sets the logger for the portal.
func (p *Portal) SetLogger(logger Logger) {
	p.logger = logger
}

// Run opens the portal and blocks until a submission, inactivity timeout,
// or context cancellation.
//
// The caller has nothing else to do while the portal is open; the
// single-threaded blocking shape is deliberate. The AP helper daemons and
// the HTTP server are always torn down before Run returns.
//
// Parameters:
//   - ctx: Cancels the portal early
//   - current: Pre-populates the form fields
//
// Returns:
//   - Submission: The operator's input
//   - error: ErrPortalTimeout on an unattended portal, or ctx.Err()
func (p *Portal) Run(ctx context.Context, current confstore.BrokerConfig) (Submission, error) {
	daemons, confDir, err := p.startAccessPoint(ctx)
	if err != nil {
		return Submission{}, err
	}
	defer func() {
		for _, d := range daemons {
			d.Stop()
		}
		if confDir != "" {
			os.RemoveAll(confDir) //nolint:errcheck // Temp dir, best effort
		}
	}()

	listener, err := net.Listen("tcp", p.cfg.ListenAddr)
	if err != nil {
		return Submission{}, fmt.Errorf("portal listen on %s: %w", p.cfg.ListenAddr, err)
	}

	server := &http.Server{
		Handler:           p.routes(current),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			p.logger.Error("portal server", "error", serveErr)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx) //nolint:errcheck // Going to sleep either way
	}()

	p.logger.Info("configuration portal open",
		"ssid", p.cfg.SSID,
		"addr", p.cfg.ListenAddr,
		"timeout", p.cfg.TimeoutDuration(),
	)

	timer := time.NewTimer(p.cfg.TimeoutDuration())
	defer timer.Stop()

	for {
		select {
		case sub := <-p.submissions:
			p.logger.Info("portal submission received")
			return sub, nil

		case <-p.activity:
			// An operator is poking at the form; rearm the deadline.
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(p.cfg.TimeoutDuration())

		case <-timer.C:
			p.logger.Warn("portal timed out unattended")
			return Submission{}, ErrPortalTimeout

		case <-ctx.Done():
			return Submission{}, ctx.Err()
		}
	}
}

// routes builds the portal's HTTP surface.
func (p *Portal) routes(current confstore.BrokerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(p.touch)
	r.Get("/", p.handleForm(current))
	r.Post("/save", p.handleSave)

	// Captive-portal probes from phones land on arbitrary paths; show
	// them the form instead of a 404.
	r.NotFound(p.handleForm(current))

	return r
}

// touch marks any request as operator activity.
func (p *Portal) touch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case p.activity <- struct{}{}:
		default:
		}
		next.ServeHTTP(w, r)
	})
}

// startAccessPoint launches hostapd and dnsmasq for the portal's lifetime.
//
// Helper paths left empty in config skip the daemons entirely; this is
// how bench setups (and tests) run the portal on an existing network.
// The returned conf directory is the caller's to remove once the
// daemons are stopped.
func (p *Portal) startAccessPoint(ctx context.Context) ([]*process.Daemon, string, error) {
	if p.cfg.Hostapd == "" {
		return nil, "", nil
	}

	confDir, err := os.MkdirTemp("", "adsnode-portal-*")
	if err != nil {
		return nil, "", fmt.Errorf("portal conf dir: %w", err)
	}

	hostapdConf := filepath.Join(confDir, "hostapd.conf")
	if err := os.WriteFile(hostapdConf, []byte(p.hostapdConf()), 0600); err != nil {
		os.RemoveAll(confDir) //nolint:errcheck // Temp dir, best effort
		return nil, "", fmt.Errorf("writing hostapd conf: %w", err)
	}

	var daemons []*process.Daemon

	hostapd := process.NewDaemon(process.DaemonConfig{
		Name:   "hostapd",
		Binary: p.cfg.Hostapd,
		Args:   []string{hostapdConf},
	})
	hostapd.SetLogger(p.logger)
	if err := hostapd.Start(ctx); err != nil {
		os.RemoveAll(confDir) //nolint:errcheck // Temp dir, best effort
		return nil, "", fmt.Errorf("starting access point: %w", err)
	}
	daemons = append(daemons, hostapd)

	if p.cfg.Dnsmasq != "" {
		host, _, splitErr := net.SplitHostPort(p.cfg.ListenAddr)
		if splitErr != nil {
			host = "192.168.4.1"
		}
		dnsmasq := process.NewDaemon(process.DaemonConfig{
			Name:   "dnsmasq",
			Binary: p.cfg.Dnsmasq,
			Args: []string{
				"--keep-in-foreground",
				"--interface=" + p.wifiIface,
				"--dhcp-range=192.168.4.2,192.168.4.20,12h",
				"--address=/#/" + host,
			},
		})
		dnsmasq.SetLogger(p.logger)
		if err := dnsmasq.Start(ctx); err != nil {
			hostapd.Stop()
			os.RemoveAll(confDir) //nolint:errcheck // Temp dir, best effort
			return nil, "", fmt.Errorf("starting dhcp helper: %w", err)
		}
		daemons = append(daemons, dnsmasq)
	}

	return daemons, confDir, nil
}

// hostapdConf renders the minimal AP configuration.
func (p *Portal) hostapdConf() string {
	return fmt.Sprintf(`interface=%s
ssid=%s
hw_mode=g
channel=6
wpa=2
wpa_passphrase=%s
wpa_key_mgmt=WPA-PSK
rsn_pairwise=CCMP
`, p.wifiIface, p.cfg.SSID, p.cfg.Password)
}
