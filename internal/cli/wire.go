package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/config"
	"github.com/milvus-admin/console/internal/logging"
	"github.com/milvus-admin/console/internal/session"
	"github.com/milvus-admin/console/internal/store"
)

var errNotConnected = errors.New("not connected; run: milvus-admin connect HOST PORT")

// app holds everything a command needs. It is filled in by wire once flags
// are parsed.
type app struct {
	cfg        *config.Config
	json       bool
	logger     *zap.Logger
	api        *client.HTTPClient
	store      *store.EndpointStore
	sess       *session.Manager
	dispatcher *action.Dispatcher

	flushLogs func()
}

func (a *app) wire(flags *globalFlags, console bool) error {
	cfg, err := config.Resolve(flags.configPath, flags.envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flags.adminURL != "" {
		if err := applyAdminURL(cfg, flags.adminURL); err != nil {
			return err
		}
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	stateDir := cfg.State.Dir
	if stateDir == "" {
		stateDir = store.DefaultDir()
	}
	logFile := cfg.Log.File
	if console && logFile == "" {
		logFile = filepath.Join(stateDir, "console.log")
	}
	if !console {
		logFile = ""
	}
	logger, flush, err := logging.Install(cfg.Log.Level, logFile)
	if err != nil {
		return err
	}

	api := client.NewHTTPClient(cfg.BaseURL(),
		client.WithTimeout(cfg.Admin.Timeout),
		client.WithLogger(logger.Named("client")))
	st := store.NewEndpointStore(stateDir)

	a.cfg = cfg
	a.json = flags.json
	a.logger = logger
	a.api = api
	a.store = st
	a.sess = session.NewManager(api, st,
		session.WithLogger(logger.Named("session")),
		session.WithLivenessInterval(cfg.Session.LivenessInterval))
	a.dispatcher = action.NewDispatcher(api, logger.Named("action"))
	a.flushLogs = flush
	return nil
}

func (a *app) close() {
	if a.sess != nil {
		a.sess.Close()
		a.sess = nil
	}
	if a.flushLogs != nil {
		a.flushLogs()
		a.flushLogs = nil
	}
}

// endpoint restores the saved session and waits for its connect probe.
func (a *app) endpoint(ctx context.Context) (client.Endpoint, error) {
	a.sess.Start()
	st, err := a.sess.WaitSettled(ctx)
	if err != nil {
		return client.Endpoint{}, err
	}
	switch st.Status {
	case session.Connected:
		return st.Endpoint, nil
	case session.Failed:
		return client.Endpoint{}, fmt.Errorf("cannot reach %s: %s", st.Endpoint, st.LastError)
	default:
		return client.Endpoint{}, errNotConnected
	}
}

func (a *app) defaultEndpoint() client.Endpoint {
	return client.Endpoint{Host: a.cfg.Session.DefaultHost, Port: a.cfg.Session.DefaultPort}
}

func applyAdminURL(cfg *config.Config, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("--admin-url %q: want scheme://host[:port]", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("--admin-url %q: scheme must be http or https", raw)
	}
	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return fmt.Errorf("--admin-url %q: %w", raw, err)
		}
	}
	cfg.Admin.Scheme = u.Scheme
	cfg.Admin.Host = u.Hostname()
	cfg.Admin.Port = port
	return nil
}
