// Package daemon runs the session controller process. It owns the live
// session, serves the presentation layer over a Unix socket, ingests
// record files dropped into the spool directory, and writes the session
// event log.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/lionking1994/moodsart/internal/events"
	"github.com/lionking1994/moodsart/internal/lock"
	"github.com/lionking1994/moodsart/internal/session"
	"github.com/lionking1994/moodsart/internal/uds"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func parseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Daemon serves one session from start to debrief.
type Daemon struct {
	sess     *session.Session
	logLevel LogLevel
	logger   *log.Logger
	logFile  io.Closer

	server   *uds.Server
	watcher  *fsnotify.Watcher
	bus      *events.Bus
	eventLog *events.Logger
	lockMap  *lock.MutexMap

	// planGroup collapses concurrent plan.get requests into one marshal.
	// The plan is immutable, so the snapshot never goes stale.
	planGroup singleflight.Group

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown sync.Once
}

// New wraps an already set-up (or resumed) session in a daemon. The daemon
// takes ownership of the session and closes it on shutdown.
func New(sess *session.Session) (*Daemon, error) {
	logPath := filepath.Join(sess.Paths.Root, "logs", "daemon.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}
	return newDaemon(sess, logFile, logFile)
}

// newDaemon is the internal constructor for testing.
func newDaemon(sess *session.Session, w io.Writer, closer io.Closer) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	eventLog, err := events.NewLogger(sess.Paths.EventLog, 0)
	if err != nil {
		cancel()
		return nil, err
	}

	server := uds.NewServer(sess.Paths.Socket)
	if t := sess.Config.Daemon.ConnTimeoutSec; t > 0 {
		server.SetConnTimeout(time.Duration(t) * time.Second)
	}

	d := &Daemon{
		sess:     sess,
		logLevel: parseLogLevel(sess.Config.Daemon.LogLevel),
		logger:   log.New(w, "", 0),
		logFile:  closer,
		server:   server,
		bus:      events.NewBus(0),
		eventLog: eventLog,
		lockMap:  lock.NewMutexMap(),
		ctx:      ctx,
		cancel:   cancel,
	}
	return d, nil
}

// Bus exposes the event bus so status reporting can listen.
func (d *Daemon) Bus() *events.Bus {
	return d.bus
}

// Run starts the daemon and blocks until shutdown completes.
func (d *Daemon) Run() error {
	d.log(LogLevelInfo, "daemon starting pid=%d participant=%s condition=%d",
		os.Getpid(), d.sess.State.ParticipantCode, d.sess.State.ConditionID)

	// Every published event lands in the JSONL log.
	for _, t := range []events.Type{
		events.SessionStarted, events.PhaseStarted, events.PhaseCompleted,
		events.ProbePresented, events.RecordWritten, events.SessionCompleted,
	} {
		d.bus.Subscribe(t, func(ev events.Event) {
			if err := d.eventLog.Record(ev); err != nil {
				d.log(LogLevelError, "event log write failed: %v", err)
			}
		})
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	d.watcher = watcher

	if err := os.MkdirAll(d.sess.Paths.SpoolDir, 0o755); err != nil {
		d.cleanup()
		return fmt.Errorf("ensure spool dir: %w", err)
	}
	if err := watcher.Add(d.sess.Paths.SpoolDir); err != nil {
		d.cleanup()
		return fmt.Errorf("watch spool dir: %w", err)
	}

	d.registerHandlers()

	if err := d.server.Start(); err != nil {
		d.cleanup()
		return fmt.Errorf("start UDS server: %w", err)
	}
	d.log(LogLevelInfo, "UDS server listening on %s", d.sess.Paths.Socket)

	d.wg.Add(1)
	go d.spoolLoop()

	// Records dropped while no daemon was running are picked up now.
	d.scanSpool()

	d.bus.Publish(events.SessionStarted, map[string]any{
		"session_id":       d.sess.State.SessionID,
		"participant_code": d.sess.State.ParticipantCode,
		"condition_id":     d.sess.State.ConditionID,
		"mode":             string(d.sess.State.Mode),
	})
	d.log(LogLevelInfo, "daemon ready: %s", d.sess.StatusLine())

	d.waitSignals()
	return nil
}

// spoolLoop processes record files as the presentation layer drops them.
func (d *Daemon) spoolLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				d.log(LogLevelDebug, "spool event=%s file=%s", event.Op, event.Name)
				d.processSpoolFile(event.Name)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log(LogLevelError, "fsnotify error=%v", err)
		}
	}
}

// waitSignals blocks until a shutdown signal arrives.
func (d *Daemon) waitSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	d.log(LogLevelInfo, "received signal=%s, initiating graceful shutdown", sig)

	go func() {
		<-sigCh
		d.log(LogLevelWarn, "received second signal, forcing exit")
		os.Exit(1)
	}()

	d.Shutdown()
}

// Shutdown stops the daemon, idempotently.
func (d *Daemon) Shutdown() {
	d.shutdown.Do(func() {
		d.log(LogLevelInfo, "shutdown started")

		d.cancel()
		if d.watcher != nil {
			d.watcher.Close()
		}
		if d.server != nil {
			d.server.Stop()
		}

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			d.log(LogLevelWarn, "shutdown timeout, some operations may be incomplete")
		}

		d.cleanup()
		d.log(LogLevelInfo, "daemon stopped")
	})
}

func (d *Daemon) cleanup() {
	d.bus.Close()
	if err := d.eventLog.Close(); err != nil {
		d.log(LogLevelError, "close event log: %v", err)
	}
	if err := d.sess.Close(); err != nil {
		d.log(LogLevelError, "close session: %v", err)
	}
	if d.logFile != nil {
		d.logFile.Close()
	}
}

func (d *Daemon) log(level LogLevel, format string, args ...any) {
	if level < d.logLevel {
		return
	}
	levelStr := "INFO"
	switch level {
	case LogLevelDebug:
		levelStr = "DEBUG"
	case LogLevelWarn:
		levelStr = "WARN"
	case LogLevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	d.logger.Printf("%s %s daemon: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}
