package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	ntf "github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-pkgz/syncs"
	"github.com/robfig/cron/v3"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/jobtrack/app/backup"
	"github.com/umputun/jobtrack/app/conditions"
	"github.com/umputun/jobtrack/app/notify"
	"github.com/umputun/jobtrack/app/store"
	"github.com/umputun/jobtrack/app/store/enums"
	"github.com/umputun/jobtrack/app/store/persistence"
	"github.com/umputun/jobtrack/app/web"
)

var opts struct {
	Export string `long:"export" env:"JOBTRACK_EXPORT" description:"export the store to file and exit, - for stdout"`
	Import string `long:"import" env:"JOBTRACK_IMPORT" description:"import the store from file and exit"`
	Format string `long:"format" env:"JOBTRACK_FORMAT" choice:"json" choice:"yaml" default:"json" description:"export/import format"`
	Dbg    bool   `long:"dbg" env:"JOBTRACK_DEBUG" description:"debug mode"`

	Store struct {
		Path    string `long:"path" env:"PATH" default:"jobtrack.db" description:"sqlite database file"`
		Key     string `long:"key" env:"KEY" default:"job-tracker-store" description:"key of the stored blob"`
		Memory  bool   `long:"memory" env:"MEMORY" description:"keep the store in memory only"`
		Retries int    `long:"retries" env:"RETRIES" default:"3" description:"write attempts on failure"`
	} `group:"store" namespace:"store" env-namespace:"JOBTRACK_STORE"`

	Web struct {
		Address      string        `long:"address" env:"ADDRESS" default:":8080" description:"web server listen address"`
		BaseURL      string        `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /jobs)"`
		PasswordHash string        `long:"password-hash" env:"PASSWORD_HASH" description:"bcrypt hash of the UI password, no auth if empty"`
		LoginTTL     time.Duration `long:"login-ttl" env:"LOGIN_TTL" default:"168h" description:"login session lifetime"`
	} `group:"web" namespace:"web" env-namespace:"JOBTRACK_WEB"`

	Backup struct {
		Enabled  bool   `long:"enabled" env:"ENABLED" description:"enable scheduled backups"`
		Dir      string `long:"dir" env:"DIR" default:"backups" description:"backup directory"`
		Schedule string `long:"schedule" env:"SCHEDULE" default:"0 3 * * *" description:"backup cron schedule"`
		Keep     int    `long:"keep" env:"KEEP" default:"7" description:"backup files to keep, 0 keeps all"`
		DiskFree int    `long:"disk-free" env:"DISK_FREE" default:"5" description:"skip backup if free disk is below, percent"`
		MemBelow int    `long:"mem-below" env:"MEM_BELOW" description:"skip backup if used memory is above, percent"`
		Resume   bool   `long:"resume" env:"RESUME" description:"run a backup missed while down on startup"`
	} `group:"backup" namespace:"backup" env-namespace:"JOBTRACK_BACKUP"`

	Notify struct {
		SMTPHost     string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort     int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS      bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPStartTLS bool          `long:"smtp-starttls" env:"SMTP_STARTTLS" description:"enable SMTP StartTLS"`
		SMTPTimeOut  time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail    string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails     []string      `long:"to" env:"TO" description:"emails to alert on failed backups" env-delim:","`
		HostName     string        `long:"host" env:"HOSTNAME" description:"host name in alerts"`
	} `group:"notify" namespace:"notify" env-namespace:"JOBTRACK_NOTIFY"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"jobtrack.log" description:"file to log to"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"maximum size in megabytes before rotation"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"maximum number of old log files to retain"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"maximum number of days to retain old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"JOBTRACK_LOG"`
}

var revision = "unknown"

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	fmt.Fprintf(consoleOut(), "jobtrack %s\n", revision)
	setupLogger(setupLogs(), opts.Dbg)

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slot, closeSlot, err := makeSlot()
	if err != nil {
		return err
	}
	defer closeSlot()

	st := store.New(store.Params{
		Slot:     slot,
		Key:      opts.Store.Key,
		Repeater: repeater.New(&strategy.FixedDelay{Repeats: opts.Store.Retries, Delay: 50 * time.Millisecond}),
	})

	format, err := enums.ParseFormat(opts.Format)
	if err != nil {
		return fmt.Errorf("bad format: %w", err)
	}

	switch {
	case opts.Export != "":
		return exportStore(st, opts.Export, format)
	case opts.Import != "":
		return importStore(st, opts.Import, format)
	}

	srv, err := web.New(web.Config{
		Store:        st,
		BaseURL:      validateBaseURL(opts.Web.BaseURL),
		Version:      revision,
		PasswordHash: opts.Web.PasswordHash,
		LoginTTL:     opts.Web.LoginTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	// either of them stopping stops the other one
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	gr := syncs.NewErrSizedGroup(2, syncs.Context(ctx), syncs.TermOnErr)
	gr.Go(func() error {
		defer cancel()
		return srv.Run(ctx, opts.Web.Address)
	})
	if opts.Backup.Enabled {
		bk := makeBackup(st, format)
		gr.Go(func() error {
			defer cancel()
			return bk.Run(ctx, opts.Backup.Schedule)
		})
	}
	return shutdownErr(gr.Wait())
}

// shutdownErr drops cancellation reported by the group on a normal stop
func shutdownErr(err error) error {
	var merr *syncs.MultiError
	if !errors.As(err, &merr) {
		return err
	}
	for _, e := range merr.Errors() {
		if !errors.Is(e, context.Canceled) {
			return e
		}
	}
	return nil
}

// makeSlot returns the storage slot and its close function
func makeSlot() (store.Slot, func(), error) {
	if opts.Store.Memory {
		log.Printf("[WARN] in-memory store, all changes are lost on exit")
		return persistence.NewMemorySlot(), func() {}, nil
	}
	slot, err := persistence.NewSQLiteSlot(opts.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store %s: %w", opts.Store.Path, err)
	}
	log.Printf("[INFO] store opened, %s", opts.Store.Path)
	return slot, func() {
		if err := slot.Close(); err != nil {
			log.Printf("[WARN] failed to close store, %v", err)
		}
	}, nil
}

func makeBackup(st *store.Store, format enums.Format) *backup.Backup {
	res := &backup.Backup{
		Exporter: st,
		Cron:     cron.New(),
		Dir:      opts.Backup.Dir,
		Format:   format,
		Keep:     opts.Backup.Keep,
		Resume:   opts.Backup.Resume,

		ConditionChecker: conditions.NewChecker(),
		Conditions: conditions.Config{
			DiskFreeAbove: opts.Backup.DiskFree,
			DiskFreePath:  opts.Backup.Dir,
			MemoryBelow:   opts.Backup.MemBelow,
		},
	}
	// nil *notify.Service must not become a non-nil interface
	if svc := makeNotifier(); svc != nil {
		res.Notifier = svc
	}
	return res
}

func makeNotifier() *notify.Service {
	if len(opts.Notify.ToEmails) == 0 {
		return nil
	}
	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "jobtrack@" + makeHostName()
	}
	return notify.NewService(notify.Params{
		SMTP: ntf.SMTPParams{
			Host:     opts.Notify.SMTPHost,
			Port:     opts.Notify.SMTPPort,
			TLS:      opts.Notify.SMTPTLS,
			StartTLS: opts.Notify.SMTPStartTLS,
			Username: opts.Notify.SMTPUsername,
			Password: opts.Notify.SMTPPassword,
			TimeOut:  opts.Notify.SMTPTimeOut,
		},
		FromEmail: opts.Notify.FromEmail,
		ToEmails:  opts.Notify.ToEmails,
		HostName:  makeHostName(),
	})
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// exportStore writes the export to file, "-" means stdout
func exportStore(st *store.Store, fname string, format enums.Format) error {
	text, err := st.Export(format)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	if fname == "-" {
		_, err = io.WriteString(os.Stdout, text)
		return err
	}
	if err = os.WriteFile(fname, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", fname, err)
	}
	log.Printf("[INFO] store exported to %s", fname)
	return nil
}

func importStore(st *store.Store, fname string, format enums.Format) error {
	text, err := os.ReadFile(fname) //nolint:gosec // file name comes from the command line
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fname, err)
	}
	if err = st.Import(string(text), format); err != nil {
		if errors.Is(err, store.ErrImportInvalid) {
			return fmt.Errorf("%s rejected: %w", fname, err)
		}
		return fmt.Errorf("failed to import %s: %w", fname, err)
	}
	log.Printf("[INFO] store imported from %s", fname)
	return nil
}

// consoleOut is stdout unless the export goes there
func consoleOut() io.Writer {
	if opts.Export == "-" {
		return os.Stderr
	}
	return os.Stdout
}

// setupLogs returns the log destination, rotated file if enabled
func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		return consoleOut()
	}
	return &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
}

func setupLogger(out io.Writer, dbg bool) {
	if dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile, log.Out(out), log.Err(out))
		return
	}
	log.Setup(log.Msec, log.Out(out), log.Err(out))
}

// validateBaseURL normalizes the base URL path, "/" and empty mean no base
func validateBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[WARN] interrupt signal")
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
