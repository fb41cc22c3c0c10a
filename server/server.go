package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Daskott/agenda/server/auth/key"
	"github.com/Daskott/agenda/server/backup"
	"github.com/Daskott/agenda/server/contactbook"
	"github.com/Daskott/agenda/server/gstorage"
	"github.com/Daskott/agenda/server/logger"
	"github.com/Daskott/agenda/server/metrics"
	"github.com/Daskott/agenda/server/models"
	"github.com/Daskott/agenda/server/s3storage"
	"github.com/Daskott/agenda/server/session"
	"github.com/Daskott/agenda/server/work"
	"github.com/Daskott/agenda/shared"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var logg = logger.NewLogger()

// Server serves the HTML pages & JSON API of the agenda
type Server struct {
	router   *mux.Router
	service  *contactbook.Service
	sessions *session.Manager
	keyPair  *key.KeyPair
	metrics  *metrics.Metrics
	tokenTTL time.Duration
	logg     *zap.SugaredLogger
}

type Options struct {
	Service  *contactbook.Service
	Sessions *session.Manager
	KeyPair  *key.KeyPair
	TokenTTL time.Duration
	Logger   *zap.SugaredLogger
}

func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil || opts.Sessions == nil || opts.KeyPair == nil {
		return nil, fmt.Errorf("service, sessions & key pair are required")
	}

	if opts.TokenTTL <= 0 {
		opts.TokenTTL = shared.DEFAULT_TOKEN_TTL_MINUTES * time.Minute
	}

	if opts.Logger == nil {
		opts.Logger = logg
	}

	s := &Server{
		router:   mux.NewRouter(),
		service:  opts.Service,
		sessions: opts.Sessions,
		keyPair:  opts.KeyPair,
		metrics:  metrics.New(),
		tokenTTL: opts.TokenTTL,
		logg:     opts.Logger,
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start loads 'config', opens the db, starts the worker pool & serves
// the agenda until SIGINT/SIGTERM.
func Start(config *viper.Viper, devMode bool) {
	serverConfig, err := shared.LoadServerConfig(config)
	fatalOnError(err)

	configDir := configDirectory(devMode, serverConfig.Agenda.DataDir)
	appLogger := logger.New(logger.Options{
		File:       serverConfig.Log.File,
		MaxSizeMB:  serverConfig.Log.MaxSizeMB,
		MaxBackups: serverConfig.Log.MaxBackups,
		MaxAgeDays: serverConfig.Log.MaxAgeDays,
	})
	logg = appLogger

	db, err := models.Open(serverConfig.Sqlite.PassPhrase, configDir, appLogger)
	fatalOnError(err)

	service, err := contactbook.NewService(models.NewUserRepository(db), models.NewContactRepository(db))
	fatalOnError(err)

	sessions, err := session.NewManager(filepath.Join(configDir, "sessions"), []byte(serverConfig.Agenda.SessionKey))
	fatalOnError(err)

	keyPair, err := key.NewKeyPairFromRSAPrivateKeyPem(serverConfig.Agenda.PrivateKeyPem)
	fatalOnError(err)

	agendaServer, err := NewServer(Options{
		Service:  service,
		Sessions: sessions,
		KeyPair:  keyPair,
		TokenTTL: time.Duration(serverConfig.Agenda.TokenTTLMinutes) * time.Minute,
		Logger:   appLogger,
	})
	fatalOnError(err)

	workerPool, err := work.NewWorkerAdapter(models.NewJobStore(db), serverConfig.Agenda.Cron.TimeZone, appLogger)
	fatalOnError(err)

	if serverConfig.Backup.Enabled {
		uploader, err := newUploader(context.Background(), serverConfig)
		fatalOnError(err)
		if closer, ok := uploader.(io.Closer); ok {
			defer closer.Close()
		}

		dbBackup := backup.New(db, serverConfig.Sqlite.PassPhrase, uploader,
			serverConfig.Backup.Bucket, serverConfig.Backup.Prefix, appLogger)
		fatalOnError(registerJobHandlers(workerPool, dbBackup))
		fatalOnError(enqueueJobs(workerPool, serverConfig.Backup.Schedule))
	}

	workerPool.Start()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%v", serverConfig.Agenda.Listener.Port),
		Handler:           agendaServer,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go serve(httpServer)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if serverConfig.Backup.Enabled {
		if err := dequeueJobs(workerPool); err != nil {
			logg.Errorf("unable to remove periodic jobs: %v", err)
		}
	}

	cleanup(workerPool, httpServer, db)
}

func newUploader(ctx context.Context, serverConfig *shared.ServerConfig) (backup.Uploader, error) {
	switch serverConfig.Backup.Provider {
	case shared.GCS_BACKUP_PROVIDER:
		return gstorage.NewGStorage(ctx, serverConfig.Google.ApplicationCredentials)
	case shared.S3_BACKUP_PROVIDER:
		return s3storage.NewS3Storage(ctx, serverConfig.AWS)
	default:
		return nil, fmt.Errorf("unsupported backup provider %q", serverConfig.Backup.Provider)
	}
}

func serve(server *http.Server) {
	logg.Infof("Agenda server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(workerPool *work.WorkerPoolAdapter, server *http.Server, db *gorm.DB) {
	// Stop all jobs before the http server & db go away
	workerPool.Stop()

	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Errorf("Agenda server shutdown failed:%+s", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logg.Infof("Agenda server stopped properly")
	logg.Sync()
}

// configDirectory retrieves the directory to store agenda data, 'dataDir' when set.
// Or logs an error message and then calls os.Exit if it's unable to.
func configDirectory(devMode bool, dataDir string) string {
	if dataDir != "" {
		fatalOnError(os.MkdirAll(dataDir, 0700))
		return dataDir
	}

	// Use 'agenda' folder in home directory for prod
	configFolderName := "agenda"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = os.MkdirAll(configDir, 0700)
	fatalOnError(err)

	return configDir
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
