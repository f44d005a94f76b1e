package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/freicoin/freicoind/infrastructure/config"
	"github.com/freicoin/freicoind/infrastructure/db/database/ldb"
	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/freicoin/freicoind/infrastructure/os/signal"
	"github.com/freicoin/freicoind/util/panics"
	"github.com/freicoin/freicoind/util/profiling"
	"github.com/freicoin/freicoind/version"
	"github.com/pkg/errors"
)

const databaseDirectoryName = "chainstate"

type freicoindApp struct {
	cfg *config.Config
}

// StartApp starts the freicoind app, and blocks until it finishes running
func StartApp() error {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &freicoindApp{cfg: cfg}
	return app.main()
}

func (app *freicoindApp) main() error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the import.
	interrupt := signal.InterruptListener()

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	db, err := OpenDatabase(app.cfg.DataDir, app.cfg.DbCacheMiB)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := db.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	componentManager, err := NewComponentManager(app.cfg, db)
	if err != nil {
		log.Errorf("Unable to start freicoind: %+v", err)
		return err
	}

	defer log.Info("Shutdown complete")

	componentManager.Start()
	defer componentManager.Stop()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the
	// import.
	<-interrupt
	return nil
}

// OpenDatabase opens the chain state database of the network data directory
// dataDir, creating it when it does not exist.
func OpenDatabase(dataDir string, cacheSizeMiB int) (*ldb.LevelDB, error) {
	return openDB(filepath.Join(dataDir, databaseDirectoryName), cacheSizeMiB)
}

// openDB opens the database at dbPath, creating it and its version file
// when they do not exist.
func openDB(dbPath string, cacheSizeMiB int) (*ldb.LevelDB, error) {
	err := os.MkdirAll(dbPath, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	versionFileExists, err := checkDatabaseVersion(dbPath)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading database from '%s'", dbPath)
	db, err := ldb.NewLevelDB(dbPath, cacheSizeMiB)
	if err != nil {
		return nil, err
	}

	if !versionFileExists {
		err = createDatabaseVersionFile(dbPath)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
