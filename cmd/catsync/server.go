package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/catsync/catsync/internal/api"
	"github.com/catsync/catsync/internal/config"
	"github.com/catsync/catsync/internal/engine"
	"github.com/catsync/catsync/internal/logstream"
	"github.com/catsync/catsync/internal/supervisor"
	"github.com/catsync/catsync/internal/taxonomy"
	"github.com/catsync/catsync/internal/translate"
	"github.com/catsync/catsync/internal/vendor"
	"github.com/catsync/catsync/model"
)

const (
	configFlag = "config"
	listenFlag = "listen"
	debugFlag  = "debug"
)

func init() {
	serverCmd.PersistentFlags().String(configFlag, "catsync.yaml", "Path to the service configuration file")
	serverCmd.PersistentFlags().String(listenFlag, "", "Local interface and port to listen on, overriding the configuration file")
	serverCmd.PersistentFlags().Bool(debugFlag, false, "Whether to output debug logs")
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the catsync server.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		debug, _ := command.Flags().GetBool(debugFlag)
		if debug {
			logger.SetLevel(logrus.DebugLevel)
		}

		configPath, _ := command.Flags().GetString(configFlag)
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		listen, _ := command.Flags().GetString(listenFlag)
		if listen == "" {
			listen = cfg.Listen
		}
		if listen == "" {
			return errors.New("the server command requires a listen address")
		}

		feed := logstream.NewFeed(logstream.DefaultFeedSize)
		logger.AddHook(logstream.NewHook(feed))

		sqlStore, err := newSQLStore(cfg.Database)
		if err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{
			"listen":   listen,
			"vendor":   cfg.Vendor.BaseURL,
			"driver":   cfg.Translator.Driver,
			"profiles": len(cfg.Profiles),
			"debug":    debug,
		}).Info("Starting catsync server")

		settings := cfg.Resolver()

		vendorClient := vendor.NewClient(cfg.Vendor.BaseURL, cfg.Vendor.Token, cfg.Vendor.RequestsPerSecond, logger)

		provider, err := translate.NewProvider(cfg.Translator)
		if err != nil {
			return errors.Wrap(err, "failed to build translation provider")
		}
		translator := translate.NewTranslator(provider, sqlStore, cfg.Translator.RequestsPerSecond, cfg.Defaults.RequireNonEmptyText, logger)

		resolver := taxonomy.NewResolver(sqlStore, knownTaxonomyNames(), logger)

		syncEngine := engine.New(sqlStore, vendorClient, sqlStore, translator, resolver, settings, logger)

		syncSupervisor := supervisor.NewSupervisor(
			sqlStore,
			syncEngine,
			time.Duration(cfg.SupervisorTickSeconds)*time.Second,
			logger,
		)
		syncSupervisor.Start()

		router := mux.NewRouter()
		api.Register(router,
			&api.Context{
				Store:    sqlStore,
				Logger:   logger,
				Logs:     feed,
				Settings: settings,
			})

		srv := &http.Server{
			Addr:           listen,
			Handler:        router,
			ReadTimeout:    180 * time.Second,
			WriteTimeout:   180 * time.Second,
			IdleTimeout:    time.Second * 180,
			MaxHeaderBytes: 1 << 20,
		}

		go func() {
			logger.WithField("addr", srv.Addr).Info("Listening")
			err := srv.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Failed to listen and serve")
			}
		}()

		c := make(chan os.Signal, 1)
		// We'll accept graceful shutdowns when quit via:
		//  - SIGINT (Ctrl+C)
		//  - SIGTERM (Kubernetes pod rolling termination)
		// SIGKILL and SIGQUIT will not be caught.
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		sig := <-c
		logger.WithField("shutdown-signal", sig.String()).Info("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

// knownTaxonomyNames maps the vendor identifiers whose meaning is known
// ahead of time onto friendly local names. Everything else gets a
// placeholder name from its numeric ID on first encounter.
func knownTaxonomyNames() map[model.TermKind]map[int64]string {
	return map[model.TermKind]map[int64]string{
		model.TermKindCategory: {
			1: "Uncategorized",
		},
	}
}
