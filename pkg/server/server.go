// Package server ties the database, stores and router together and
// runs the HTTP listener.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	DB            *bun.DB
	Handler       http.Handler
	ListenAddress string
}

// ListenAndServe serves until ctx is canceled, then drains in-flight
// requests before closing the database.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.ListenAddress,
		Handler: s.Handler,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logrus.Infof("listening on %s", s.ListenAddress)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serving http")
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down http server")
	})

	err := eg.Wait()
	if closeErr := s.DB.Close(); closeErr != nil && err == nil {
		err = errors.Wrap(closeErr, "closing database")
	}
	return err
}
