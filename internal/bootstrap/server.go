package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nasimair/flightops/api"
	"github.com/nasimair/flightops/config"
	"github.com/nasimair/flightops/internal/service/booking"
	"github.com/nasimair/flightops/internal/service/delay"
	"github.com/nasimair/flightops/internal/service/tracking"
	"github.com/nasimair/flightops/internal/service/trips"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	tripSvc trips.TripUseCase,
	bookingSvc booking.BookingUseCase,
	trackingSvc *tracking.TrackingService,
	delaySvc delay.DelayUseCase,
) error {
	router := newRouter(cfg, tripSvc, bookingSvc, trackingSvc, delaySvc)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(
	cfg *config.Config,
	tripSvc trips.TripUseCase,
	bookingSvc booking.BookingUseCase,
	trackingSvc *tracking.TrackingService,
	delaySvc delay.DelayUseCase,
) *gin.Engine {
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(cfg.HTTP.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	apiGroup := router.Group("/api")
	tripsGroup := apiGroup.Group("/trips")
	networkGroup := apiGroup.Group("/network")

	api.NewTripHandler(tripSvc).Register(tripsGroup)
	api.NewBookingHandler(bookingSvc).Register(apiGroup.Group("/bookings"))
	api.NewTrackingHandler(trackingSvc, cfg.Tracking.DefaultHub).Register(tripsGroup, networkGroup)
	api.NewDelayHandler(delaySvc).Register(tripsGroup)

	return router
}
