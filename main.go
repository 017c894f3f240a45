package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/kv"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/orders"
)

// app is the wired storefront.
type app struct {
	srv *server
	hub *notify.Hub
}

// newApp wires the repositories and services on top of backend.
func newApp(cfg *config, backend kv.Backend, logBknd *logBackend, stats *metrics.Stats) (*app, error) {
	log := logBknd.logger(subsysMain)

	delays, err := cfg.authDelays()
	if err != nil {
		return nil, err
	}
	checkoutDelay, err := cfg.checkoutDelay()
	if err != nil {
		return nil, err
	}

	store := kv.New(backend, logBknd.logger(subsysStore), kv.WithErrorHook(stats.StoreFailure))

	var catalogOpts []catalog.Option
	if cfg.SeedFile != "" {
		seed, err := catalog.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		catalogOpts = append(catalogOpts, catalog.WithSeed(seed))
	}
	products := catalog.NewRepository(store, logBknd.logger(subsysCatalog), catalogOpts...)
	products.Initialize()

	var orderOpts []orders.Option
	if cfg.OrderIDs == orderIDsUUID {
		orderOpts = append(orderOpts, orders.WithIDGenerator(orders.UUIDIDs))
	}
	orderRepo := orders.NewRepository(store, logBknd.logger(subsysOrders), orderOpts...)

	hub := notify.NewHub(logBknd.logger(subsysNotify))
	sink := notify.Multi{notify.LogSink{Log: logBknd.logger(subsysNotify)}, hub}

	c := cart.New(store, sink, logBknd.logger(subsysCart), cart.WithEditHook(stats.CartMutation))

	var uploader media.Uploader = media.Placeholder{}
	if cfg.CloudinaryURL != "" {
		cld, err := media.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder, logBknd.logger(subsysMedia))
		if err != nil {
			return nil, err
		}
		uploader = cld
	} else if !cfg.DevMode {
		log.Warnf("CLOUDINARY_URL is not set; uploaded images are discarded")
	}

	srv := &server{
		log:      logBknd.logger(subsysHTTP),
		products: products,
		orders:   orderRepo,
		cart:     c,
		auth:     auth.NewService(store, logBknd.logger(subsysAuth), auth.WithDelays(delays)),
		checkout: checkout.NewService(c, orderRepo, sink, logBknd.logger(subsysCheckout), checkoutDelay),
		media:    uploader,
		sink:     sink,
		hub:      hub,
		stats:    stats,
		forms:    newFormDecoder(),
	}
	return &app{srv: srv, hub: hub}, nil
}

func run(ctx context.Context, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logBknd, err := newLogBackend(cfg.LogFile, cfg.DebugLevel, os.Stdout)
	if err != nil {
		return err
	}
	defer logBknd.Close()
	log := logBknd.logger(subsysMain)

	backend, closeBackend, err := openBackend(cfg, logBknd)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			log.Errorf("Unable to close store: %v", err)
		}
	}()

	a, err := newApp(cfg, backend, logBknd, metrics.New())
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           a.srv.routes(cfg.StaticDir, cfg.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Server listening on %s", cfg.Listen)
		err := httpSrv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// Shut down once the context is done.
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("Shutting down")
		a.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
