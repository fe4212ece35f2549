// Package server provides a production-ready HTTP server with graceful
// shutdown, sane timeout defaults and optional TLS.
//
// Basic usage:
//
//	srv := server.New(":8080", server.WithLogger(log))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Start(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
//		log.Error("server failed", "error", err)
//	}
//	_ = srv.Stop()
//
// For coordinated shutdown of several components, Run returns an
// errgroup-compatible closure:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, r))
//
// Configuration can come from the environment via Config and
// NewFromConfig, typically loaded with the config package.
package server
