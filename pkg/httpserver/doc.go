// Package httpserver runs an http.Handler until its context is cancelled and
// then drains in-flight requests within a shutdown timeout.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// LivenessHandler and ReadinessHandler serve JSON probe endpoints; readiness
// runs named dependency checks such as redis.Healthcheck or pg.Healthcheck.
package httpserver
