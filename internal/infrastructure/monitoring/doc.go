/*
Package monitoring provides Prometheus metrics collection.

It tracks HTTP requests, tool invocations, session lifecycle events
(ROM loads by outcome, crashes, frames advanced, inputs recorded),
WebSocket connections, and uptime.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "press_button")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
