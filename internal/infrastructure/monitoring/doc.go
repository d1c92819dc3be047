/*
Package monitoring provides metrics collection for the shell.

# Overview

Every governance decision the shell makes is counted: navigation outcomes,
system browser hand-offs, permission verdicts, load failures and reloads,
and where the user agent came from. Metrics live on a private registry
which the diagnostics server exposes.

# Usage

	metrics := monitoring.NewMetrics()
	go metrics.Run(ctx)

	metrics.RecordNavigation("redirect_external")
	metrics.RecordPermission("camera", "allow")

	timer := monitoring.NewTimer()
	// ... resolve the user agent ...
	metrics.RecordUserAgent("remote", timer.Elapsed())

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
*/
package monitoring
