package profiling

import (
	"net"
	"net/http"

	// Required for profiling
	_ "net/http/pprof"

	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/freicoin/freicoind/util/panics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Start starts the profiling server. Besides pprof it serves the prometheus
// collectors under /metrics.
func Start(port string, log *logger.Logger) {
	spawn := panics.GoroutineWrapperFunc(log)
	spawn("profiling.Start", func() {
		listenAddr := net.JoinHostPort("", port)
		log.Infof("Profile server listening on %s", listenAddr)
		profileRedirect := http.RedirectHandler("/debug/pprof", http.StatusSeeOther)
		http.Handle("/", profileRedirect)
		http.Handle("/metrics", promhttp.Handler())
		log.Error(http.ListenAndServe(listenAddr, nil))
	})
}
