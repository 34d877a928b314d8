package observability

import (
	"os"
	"strings"

	"github.com/grafana/pyroscope-go"

	"transcription-service/pkg/logger"
)

var profiler *pyroscope.Profiler

// StartProfiling starts continuous profiling when PYROSCOPE_SERVER_ADDRESS is
// set. It runs before configuration is loaded, so it only reads the
// environment.
func StartProfiling(appName string) {
	addr := strings.TrimSpace(os.Getenv("PYROSCOPE_SERVER_ADDRESS"))
	if addr == "" {
		return
	}
	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   addr,
		Tags:            map[string]string{"hostname": hostname()},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("pyroscope start failed address=%s error=%v", addr, err)
		return
	}
	profiler = p
	logger.Infof("pyroscope profiling started app=%s address=%s", appName, addr)
}

// StopProfiling flushes and stops the profiler if it was started.
func StopProfiling() {
	if profiler == nil {
		return
	}
	if err := profiler.Stop(); err != nil {
		logger.Warnf("pyroscope stop failed error=%v", err)
	}
	profiler = nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
