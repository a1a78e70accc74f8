package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"runtime/debug"
)

type buildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func newBuildInfo(version, gitCommit, buildDate string) buildInfo {
	info := buildInfo{
		Service:   "campusconnect",
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	}

	// go build records vcs settings when ldflags were not supplied.
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" || info.GitCommit == "unknown" {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if info.BuildDate == "" || info.BuildDate == "unknown" {
					info.BuildDate = setting.Value
				}
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

// VersionHandler serves build metadata for GET /version.
func VersionHandler(version, gitCommit, buildDate string) http.Handler {
	info := newBuildInfo(version, gitCommit, buildDate)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(info)
	})
}
