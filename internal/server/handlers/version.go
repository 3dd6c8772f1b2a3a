package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo holds build metadata injected from main.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// VersionHandler answers the version endpoint for the given build info.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	info.GoVersion = runtime.Version()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}
}
