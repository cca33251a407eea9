package handlers

import "net/http"

// VersionHandler returns the build version. Only minimal information is exposed.
func VersionHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"version": version})
	}
}
