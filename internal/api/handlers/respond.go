package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/takumi-oka/market-log/internal/contracts"
)

// response is the common JSON envelope. "No data for this input" is
// informational (200 with no_data set), distinct from "a failure occurred".
type response struct {
	Data    interface{} `json:"data"`
	NoData  bool        `json:"no_data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a successful payload
func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response{Data: data})
}

// writeFetchError maps the fetch error taxonomy onto HTTP statuses.
// NoData stays a 200: a valid empty result is not a server failure.
func writeFetchError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	kind := contracts.KindOf(err)
	switch kind {
	case contracts.KindNoData:
		json.NewEncoder(w).Encode(response{
			Data:    []interface{}{},
			NoData:  true,
			Message: err.Error(),
		})
		return
	case contracts.KindRateLimited, contracts.KindDependencyUnavailable:
		w.WriteHeader(http.StatusServiceUnavailable)
	case contracts.KindAPIError, contracts.KindTransportError, contracts.KindUnrecognizedSchema:
		w.WriteHeader(http.StatusBadGateway)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	json.NewEncoder(w).Encode(errorResponse{
		Error:  "upstream fetch failed",
		Kind:   string(kind),
		Detail: err.Error(),
	})
}

// writeBadRequest rejects invalid caller input
func writeBadRequest(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errorResponse{Error: "bad request", Detail: detail})
}
