package restapi

import (
	"encoding/json"
	"net/http"

	zlog "github.com/rs/zerolog/log"
)

type Response struct {
	Result interface{}    `json:"result,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")

	if code < 600 { // nolint
		w.WriteHeader(code)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}

	writeResponse(w, &Response{
		Error: &ErrorResponse{
			Message: msg,
			Code:    code,
		},
	})
}

func writeResult(w http.ResponseWriter, result interface{}) {
	writeResultCode(w, http.StatusOK, result)
}

func writeResultCode(w http.ResponseWriter, code int, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	writeResponse(w, &Response{
		Result: result,
	})
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		zlog.Error().Err(err).Interface("response", resp).Msg("response encoding failed")
	}
}
