package handler

import (
	"codegen-relay/pkg/logx"
	"codegen-relay/pkg/types"
	"encoding/json"
	"net/http"
)

func codeBody(code string) types.GenerateResponse {
	return types.GenerateResponse{Code: code}
}

func errorBody(msg string, upstreamStatus int) types.ErrorResponse {
	return types.ErrorResponse{Error: msg, UpstreamStatus: upstreamStatus}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		logx.Log.Error().Err(err).Msg("encode response error")
	}
}
