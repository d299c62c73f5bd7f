package sbhttp

import (
	"encoding/json"
	"net/http"

	lhttp "github.com/splitpilot/splitpilot/pkg/http"
)

type errorBody struct {
	Error string `json:"error"`
}

// ReturnHttpError renders err, falling back to defaultErr (or a plain 500)
// when err wraps an unexpected internal failure.
func ReturnHttpError(w http.ResponseWriter, err, defaultErr *lhttp.HttpError) {
	if err.Err != nil {
		if defaultErr != nil {
			ReturnError(w, defaultErr.Code, defaultErr.Message, err.Err)
		} else {
			ReturnError(w, http.StatusInternalServerError, "Internal server error", err.Err)
		}
	} else {
		ReturnError(w, err.Code, err.Message, err)
	}
}

func ReturnError(w http.ResponseWriter, code int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorBody{Error: message})
}

func WriteJson(w http.ResponseWriter, code int, result interface{}) error {
	w.Header().Add("content-type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		w.Write([]byte("error serializing response"))
		return err
	}
	return nil
}
