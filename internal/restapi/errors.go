package restapi

import (
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/splitpilot/splitpilot/internal/experiments"
	sbhttp "github.com/splitpilot/splitpilot/pkg/serverbase/http"
)

// returnServiceError maps the domain error taxonomy onto transport codes.
// Messages are passed through verbatim, they are written to be actionable
// (allowed states, offending field). Anything untyped is a 500 and the
// underlying error stays in the logs.
func returnServiceError(w http.ResponseWriter, err error) {
	var validationErr *experiments.ValidationError
	var transitionErr *experiments.InvalidTransitionError
	var stateErr *experiments.InvalidStateError
	var notFoundErr *experiments.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		sbhttp.ReturnError(w, http.StatusBadRequest, validationErr.Message, err)
	case errors.As(err, &transitionErr):
		sbhttp.ReturnError(w, http.StatusBadRequest, transitionErr.Error(), err)
	case errors.As(err, &stateErr):
		sbhttp.ReturnError(w, http.StatusBadRequest, stateErr.Message, err)
	case errors.As(err, &notFoundErr):
		sbhttp.ReturnError(w, http.StatusNotFound, notFoundErr.Message, err)
	default:
		log.Printf("request failed: %+v", err)
		sbhttp.ReturnError(w, http.StatusInternalServerError, "Internal server error", err)
	}
}
