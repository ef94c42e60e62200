package server

import (
	"errors"
	"net/http"

	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/freelancer"
	"github.com/web3guy0/autobid/internal/projects"
	"github.com/web3guy0/autobid/internal/sdlc"
)

// ErrBadRequest marks malformed request input
var ErrBadRequest = errors.New("bad request")

// HTTPStatus returns the status code for an error
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, freelancer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, projects.ErrInvalidStatus),
		errors.Is(err, projects.ErrInvalidHours),
		errors.Is(err, sdlc.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, projects.ErrNoAPI):
		return http.StatusServiceUnavailable
	case errors.Is(err, freelancer.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, freelancer.ErrInvalidToken):
		return http.StatusBadGateway
	}
	var apiErr *freelancer.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
