package handler

import (
	"context"
	"net/http"

	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/service"
)

type interestService interface {
	Run(ctx context.Context) (*service.InterestRunResult, error)
}

// InterestHandler exposes the batch entry point for the external
// scheduler; the schedule itself lives outside this service.
type InterestHandler struct {
	interest interestService
}

func NewInterestHandler(interest interestService) *InterestHandler {
	return &InterestHandler{interest: interest}
}

type interestFailureDTO struct {
	AccountNumber string `json:"account_number"`
	Error         string `json:"error"`
}

func (h *InterestHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.interest.Run(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("interest run failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	applied := make(map[string]string, len(result.Applied))
	for number, interest := range result.Applied {
		applied[number] = interest.StringFixed(2)
	}

	failures := make([]interestFailureDTO, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = interestFailureDTO{AccountNumber: f.AccountNumber, Error: f.Err.Error()}
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"applied":  applied,
		"failures": failures,
	})
}
