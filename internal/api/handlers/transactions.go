package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/account-ledger/internal/api/httpx"
	"github.com/baharkarakas/account-ledger/internal/models"
	"github.com/baharkarakas/account-ledger/internal/services"
)

type TransactionHandler struct {
	Txns *services.TransactionService
	Log  *slog.Logger
}

func NewTransactionHandler(s *services.TransactionService, log *slog.Logger) *TransactionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionHandler{Txns: s, Log: log}
}

type useReq struct {
	UserID        int64  `json:"user_id" validate:"required,min=1"`
	AccountNumber string `json:"account_number" validate:"required,min=9,max=10"`
	Amount        int64  `json:"amount" validate:"gte=10,lte=1000000000"`
}

type cancelReq struct {
	TransactionID string `json:"transaction_id" validate:"required,max=64"`
	AccountNumber string `json:"account_number" validate:"required,min=9,max=10"`
	Amount        int64  `json:"amount" validate:"gte=10,lte=1000000000"`
}

type transactionResp struct {
	AccountNumber     string                   `json:"account_number"`
	TransactionKind   models.TransactionKind   `json:"transaction_type"`
	TransactionResult models.TransactionResult `json:"transaction_result"`
	TransactionID     string                   `json:"transaction_id"`
	Amount            int64                    `json:"amount"`
	TransactedAt      time.Time                `json:"transacted_at"`
}

func toResp(t models.Transaction) transactionResp {
	return transactionResp{
		AccountNumber:     t.AccountNumber,
		TransactionKind:   t.Kind,
		TransactionResult: t.Result,
		TransactionID:     t.TransactionID,
		Amount:            t.Amount,
		TransactedAt:      t.TransactedAt,
	}
}

func (h *TransactionHandler) Use(w http.ResponseWriter, r *http.Request) {
	var req useReq
	if !bind(w, r, &req) {
		return
	}

	t, err := h.Txns.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		// Only a validated attempt whose write failed leaves a FAILED record.
		if errors.Is(err, services.ErrPersist) {
			if _, ferr := h.Txns.RecordFailedUse(r.Context(), req.AccountNumber, req.Amount); ferr != nil {
				h.Log.Error("record failed use", "account_number", req.AccountNumber, "err", ferr)
			}
		}
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResp(t))
}

func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelReq
	if !bind(w, r, &req) {
		return
	}

	t, err := h.Txns.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		if errors.Is(err, services.ErrPersist) {
			if _, ferr := h.Txns.RecordFailedCancel(r.Context(), req.AccountNumber, req.Amount); ferr != nil {
				h.Log.Error("record failed cancel", "account_number", req.AccountNumber, "err", ferr)
			}
		}
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResp(t))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Txns.QueryTransaction(r.Context(), chi.URLParam(r, "transactionId"))
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResp(t))
}
