package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/account-ledger/internal/api/httpx"
	"github.com/baharkarakas/account-ledger/internal/apperr"
	"github.com/baharkarakas/account-ledger/internal/services"
)

type AccountHandler struct {
	Accounts *services.AccountService
}

func NewAccountHandler(s *services.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: s}
}

type createOwnerReq struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (h *AccountHandler) CreateOwner(w http.ResponseWriter, r *http.Request) {
	var req createOwnerReq
	if !bind(w, r, &req) {
		return
	}
	o, err := h.Accounts.RegisterOwner(r.Context(), req.Name)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, o)
}

type createAccountReq struct {
	UserID         int64 `json:"user_id" validate:"required,min=1"`
	InitialBalance int64 `json:"initial_balance" validate:"min=0"`
}

type createAccountResp struct {
	UserID        int64     `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	RegisteredAt  time.Time `json:"registered_at"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountReq
	if !bind(w, r, &req) {
		return
	}

	a, err := h.Accounts.CreateAccount(r.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createAccountResp{
		UserID:        a.OwnerID,
		AccountNumber: a.Number,
		RegisteredAt:  a.CreatedAt,
	})
}

type closeAccountReq struct {
	UserID        int64  `json:"user_id" validate:"required,min=1"`
	AccountNumber string `json:"account_number" validate:"required,min=9,max=10"`
}

type closeAccountResp struct {
	UserID        int64      `json:"user_id"`
	AccountNumber string     `json:"account_number"`
	ClosedAt      *time.Time `json:"closed_at"`
}

func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	var req closeAccountReq
	if !bind(w, r, &req) {
		return
	}

	a, err := h.Accounts.CloseAccount(r.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, closeAccountResp{
		UserID:        a.OwnerID,
		AccountNumber: a.Number,
		ClosedAt:      a.ClosedAt,
	})
}

type accountSummary struct {
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
	Status        string `json:"status"`
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || uid < 1 {
		httpx.WriteError(w, http.StatusBadRequest, string(apperr.InvalidRequest), "user_id required", nil)
		return
	}

	accounts, err := h.Accounts.ListAccounts(r.Context(), uid)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	out := make([]accountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountSummary{AccountNumber: a.Number, Balance: a.Balance, Status: string(a.Status)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httpx.WriteError(w, http.StatusBadRequest, string(apperr.InvalidRequest), "invalid account id", nil)
		return
	}
	a, err := h.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}
