package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HelioWoi/liveplan3/pkg/csv"
	"github.com/HelioWoi/liveplan3/pkg/goals"
	"github.com/HelioWoi/liveplan3/pkg/importer"
	"github.com/HelioWoi/liveplan3/pkg/ledger"
	"github.com/HelioWoi/liveplan3/pkg/models"
	"github.com/HelioWoi/liveplan3/pkg/remote"
	"github.com/HelioWoi/liveplan3/pkg/weekly"
)

// ---------------- transactions ----------------

type transactionRequest struct {
	Origin      string  `json:"origin"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
}

func (req transactionRequest) draft() (models.TransactionDraft, error) {
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return models.TransactionDraft{}, err
	}
	txType, err := models.ParseTxType(req.Type)
	if err != nil {
		return models.TransactionDraft{}, err
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return models.TransactionDraft{}, fmt.Errorf("invalid date %q", req.Date)
	}
	return models.TransactionDraft{
		Origin:      req.Origin,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    category,
		Type:        txType,
		Date:        date,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions := s.ledger.List(r.Context())
	_ = s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"transactions": transactions,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	draft, err := req.draft()
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	tx, result, err := s.ledger.Create(r.Context(), draft)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to create transaction", err)
		return
	}
	_ = s.writeJSON(w, http.StatusCreated, map[string]any{
		"status":      "success",
		"transaction": tx,
		"tier":        result.String(),
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch models.TransactionPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	tx, err := s.ledger.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.respondStoreError(w, r, "failed to update transaction", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "transaction": tx})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondStoreError(w, r, "failed to delete transaction", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	tx, changed, err := s.ledger.MarkBillPaid(r.Context(), r.PathValue("id"), time.Now())
	if err != nil {
		s.respondStoreError(w, r, "failed to mark transaction paid", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"transaction": tx,
		"changed":     changed,
	})
}

// ---------------- import / export ----------------

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("spreadsheet")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "spreadsheet file required", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to read file", err)
		return
	}

	drafts, err := s.importer.ProcessBytes(data, header.Filename)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, importer.ErrMalformedRow) {
			status = http.StatusUnprocessableEntity
		}
		s.respondError(w, r, status, "failed to parse spreadsheet", err)
		return
	}

	if r.FormValue("clear") == "true" {
		if err := s.ledger.Clear(r.Context()); err != nil {
			s.respondError(w, r, http.StatusBadGateway, "failed to clear ledger", err)
			return
		}
	}

	created, err := s.ledger.BulkCreate(r.Context(), drafts)
	resp := map[string]any{
		"status":  "success",
		"file":    header.Filename,
		"created": len(created),
	}
	if err != nil {
		// Partial success: report what failed, keep what landed.
		resp["status"] = "partial"
		resp["errors"] = err.Error()
	}
	_ = s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	transactions := s.ledger.List(r.Context())
	filter := exportFilter(r)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if _, err := w.Write(csv.Create(transactions, filter)); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

func exportFilter(r *http.Request) csv.FilterFunc {
	category := r.URL.Query().Get("category")
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	return func(tx models.Transaction) bool {
		if category != "" && string(tx.Category) != category {
			return false
		}
		if start != "" {
			if d, err := time.Parse("2006-01-02", start); err == nil && tx.Date.Before(d) {
				return false
			}
		}
		if end != "" {
			if d, err := time.Parse("2006-01-02", end); err == nil && tx.Date.After(d) {
				return false
			}
		}
		return true
	}
}

// ---------------- weekly budget ----------------

type entryRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Week        string  `json:"week"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Repeat      string  `json:"repeat,omitempty"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	_ = s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"entries": s.weekly.Entries(),
	})
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	week, err := models.ParseWeek(req.Week)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if _, err := models.ParseMonth(req.Month); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	entry := models.WeeklyBudgetEntry{
		Source:      models.SourceUser,
		Week:        week,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    category,
		Month:       req.Month,
		Year:        req.Year,
	}

	if req.Repeat != "" && weekly.RepeatPolicy(req.Repeat) != weekly.RepeatNone {
		count, err := s.weekly.AddRecurring(entry, weekly.RepeatPolicy(req.Repeat))
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "invalid repeat policy", err)
			return
		}
		_ = s.writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "inserted": count})
		return
	}

	stored, inserted := s.weekly.AddEntry(entry)
	_ = s.writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "success",
		"entry":    stored,
		"inserted": inserted,
	})
}

type entryPatchRequest struct {
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Week        *string  `json:"week,omitempty"`
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	patch := models.EntryPatch{Description: req.Description, Amount: req.Amount}
	if req.Week != nil {
		week, err := models.ParseWeek(*req.Week)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}
		patch.Week = &week
	}
	entry, ok := s.weekly.UpdateEntry(r.PathValue("id"), patch)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "entry not found", nil)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "entry": entry})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if !s.weekly.DeleteEntry(r.PathValue("id")) {
		s.respondError(w, r, http.StatusNotFound, "entry not found", nil)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleMoveEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Week string `json:"week"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	week, err := models.ParseWeek(req.Week)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	entry, ok := s.weekly.MoveEntryToWeek(r.PathValue("id"), week)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "entry not found", nil)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "entry": entry})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	report := s.bridge.Reconcile(r.Context())
	_ = s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "report": report})
}

func (s *Server) handleSyncPending(w http.ResponseWriter, r *http.Request) {
	pushed, err := s.ledger.SyncPending(r.Context())
	if err != nil {
		s.respondStoreError(w, r, "failed to sync pending records", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "pushed": pushed})
}

// ---------------- goals ----------------

type goalRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	TargetAmount float64 `json:"target_amount"`
	TargetDate   string  `json:"target_date"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	all, err := s.goals.List(r.Context())
	if err != nil {
		s.respondStoreError(w, r, "failed to list goals", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "goals": all})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid target_date", err)
		return
	}
	goal, err := s.goals.Create(r.Context(), models.Goal{
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		TargetDate:   targetDate,
	})
	if err != nil {
		s.respondStoreError(w, r, "failed to create goal", err)
		return
	}
	_ = s.writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "goal": goal})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondStoreError(w, r, "failed to delete goal", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	goal, err := s.goals.Contribute(r.Context(), r.PathValue("id"), req.Amount)
	if err != nil {
		if errors.Is(err, goals.ErrInvalidContribution) {
			s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}
		s.respondStoreError(w, r, "failed to contribute", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "goal": goal})
}

// ---------------- opening balance ----------------

func (s *Server) handleGetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	_ = s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"amount": s.ledger.Local().OpeningBalance(),
	})
}

func (s *Server) handleSetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := s.ledger.Local().SetOpeningBalance(req.Amount); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to persist opening balance", err)
		return
	}
	_ = s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ---------------- shared ----------------

// respondStoreError maps store error taxonomy onto HTTP statuses.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, remote.ErrNotAuthenticated):
		s.respondError(w, r, http.StatusUnauthorized, "not authenticated", err)
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, goals.ErrNotFound):
		s.respondError(w, r, http.StatusNotFound, message, err)
	case errors.Is(err, remote.ErrWriteFailed):
		s.respondError(w, r, http.StatusBadGateway, message, err)
	default:
		s.respondError(w, r, http.StatusInternalServerError, message, err)
	}
}
