package http

import (
	"net/http"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
	applog "lifedash/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	e.Description = sanitizeInput(e.Description)
	e.Category = sanitizeInput(e.Category)
	e.OccurredOn = s.dateOrToday(e.OccurredOn)

	id, err := s.svc.Finance.AddExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.created(w, r, applog.ComponentFinance, docstore.Expenses, id,
		applog.FieldAmountCents, e.Amount.Cents,
		"category", e.Category)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var p core.Payment
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.Description = sanitizeInput(p.Description)
	p.DebtID = sanitizeInput(p.DebtID)
	p.OccurredOn = s.dateOrToday(p.OccurredOn)

	id, err := s.svc.Finance.AddPayment(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.created(w, r, applog.ComponentFinance, docstore.Payments, id,
		applog.FieldAmountCents, p.Amount.Cents,
		"debt_id", p.DebtID)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var d core.Debt
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	d.Name = sanitizeInput(d.Name)
	d.Creditor = sanitizeInput(d.Creditor)
	d.OpenedOn = s.dateOrToday(d.OpenedOn)

	id, err := s.svc.Finance.AddDebt(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.created(w, r, applog.ComponentFinance, docstore.Debts, id,
		applog.FieldAmountCents, d.Total.Cents)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := decodeJSON(w, r, &inv); err != nil {
		writeError(w, r, err)
		return
	}
	inv.Symbol = sanitizeInput(inv.Symbol)
	inv.Currency = sanitizeInput(inv.Currency)
	inv.BoughtOn = s.dateOrToday(inv.BoughtOn)

	id, err := s.svc.Finance.AddInvestment(r.Context(), inv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.created(w, r, applog.ComponentFinance, docstore.Investments, id,
		applog.FieldSymbol, inv.Symbol)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, notices := s.svc.Finance.ListExpenses(r.Context())
	writeData(w, http.StatusOK, items, notices)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	items, notices := s.svc.Finance.ListPayments(r.Context())
	writeData(w, http.StatusOK, items, notices)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	items, notices := s.svc.Finance.ListDebts(r.Context())
	writeData(w, http.StatusOK, items, notices)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	items, notices := s.svc.Finance.ListInvestments(r.Context())
	writeData(w, http.StatusOK, items, notices)
}

func (s *Server) handleDeleteFinance(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := urlID(r)
		if err := s.svc.Finance.Delete(r.Context(), collection, id); err != nil {
			writeError(w, r, err)
			return
		}
		s.log.InfoContext(r.Context(), "Document deleted",
			applog.FieldCollection, collection,
			applog.FieldDocumentID, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleTotals(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := s.asOf(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		t, notices, err := s.svc.Finance.Totals(r.Context(), collection, asOf)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, t, notices)
	}
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.svc.Finance.Valuation(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notices := v.Notices
	v.Notices = nil
	writeData(w, http.StatusOK, v, notices)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Finance.Dashboard(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notices := d.Notices
	d.Notices = nil
	writeData(w, http.StatusOK, d, notices)
}
