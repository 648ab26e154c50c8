package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
	"lifedash/internal/prices"
	"lifedash/internal/totals"
)

const maxConcurrentLookups = 4

// dated names the amount and date fields the aggregator reads per collection.
var dated = map[string]struct{ amount, date string }{
	docstore.Expenses:    {"amount", "occurred_on"},
	docstore.Payments:    {"amount", "occurred_on"},
	docstore.Investments: {"cost_basis", "bought_on"},
	docstore.Debts:       {"total", "opened_on"},
}

// FinanceService records expenses, payments, debts and investments.
type FinanceService struct {
	documents
	prices prices.Lookup
	debts  *keyedMutex
}

func NewFinanceService(store docstore.Store, lookup prices.Lookup, publisher Publisher) *FinanceService {
	if lookup == nil {
		lookup = prices.Unavailable{}
	}
	return &FinanceService{
		documents: documents{store: store, publisher: publisher},
		prices:    lookup,
		debts:     newKeyedMutex(),
	}
}

func (s *FinanceService) AddExpense(ctx context.Context, e core.Expense) (string, error) {
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return "", err
	}
	return s.create(ctx, docstore.Expenses, e)
}

// AddPayment saves the payment and, when it is linked to a debt, lowers the
// debt's remaining balance by the payment amount, never below zero. A
// payment naming an unknown debt is not saved.
func (s *FinanceService) AddPayment(ctx context.Context, p core.Payment) (string, error) {
	p.Description = strings.TrimSpace(p.Description)
	p.DebtID = strings.TrimSpace(p.DebtID)
	if err := p.Validate(); err != nil {
		return "", err
	}

	var debt Stored[core.Debt]
	if p.DebtID != "" {
		unlock := s.debts.lock(p.DebtID)
		defer unlock()
		var err error
		if debt, err = get[core.Debt](ctx, s.store, docstore.Debts, p.DebtID); err != nil {
			return "", err
		}
	}

	id, err := s.create(ctx, docstore.Payments, p)
	if err != nil {
		return "", err
	}
	if p.DebtID == "" {
		return id, nil
	}

	remaining := debt.Record.Remaining.Sub(p.Amount)
	if err := s.update(ctx, docstore.Debts, p.DebtID, docstore.Fields{"remaining": remaining.String()}); err != nil {
		return id, fmt.Errorf("payment %s saved but debt not updated: %w", id, err)
	}
	slog.InfoContext(ctx, "Debt balance decremented",
		"debt_id", p.DebtID,
		"payment_id", id,
		"remaining", remaining.String())
	return id, nil
}

// AddDebt saves a debt. A zero remaining balance means nothing has been
// repaid yet and is set to the total.
func (s *FinanceService) AddDebt(ctx context.Context, d core.Debt) (string, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Remaining.Cents == 0 {
		d.Remaining = d.Total
	}
	if err := d.Validate(); err != nil {
		return "", err
	}
	return s.create(ctx, docstore.Debts, d)
}

func (s *FinanceService) AddInvestment(ctx context.Context, inv core.Investment) (string, error) {
	inv.Symbol = strings.ToUpper(strings.TrimSpace(inv.Symbol))
	inv.Currency = strings.ToUpper(strings.TrimSpace(inv.Currency))
	if err := inv.Validate(); err != nil {
		return "", err
	}
	return s.create(ctx, docstore.Investments, inv)
}

func (s *FinanceService) ListExpenses(ctx context.Context) ([]Stored[core.Expense], []core.Notice) {
	return list[core.Expense](ctx, s.store, docstore.Expenses)
}

func (s *FinanceService) ListPayments(ctx context.Context) ([]Stored[core.Payment], []core.Notice) {
	return list[core.Payment](ctx, s.store, docstore.Payments)
}

func (s *FinanceService) ListDebts(ctx context.Context) ([]Stored[core.Debt], []core.Notice) {
	return list[core.Debt](ctx, s.store, docstore.Debts)
}

func (s *FinanceService) ListInvestments(ctx context.Context) ([]Stored[core.Investment], []core.Notice) {
	return list[core.Investment](ctx, s.store, docstore.Investments)
}

// Delete removes a record from one of the finance collections.
func (s *FinanceService) Delete(ctx context.Context, collection, id string) error {
	if _, ok := dated[collection]; !ok {
		return fmt.Errorf("%w: %q is not a finance collection", core.ErrValidation, collection)
	}
	return s.remove(ctx, collection, id)
}

// Totals aggregates a finance collection over the day, week and month of
// asOf. A store failure yields zero totals and a notice.
func (s *FinanceService) Totals(ctx context.Context, collection string, asOf time.Time) (totals.Totals, []core.Notice, error) {
	f, ok := dated[collection]
	if !ok {
		return totals.Totals{}, nil, fmt.Errorf("%w: no totals for collection %q", core.ErrValidation, collection)
	}
	docs, err := s.store.ListAll(ctx, collection)
	if err != nil {
		err = storeError("list "+collection, err)
		slog.WarnContext(ctx, "Totals unavailable", "collection", collection, "error", err)
		return totals.Totals{}, []core.Notice{core.NewNotice(collection, err)}, nil
	}
	return totals.ComputeTotals(totals.RecordsFromDocuments(docs, f.amount, f.date), asOf), nil, nil
}

// Position is one valued investment.
type Position struct {
	ID            string           `json:"id"`
	Symbol        string           `json:"symbol"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Currency      string           `json:"currency"`
	CostBasis     core.Money       `json:"cost_basis"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	PurchaseClose *decimal.Decimal `json:"purchase_close,omitempty"`
	Value         core.Money       `json:"value"`
	Gain          decimal.Decimal  `json:"gain"`
	AtCostBasis   bool             `json:"at_cost_basis"`
}

type Valuation struct {
	AsOf       core.Date       `json:"as_of"`
	Positions  []Position      `json:"positions"`
	TotalValue core.Money      `json:"total_value"`
	TotalCost  core.Money      `json:"total_cost"`
	Gain       decimal.Decimal `json:"gain"`
	Notices    []core.Notice   `json:"notices,omitempty"`
}

// Valuation prices every investment at its current quote. Positions whose
// price is unavailable are valued at cost basis with a notice. Totals add
// values across currencies as they are; mixing currencies only produces a
// notice.
func (s *FinanceService) Valuation(ctx context.Context, asOf time.Time) (Valuation, error) {
	items, notices := s.ListInvestments(ctx)
	out := Valuation{AsOf: core.DateOf(asOf), Positions: make([]Position, len(items)), Notices: notices}

	perPosition := make([][]core.Notice, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, item := range items {
		g.Go(func() error {
			out.Positions[i], perPosition[i] = s.value(gctx, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Valuation{}, err
	}

	currencies := map[string]bool{}
	var value, cost decimal.Decimal
	for i, p := range out.Positions {
		out.Notices = append(out.Notices, perPosition[i]...)
		currencies[p.Currency] = true
		value = value.Add(p.Value.Decimal())
		cost = cost.Add(p.CostBasis.Decimal())
	}
	out.TotalValue = core.MoneyFromDecimal(value)
	out.TotalCost = core.MoneyFromDecimal(cost)
	out.Gain = value.Sub(cost)

	if len(currencies) > 1 {
		names := make([]string, 0, len(currencies))
		for c := range currencies {
			names = append(names, c)
		}
		sort.Strings(names)
		out.Notices = append(out.Notices, core.Notice{
			Source:  "valuation",
			Message: "positions are held in " + strings.Join(names, ", ") + "; totals add them without conversion",
		})
	}
	return out, nil
}

func (s *FinanceService) value(ctx context.Context, item Stored[core.Investment]) (Position, []core.Notice) {
	inv := item.Record
	p := Position{
		ID:        item.ID,
		Symbol:    inv.Symbol,
		Quantity:  inv.Quantity,
		Currency:  inv.Currency,
		CostBasis: inv.CostBasis,
	}
	if p.Currency == "" {
		p.Currency = core.DefaultCurrency
	}

	var notices []core.Notice
	q, err := s.prices.CurrentPrice(ctx, inv.Symbol)
	if err != nil {
		slog.DebugContext(ctx, "Price unavailable, using cost basis", "symbol", inv.Symbol, "error", err)
		p.Value = inv.CostBasis
		p.AtCostBasis = true
		notices = append(notices, core.Notice{
			Source:  "prices",
			Message: fmt.Sprintf("%s valued at cost basis: %v", inv.Symbol, err),
		})
	} else {
		price := q.Price
		p.Price = &price
		p.Value = core.MoneyFromDecimal(inv.Quantity.Mul(price))
	}
	p.Gain = p.Value.Decimal().Sub(inv.CostBasis.Decimal())

	if !inv.BoughtOn.IsZero() {
		if hq, err := s.prices.HistoricalClose(ctx, inv.Symbol, inv.BoughtOn); err == nil {
			pc := hq.Price
			p.PurchaseClose = &pc
		}
	}
	return p, notices
}

// Dashboard is the landing page summary.
type Dashboard struct {
	AsOf            core.Date     `json:"as_of"`
	Expenses        totals.Totals `json:"expenses"`
	Payments        totals.Totals `json:"payments"`
	Investments     totals.Totals `json:"investments"`
	OutstandingDebt core.Money    `json:"outstanding_debt"`
	HabitCheckIns   int           `json:"habit_check_ins"`
	Notices         []core.Notice `json:"notices,omitempty"`
}

// Dashboard gathers every summary concurrently. Each part that fails is
// reported as zero with a notice.
func (s *FinanceService) Dashboard(ctx context.Context, asOf time.Time) (Dashboard, error) {
	out := Dashboard{AsOf: core.DateOf(asOf)}
	var mu sync.Mutex
	note := func(n []core.Notice) {
		mu.Lock()
		out.Notices = append(out.Notices, n...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for collection, into := range map[string]*totals.Totals{
		docstore.Expenses:    &out.Expenses,
		docstore.Payments:    &out.Payments,
		docstore.Investments: &out.Investments,
	} {
		g.Go(func() error {
			t, n, err := s.Totals(gctx, collection, asOf)
			if err != nil {
				return err
			}
			*into = t
			note(n)
			return nil
		})
	}
	g.Go(func() error {
		debts, n := s.ListDebts(gctx)
		var sum core.Money
		for _, d := range debts {
			sum = sum.Add(d.Record.Remaining)
		}
		out.OutstandingDebt = sum
		note(n)
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.ListAll(gctx, docstore.Habits)
		if err != nil {
			note([]core.Notice{core.NewNotice(docstore.Habits, storeError("list habits", err))})
			return nil
		}
		day := out.AsOf.String()
		for _, d := range docs {
			if v, _ := d.Fields["day"].(string); v == day {
				out.HabitCheckIns++
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	sort.SliceStable(out.Notices, func(i, j int) bool { return out.Notices[i].Source < out.Notices[j].Source })
	return out, nil
}
