package handlers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"financeflow/internal/ledger"
	"financeflow/internal/models"

	"go.uber.org/zap"
)

const formDateLayout = "2006-01-02"

// CategoryShare is one slice of the expense breakdown.
type CategoryShare struct {
	Category models.Category
	Amount   models.Cents
	Percent  float64
}

// SeriesBar is one bar of the date/amount chart. Kind is a plain
// string so templates can compare it with eq.
type SeriesBar struct {
	Date    string
	Kind    string
	Amount  models.Cents
	Percent int
}

// HistoryRow is one line of the transaction table, newest first.
type HistoryRow struct {
	Date        string
	Description string
	Category    models.Category
	Kind        models.Kind
	Amount      models.Cents
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Username   string
	HasData    bool
	Income     models.Cents
	Expenses   models.Cents
	Balance    models.Cents
	Breakdown  []CategoryShare
	Series     []SeriesBar
	Rows       []HistoryRow
	Categories []models.Category
	Today      string
	FormError  string
}

// Dashboard renders metrics, charts, and history for the current user.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, "")
}

func (h *Handlers) renderDashboard(w http.ResponseWriter, r *http.Request, formError string) {
	user := UserFromContext(r)

	txs, err := h.store.ListTransactions(r.Context(), user.ID)
	if err != nil {
		h.log.Error("list transactions", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	vm := DashboardViewModel{
		Username:   user.Username,
		HasData:    len(txs) > 0,
		Income:     ledger.Total(txs, models.KindIncome),
		Expenses:   ledger.Total(txs, models.KindExpense),
		Balance:    ledger.Balance(txs),
		Breakdown:  expenseBreakdown(txs),
		Series:     seriesBars(txs),
		Rows:       historyRows(txs),
		Categories: models.Categories,
		Today:      time.Now().Format(formDateLayout),
		FormError:  formError,
	}

	h.render(w, "dashboard.html", vm)
}

// AddTransaction handles the "add record" form. Validation failures
// re-render the dashboard with the message next to the form; success
// redirects so the form comes back cleared.
func (h *Handlers) AddTransaction(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.renderDashboard(w, r, "Invalid form submission.")
		return
	}

	date, err := time.Parse(formDateLayout, r.FormValue("date"))
	if err != nil {
		h.renderDashboard(w, r, "Date is required.")
		return
	}
	amount, err := models.ParseCents(r.FormValue("amount"))
	if err != nil {
		h.renderDashboard(w, r, err.Error())
		return
	}

	_, err = h.store.AddTransaction(r.Context(), user.ID, date,
		r.FormValue("description"),
		models.Category(r.FormValue("category")),
		models.Kind(r.FormValue("kind")),
		amount,
	)
	if err != nil {
		var verr models.ValidationError
		if errors.As(err, &verr) {
			h.renderDashboard(w, r, verr.Error())
			return
		}
		h.log.Error("add transaction", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ExportCSV streams the user's full ledger as a CSV download.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)

	txs, err := h.store.ListTransactions(r.Context(), user.ID)
	if err != nil {
		h.log.Error("list transactions", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="finance_history.csv"`)
	if err := ledger.WriteCSV(w, txs); err != nil {
		h.log.Error("write csv", zap.Error(err))
	}
}

func expenseBreakdown(txs []models.Transaction) []CategoryShare {
	byCat := ledger.ByCategory(txs, models.KindExpense)
	var total models.Cents
	for _, amount := range byCat {
		total += amount
	}

	shares := make([]CategoryShare, 0, len(byCat))
	for cat, amount := range byCat {
		share := CategoryShare{Category: cat, Amount: amount}
		if total > 0 {
			share.Percent = float64(amount) / float64(total) * 100
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Amount > shares[j].Amount })
	return shares
}

func seriesBars(txs []models.Transaction) []SeriesBar {
	points := ledger.TimeSeries(txs)

	var max models.Cents
	for _, p := range points {
		if p.Amount > max {
			max = p.Amount
		}
	}

	bars := make([]SeriesBar, len(points))
	for i, p := range points {
		percent := 0
		if max > 0 {
			percent = int(p.Amount * 100 / max)
		}
		bars[i] = SeriesBar{
			Date:    p.Date.Format(formDateLayout),
			Kind:    string(p.Kind),
			Amount:  p.Amount,
			Percent: percent,
		}
	}
	return bars
}

func historyRows(txs []models.Transaction) []HistoryRow {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	rows := make([]HistoryRow, 0, len(sorted))
	for _, t := range sorted {
		rows = append(rows, HistoryRow{
			Date:        t.Date.Format(formDateLayout),
			Description: t.Description,
			Category:    t.Category,
			Kind:        t.Kind,
			Amount:      t.Amount,
		})
	}
	return rows
}
