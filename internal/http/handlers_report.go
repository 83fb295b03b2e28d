package http

import (
	"net/http"

	"schoolaccounts/internal/core"
	"schoolaccounts/internal/services"
)

// Upper bounds for query-supplied report sizes.
const (
	maxChartMonths   = 24
	maxTopCategories = 20
	maxRecentLimit   = 50
)

// datedSummary is a summary labelled with the day or month it covers.
type datedSummary struct {
	Date core.Date `json:"date"`
	core.Summary
}

type balanceBody struct {
	Balance core.Money `json:"balance"`
	AsOf    core.Date  `json:"asOf"`
}

// reportDate reads ?date=, defaulting to today in the school's time zone.
func (s *Server) reportDate(r *http.Request, key string) (core.Date, error) {
	return ParseDateQuery(r.URL.Query(), key, s.svc.Reports.Today())
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := s.reportDate(r, "date")
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	sum, err := s.svc.Reports.DailySummary(r.Context(), date, CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(datedSummary{Date: date, Summary: sum}).Write(w)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	date, err := s.reportDate(r, "date")
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	sum, err := s.svc.Reports.MonthlySummary(r.Context(), date, CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(datedSummary{Date: date.StartOfMonth(), Summary: sum}).Write(w)
}

func (s *Server) handleAllTimeTotals(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Reports.AllTimeTotals(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(sum).Write(w)
}

// handleBalance returns the running balance, or the balance at the end of
// ?asOf= when given.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())
	asOf, err := ParseDateQuery(r.URL.Query(), "asOf", core.Date{})
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	var bal core.Money
	if asOf.IsZero() {
		asOf = s.svc.Reports.Today()
		bal, err = s.svc.Reports.RunningBalance(r.Context(), caller)
	} else {
		bal, err = s.svc.Reports.BalanceAsOf(r.Context(), asOf, caller)
	}
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(balanceBody{Balance: bal, AsOf: asOf}).Write(w)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	n, err := ParseIntQuery(r.URL.Query(), "months", services.ReportChartMonths)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	points, err := s.svc.Reports.MonthlyChart(r.Context(), boundedInt(n, services.ReportChartMonths, maxChartMonths), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(points).Write(w)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	date, err := s.reportDate(r, "date")
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	totals, err := s.svc.Reports.CategoryBreakdown(r.Context(), date, CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(totals).Write(w)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	n, err := ParseIntQuery(r.URL.Query(), "limit", services.ReportTopCategories)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	totals, err := s.svc.Reports.TopCategories(r.Context(), boundedInt(n, services.ReportTopCategories, maxTopCategories), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(totals).Write(w)
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	n, err := ParseIntQuery(r.URL.Query(), "limit", services.DefaultRecentLimit)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	items, err := s.svc.Reports.RecentActivity(r.Context(), boundedInt(n, services.DefaultRecentLimit, maxRecentLimit), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(items).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Reports.Dashboard(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Reports.Report(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}
