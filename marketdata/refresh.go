package marketdata

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/store"
)

const tableCompanies = "companies"

// CapSource returns a market capitalization in billions for a ticker.
// *Client satisfies it.
type CapSource interface {
	MarketCap(ctx context.Context, ticker string) (float64, error)
}

// Refresher writes provider market caps onto stored companies. It needs
// the privileged client: the anonymous role cannot update companies.
type Refresher struct {
	source CapSource
	writer store.Client
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewRefresher builds a Refresher.
func NewRefresher(source CapSource, privileged store.Client, log *zap.SugaredLogger) *Refresher {
	return &Refresher{source: source, writer: privileged, now: time.Now, logger: logger.OrNop(log)}
}

// Outcome is the result for one company.
type Outcome struct {
	CompanyID         string   `json:"companyId"`
	Ticker            string   `json:"ticker"`
	MarketCapBillions *float64 `json:"marketCapBillions,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// Report summarizes a refresh run.
type Report struct {
	Updated  int       `json:"updated"`
	Failed   int       `json:"failed"`
	Outcomes []Outcome `json:"outcomes"`
}

// Refresh updates every company with a ticker, or only those whose ticker
// is in tickers when it is non-empty. A failure for one company is recorded
// in the report and does not stop the run; storage failures and context
// cancellation do.
func (r *Refresher) Refresh(ctx context.Context, tickers ...string) (Report, error) {
	var report Report

	q := r.writer.From(tableCompanies).Select("id", "ticker").NotNull("ticker").Neq("ticker", "")
	if len(tickers) > 0 {
		upper := make([]string, 0, len(tickers))
		for _, t := range tickers {
			upper = append(upper, strings.ToUpper(strings.TrimSpace(t)))
		}
		q = q.In("ticker", upper)
	}
	res, err := q.Order("ticker", true, false).Execute(ctx)
	if err != nil {
		return report, err
	}

	companies := make([]entity.Company, 0, len(res.Rows))
	for _, row := range res.Rows {
		companies = append(companies, entity.CompanyFromRow(row))
	}

	for _, c := range companies {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out := Outcome{CompanyID: c.ID, Ticker: c.Ticker}

		capB, err := r.source.MarketCap(ctx, c.Ticker)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			r.logger.Warnw("Market cap lookup failed",
				logger.FieldTicker, c.Ticker,
				logger.FieldErrorCategory, errors.CategoryOf(err),
				logger.FieldError, err)
			out.Error = err.Error()
			report.Failed++
			report.Outcomes = append(report.Outcomes, out)
			continue
		}

		n, err := r.writer.From(tableCompanies).Eq("id", c.ID).Update(ctx, store.Row{
			"market_cap": capB,
			"updated_at": r.now().UTC(),
		})
		if err != nil {
			return report, err
		}
		if n == 0 {
			// deleted between the read and the write
			out.Error = "company no longer exists"
			report.Failed++
		} else {
			out.MarketCapBillions = &capB
			report.Updated++
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	r.logger.Infow("Market caps refreshed",
		"updated", report.Updated,
		"failed", report.Failed)
	return report, nil
}
