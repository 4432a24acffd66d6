package reconcile

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/entity"
	"github.com/spesti-app/receipts-core/internal/ocr"
)

// totalKeywords in priority order; first matching line wins.
var totalKeywords = []string{
	"ОБЩА СУМА",
	"ВСИЧКО",
	"TOTAL",
	"К ПЛАЩАНЕ",
	"ЗА ПЛАЩАНЕ",
}

var (
	reAmount = regexp.MustCompile(`(\d+)[.,](\d{2})`)
	reDate   = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})\b`)
)

const totalAgreementTolerance = "0.1"

// Reconciler cross-validates and overwrites draft fields using deterministic
// Bulgarian text patterns over the raw OCR text. Pure transform; logs are
// diagnostic only.
type Reconciler struct {
	log *slog.Logger
	now func() time.Time
}

func New(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{log: logger, now: time.Now}
}

// Enhance returns a copy of the draft with total, retailer and date
// confirmed or corrected from the raw text. Empty raw text returns the draft
// unchanged.
func (r *Reconciler) Enhance(rawText string, draft entity.ReceiptDraft) entity.ReceiptDraft {
	if strings.TrimSpace(rawText) == "" {
		return draft
	}
	lines := ocr.Lines(rawText)
	out := draft
	out.UsedRawText = true
	out.Reconciled = true

	r.reconcileTotal(rawText, lines, &out)
	r.reconcileRetailer(lines, &out)
	r.reconcileDate(lines, &out)
	return out
}

// Total: keyword patterns in priority order, first match wins. Fallback is
// the largest amount-looking token within [10, 10000]. A text total within
// 0.1 of the draft keeps the draft value (already confirmed); otherwise the
// deterministic text value overwrites the model's.
func (r *Reconciler) reconcileTotal(rawText string, lines []string, draft *entity.ReceiptDraft) {
	found, ok := findKeywordTotal(lines)
	if !ok {
		found, ok = findLargestAmount(rawText)
	}
	if !ok {
		r.log.Debug("reconcile.total.no_match", "draft_total", draft.Total)
		return
	}

	tolerance := decimal.RequireFromString(totalAgreementTolerance)
	if draft.Total.Sub(found).Abs().LessThanOrEqual(tolerance) {
		r.log.Debug("reconcile.total.confirmed", "total", draft.Total)
		return
	}
	r.log.Info("reconcile.total.overwritten", "draft_total", draft.Total, "text_total", found)
	draft.Total = found
}

func findKeywordTotal(lines []string) (decimal.Decimal, bool) {
	for _, kw := range totalKeywords {
		for _, line := range lines {
			// slice the uppercased copy: ToUpper can change byte offsets for
			// some rune mappings, and the amount pattern reads only digits
			u := strings.ToUpper(line)
			idx := strings.Index(u, kw)
			if idx < 0 {
				continue
			}
			m := reAmount.FindStringSubmatch(u[idx+len(kw):])
			if m == nil {
				continue
			}
			if v, err := decimal.NewFromString(m[1] + "." + m[2]); err == nil {
				return v, true
			}
		}
	}
	return decimal.Decimal{}, false
}

func findLargestAmount(rawText string) (decimal.Decimal, bool) {
	lo := decimal.NewFromInt(10)
	hi := decimal.NewFromInt(10000)
	var best decimal.Decimal
	found := false
	for _, m := range reAmount.FindAllStringSubmatch(rawText, -1) {
		v, err := decimal.NewFromString(m[1] + "." + m[2])
		if err != nil {
			continue
		}
		if v.LessThan(lo) || v.GreaterThan(hi) {
			continue
		}
		if !found || v.GreaterThan(best) {
			best = v
			found = true
		}
	}
	return best, found
}

// Retailer: scan the first ~10 lines against the alias dictionary; the
// canonical name overwrites the draft when it is more complete than the
// model's guess.
func (r *Reconciler) reconcileRetailer(lines []string, draft *entity.ReceiptDraft) {
	header := lines
	if len(header) > 10 {
		header = header[:10]
	}
	for _, line := range header {
		u := strings.ToUpper(line)
		for canonical, aliases := range constants.RetailerAliases {
			for _, alias := range aliases {
				if !strings.Contains(u, alias) {
					continue
				}
				if len(canonical) > len(strings.TrimSpace(draft.Retailer)) {
					r.log.Info("reconcile.retailer.overwritten",
						"draft_retailer", draft.Retailer, "canonical", canonical)
					draft.Retailer = canonical
				}
				return
			}
		}
	}
}

// Date: first structurally valid DD.MM.YYYY-family match always overwrites
// the draft; the vision model misreads dates often while text patterns are
// highly reliable for this locale. No match defaults to the current date,
// flagged unconfirmed, even when the model supplied one: only a text-matched
// date counts as confirmed.
func (r *Reconciler) reconcileDate(lines []string, draft *entity.ReceiptDraft) {
	for _, line := range lines {
		for _, m := range reDate.FindAllStringSubmatch(line, -1) {
			day := atoi(m[1])
			month := atoi(m[2])
			year := atoi(m[3])
			if year < 100 {
				// 50-year pivot for 2-digit years
				if year < 50 {
					year += 2000
				} else {
					year += 1900
				}
			}
			if day < 1 || day > 31 || month < 1 || month > 12 || year < 2020 || year > 2030 {
				continue
			}
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			// reject impossible dates like 31.02
			if d.Day() != day || d.Month() != time.Month(month) {
				continue
			}
			if !draft.Date.Equal(d) {
				r.log.Info("reconcile.date.overwritten", "draft_date", draft.Date, "text_date", d)
			}
			draft.Date = d
			draft.DateConfirmed = true
			return
		}
	}
	now := r.now().UTC()
	draft.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	draft.DateConfirmed = false
	r.log.Warn("reconcile.date.defaulted", "date", draft.Date)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
