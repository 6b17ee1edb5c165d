package payroll

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Snapshot is the immutable configuration for one payroll run: statutory
// settings, the active tax bracket table and the conversion rate series,
// all loaded once at run start. Mid-run edits to the underlying tables
// never affect an in-flight run.
type Snapshot struct {
	Settings payroll.Settings
	Brackets []payroll.TaxBracket // active, sorted by SortOrder
	rates    []payroll.ConversionRate
}

// LoadSnapshot reads settings, brackets and rates from the repository and
// validates the bracket table. A bad bracket table is a configuration
// error: every employee would be mis-taxed identically, so the caller must
// abort the whole run.
func LoadSnapshot(ctx context.Context, repo payroll.RateRepository) (*Snapshot, error) {
	settings, err := repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payroll settings: %w", err)
	}

	brackets, err := repo.ListBrackets(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load tax brackets: %w", err)
	}
	sort.Slice(brackets, func(i, j int) bool {
		return brackets[i].SortOrder < brackets[j].SortOrder
	})
	if err := ValidateBrackets(brackets); err != nil {
		return nil, err
	}

	rates, err := repo.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load conversion rates: %w", err)
	}

	return &Snapshot{
		Settings: settings,
		Brackets: brackets,
		rates:    rates,
	}, nil
}

// NewSnapshot builds a snapshot from already-loaded data. Used by tests
// and by callers that assemble configuration up front.
func NewSnapshot(settings payroll.Settings, brackets []payroll.TaxBracket, rates []payroll.ConversionRate) (*Snapshot, error) {
	sorted := make([]payroll.TaxBracket, 0, len(brackets))
	for _, b := range brackets {
		if b.IsActive {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})
	if err := ValidateBrackets(sorted); err != nil {
		return nil, err
	}
	return &Snapshot{Settings: settings, Brackets: sorted, rates: rates}, nil
}

// RateFor returns the conversion rate into LAK effective at asOf.
// LAK-to-LAK is always 1 without a table lookup. A missing rate for any
// other currency is a hard failure: falling back to 1 would silently
// corrupt pay.
func (s *Snapshot) RateFor(currency string, asOf time.Time) (decimal.Decimal, error) {
	if currency == payroll.CurrencyLAK {
		return decimal.NewFromInt(1), nil
	}
	for _, r := range s.rates {
		if r.FromCurrency == currency && r.Covers(asOf) {
			return r.Rate, nil
		}
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %s at %s",
		payroll.ErrMissingConversionRate, currency, asOf.Format("2006-01-02"))
}

// ValidateBrackets checks that the brackets, sorted by SortOrder, form a
// contiguous non-overlapping ascending partition starting at zero. An
// open-ended bracket (nil MaxIncome) may only appear last. A finite top
// bracket is accepted here; incomes beyond it fail at calculation time.
func ValidateBrackets(brackets []payroll.TaxBracket) error {
	if len(brackets) == 0 {
		return payroll.ErrNoActiveBrackets
	}

	if !brackets[0].MinIncome.IsZero() {
		return fmt.Errorf("%w: first bracket starts at %s, want 0",
			payroll.ErrInvalidBracketConfig, brackets[0].MinIncome)
	}

	for i, b := range brackets {
		if b.MaxIncome != nil && !b.MaxIncome.GreaterThan(b.MinIncome) {
			return fmt.Errorf("%w: bracket %d has max %s not above min %s",
				payroll.ErrInvalidBracketConfig, b.SortOrder, b.MaxIncome, b.MinIncome)
		}
		if i == 0 {
			continue
		}
		prev := brackets[i-1]
		if prev.MaxIncome == nil {
			return fmt.Errorf("%w: open-ended bracket %d is not last",
				payroll.ErrInvalidBracketConfig, prev.SortOrder)
		}
		if !b.MinIncome.Equal(*prev.MaxIncome) {
			return fmt.Errorf("%w: bracket %d starts at %s, previous ends at %s",
				payroll.ErrInvalidBracketConfig, b.SortOrder, b.MinIncome, prev.MaxIncome)
		}
	}

	return nil
}
