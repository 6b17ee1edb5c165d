package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type rateRepository struct {
	db *database.DB
}

func NewRateRepository(db *database.DB) payroll.RateRepository {
	return &rateRepository{db: db}
}

// ========== SETTINGS ==========

func (r *rateRepository) GetSettings(ctx context.Context) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT setting_key, setting_value
		FROM system_settings
		WHERE setting_key = ANY($1)
	`

	keys := []string{
		payroll.SettingNssfCeiling,
		payroll.SettingNssfEmployeeRate,
		payroll.SettingNssfEmployerRate,
		payroll.SettingDependentDeduction,
	}

	rows, err := q.Query(ctx, query, keys)
	if err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to query system settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]decimal.Decimal, len(keys))
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return payroll.Settings{}, fmt.Errorf("failed to scan system setting: %w", err)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return payroll.Settings{}, fmt.Errorf("%w: %s=%q", payroll.ErrInvalidSettingValue, key, raw)
		}
		values[key] = value
	}

	for _, key := range keys {
		if _, ok := values[key]; !ok {
			return payroll.Settings{}, fmt.Errorf("%w: %s", payroll.ErrSettingNotFound, key)
		}
	}

	return payroll.Settings{
		NssfCeiling:        values[payroll.SettingNssfCeiling],
		NssfEmployeeRate:   values[payroll.SettingNssfEmployeeRate],
		NssfEmployerRate:   values[payroll.SettingNssfEmployerRate],
		DependentDeduction: values[payroll.SettingDependentDeduction],
	}, nil
}

// ========== TAX BRACKETS ==========

func (r *rateRepository) ListBrackets(ctx context.Context, activeOnly bool) ([]payroll.TaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, min_income, max_income, rate, sort_order, is_active, created_at, updated_at
		FROM tax_brackets
		WHERE ($1 = false OR is_active = true)
		ORDER BY sort_order
	`

	rows, err := q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax brackets: %w", err)
	}
	defer rows.Close()

	var brackets []payroll.TaxBracket
	for rows.Next() {
		var b payroll.TaxBracket
		if err := rows.Scan(
			&b.ID, &b.MinIncome, &b.MaxIncome, &b.Rate, &b.SortOrder,
			&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tax bracket: %w", err)
		}
		brackets = append(brackets, b)
	}

	return brackets, nil
}

func (r *rateRepository) CreateBracket(ctx context.Context, bracket payroll.TaxBracket) (payroll.TaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO tax_brackets (id, min_income, max_income, rate, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, min_income, max_income, rate, sort_order, is_active, created_at, updated_at
	`

	var b payroll.TaxBracket
	err := q.QueryRow(ctx, query,
		uuid.NewString(), bracket.MinIncome, bracket.MaxIncome, bracket.Rate,
		bracket.SortOrder, bracket.IsActive,
	).Scan(
		&b.ID, &b.MinIncome, &b.MaxIncome, &b.Rate, &b.SortOrder,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return payroll.TaxBracket{}, fmt.Errorf("failed to create tax bracket: %w", err)
	}

	return b, nil
}

func (r *rateRepository) SetBracketActive(ctx context.Context, id string, active bool) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE tax_brackets
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, active).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrBracketNotFound
		}
		return fmt.Errorf("failed to update tax bracket: %w", err)
	}

	return nil
}

// ========== CONVERSION RATES ==========

func (r *rateRepository) ListRates(ctx context.Context) ([]payroll.ConversionRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, from_currency, to_currency, rate, effective_date, expiry_date, created_at, updated_at
		FROM conversion_rates
		ORDER BY from_currency, effective_date
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversion rates: %w", err)
	}
	defer rows.Close()

	var rates []payroll.ConversionRate
	for rows.Next() {
		var cr payroll.ConversionRate
		if err := rows.Scan(
			&cr.ID, &cr.FromCurrency, &cr.ToCurrency, &cr.Rate,
			&cr.EffectiveDate, &cr.ExpiryDate, &cr.CreatedAt, &cr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversion rate: %w", err)
		}
		rates = append(rates, cr)
	}

	return rates, nil
}

func (r *rateRepository) CreateRate(ctx context.Context, rate payroll.ConversionRate) (payroll.ConversionRate, error) {
	var created payroll.ConversionRate

	// Closing the still-open rate and inserting the new one must land
	// together, otherwise two rates could cover the same instant. The new
	// effective date must also fall after every existing row's coverage:
	// a backdated rate inside a closed historical window would leave two
	// rows effective at once.
	err := WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		conflictQuery := `
			SELECT EXISTS (
				SELECT 1
				FROM conversion_rates
				WHERE from_currency = $1
				  AND (effective_date >= $2
				       OR (expiry_date IS NOT NULL AND expiry_date > $2))
			)
		`
		var conflict bool
		if err := q.QueryRow(txCtx, conflictQuery, rate.FromCurrency, rate.EffectiveDate).Scan(&conflict); err != nil {
			return fmt.Errorf("failed to check conversion rate overlap: %w", err)
		}
		if conflict {
			return payroll.ErrRateConflict
		}

		closeQuery := `
			UPDATE conversion_rates
			SET expiry_date = $2, updated_at = NOW()
			WHERE from_currency = $1 AND expiry_date IS NULL
		`
		if _, err := q.Exec(txCtx, closeQuery, rate.FromCurrency, rate.EffectiveDate); err != nil {
			return fmt.Errorf("failed to close open conversion rate: %w", err)
		}

		insertQuery := `
			INSERT INTO conversion_rates (id, from_currency, to_currency, rate, effective_date, expiry_date)
			VALUES ($1, $2, $3, $4, $5, NULL)
			RETURNING id, from_currency, to_currency, rate, effective_date, expiry_date, created_at, updated_at
		`
		err := q.QueryRow(txCtx, insertQuery,
			uuid.NewString(), rate.FromCurrency, payroll.CurrencyLAK, rate.Rate, rate.EffectiveDate,
		).Scan(
			&created.ID, &created.FromCurrency, &created.ToCurrency, &created.Rate,
			&created.EffectiveDate, &created.ExpiryDate, &created.CreatedAt, &created.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create conversion rate: %w", err)
		}

		return nil
	})
	if err != nil {
		return payroll.ConversionRate{}, err
	}

	return created, nil
}
