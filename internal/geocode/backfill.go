package geocode

import (
	"context"
	"log/slog"

	"supercli/pkg/contracts/domain"
)

// Backfill fills empty Listed Country fields on records that carry an
// address. Lookup failures are logged and skipped so one bad row never
// aborts the run; a cancelled context does.
func (c *Client) Backfill(ctx context.Context, records []*domain.HoldingRecord) (int, error) {
	updated := 0
	for _, rec := range records {
		if rec.ListedCountry != "" || rec.Address == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		country, err := c.CountryForHolding(ctx, rec.Name, rec.Address)
		if err != nil {
			if ctx.Err() != nil {
				return updated, err
			}
			c.logger.Warn("geocode lookup failed",
				slog.String("name", rec.Name),
				slog.String("address", rec.Address),
				slog.String("error", err.Error()))
			continue
		}
		if country == "" {
			c.logger.Debug("no country found for holding",
				slog.String("name", rec.Name),
				slog.String("address", rec.Address))
			continue
		}

		rec.ListedCountry = country
		updated++
	}

	c.logger.Info("geocode backfill complete",
		slog.Int("records", len(records)),
		slog.Int("updated", updated))
	return updated, nil
}
