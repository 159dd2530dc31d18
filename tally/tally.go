// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/models"
)

// Compute reads the poll and its current option tallies and builds the
// results view. Nothing is cached; every call sees the latest committed votes.
// Returns db.ErrNotFound for an unknown poll.
func Compute(ctx context.Context, q sqlx.QueryerContext, pollID string) (models.ResultsView, error) {
	poll, err := db.PollByID(ctx, q, pollID)
	if err != nil {
		return models.ResultsView{}, err
	}

	options, err := db.OptionsByPoll(ctx, q, poll.ID)
	if err != nil {
		return models.ResultsView{}, fmt.Errorf("failed to get options: %w", err)
	}

	total := TotalVotes(options)

	return models.ResultsView{
		ID:          poll.ID,
		Title:       poll.Title,
		Description: poll.Description,
		Total:       total,
		Options:     Results(options, total),
		CreatedAt:   poll.CreatedAt,
		ExpiresAt:   poll.ExpiresAt,
	}, nil
}

// Results pairs each option with its share of total, in the given order.
func Results(options []models.PollOption, total int64) []models.OptionResult {
	results := make([]models.OptionResult, len(options))
	for i, o := range options {
		results[i] = models.OptionResult{
			ID:         o.ID,
			Text:       o.Text,
			Tally:      o.Tally,
			Percentage: Percentage(o.Tally, total),
		}
	}
	return results
}

// TotalVotes sums option tallies.
func TotalVotes(options []models.PollOption) int64 {
	var total int64
	for _, o := range options {
		total += o.Tally
	}
	return total
}

// Percentage returns count/total*100 rounded to two decimals. Rounding is
// applied to the exact value of the float, with ties going to the even digit,
// so 1/32 gives 3.12. It is 0 when total is 0. Shares of one poll are rounded
// independently and may not add up to exactly 100.
func Percentage(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(count) / float64(total) * 100
	v, _ := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 2, 64), 64)
	return v
}
