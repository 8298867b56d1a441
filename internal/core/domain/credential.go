package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Credential is a seller's non-transferable reputation record.
type Credential struct {
	ID             uint64       `json:"id"`
	Holder         Address      `json:"holder"`
	TotalJobs      uint64       `json:"total_jobs"`
	SuccessfulJobs uint64       `json:"successful_jobs"`
	RatingSum      uint64       `json:"rating_sum"`
	RatingCount    uint64       `json:"rating_count"`
	TotalEarned    *uint256.Int `json:"total_earned"`
	CreatedAt      time.Time    `json:"created_at"`
}

// AverageRatingCenti is the mean rating times 100, truncated. Zero when unrated.
func (c *Credential) AverageRatingCenti() uint64 {
	if c.RatingCount == 0 {
		return 0
	}
	return c.RatingSum * 100 / c.RatingCount
}

// SuccessRateBps is successfulJobs/totalJobs in basis points. Zero with no jobs.
func (c *Credential) SuccessRateBps() uint64 {
	if c.TotalJobs == 0 {
		return 0
	}
	return c.SuccessfulJobs * BpsDenominator / c.TotalJobs
}

// Clone returns a deep copy.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	out.TotalEarned = AmountOrZero(c.TotalEarned)
	return &out
}
