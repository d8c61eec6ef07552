// README: Stored quote snapshot (request, computed result and validity window).
package quote

import (
	"time"

	"benne/internal/modules/pricing"
	"benne/internal/types"
)

type Quote struct {
	ID        types.ID             `json:"id"`
	Request   pricing.QuoteRequest `json:"request"`
	Result    pricing.QuoteResult  `json:"result"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}
