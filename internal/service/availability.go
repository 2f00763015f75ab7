package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

// CheckAvailability reports whether requestedTimes units of number can still
// be sold under the event's configured limits. It fails closed: malformed
// input or a store error yields "not available" rather than an error, so a
// caller can never oversell because the check itself broke. Numbers no limit
// covers are unrestricted.
func (s *LimitService) CheckAvailability(ctx context.Context, eventID, number string, requestedTimes int) domain.Availability {
	if requestedTimes <= 0 {
		return domain.NoCapacity()
	}
	if _, err := strconv.Atoi(strings.TrimSpace(number)); err != nil {
		return domain.NoCapacity()
	}

	limits, err := s.ListLimits(ctx, eventID, false)
	if err != nil {
		zap.L().Error("failed to load limits for availability check",
			zap.String("event_id", eventID), zap.Error(err))
		return domain.NoCapacity()
	}
	if len(limits) == 0 {
		return domain.Unrestricted()
	}

	for _, l := range limits {
		if !IsNumberInRange(number, l.NumberRange) {
			continue
		}

		// Re-read the matched row so the decision uses the freshest
		// counter the cache may be hiding.
		fresh, err := s.repo.GetByID(ctx, l.ID)
		if err != nil {
			zap.L().Error("failed to re-read matched limit",
				zap.String("limit_id", l.ID), zap.Error(err))
			return domain.NoCapacity()
		}

		remaining := fresh.Remaining()
		return domain.Availability{
			Available: remaining >= requestedTimes,
			Remaining: remaining,
			LimitID:   fresh.ID,
		}
	}

	return domain.Unrestricted()
}
