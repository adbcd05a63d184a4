package license

import (
	"strings"

	"github.com/ealicense/license-server-go/internal/model"
)

// Summarize counts records the same way the store's Stats query does.
func Summarize(records []model.LicenseRecord) *model.LicenseStats {
	stats := &model.LicenseStats{TotalUsers: len(records)}
	for _, rec := range records {
		if strings.Contains(string(rec.SubscriptionType), "trial") {
			stats.TrialUsers++
		} else {
			stats.PaidUsers++
		}

		switch rec.Status {
		case model.StatusActive, model.StatusTrial:
			stats.ActiveUsers++
		case model.StatusPaused:
			stats.PausedUsers++
		case model.StatusPending:
			stats.PendingApprovals++
		case model.StatusSuspended:
			stats.SuspendedUsers++
		case model.StatusExpired:
			stats.ExpiredUsers++
		}
	}
	return stats
}
