package license

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ealicense/license-server-go/internal/model"
)

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, &model.LicenseStats{}, Summarize(nil))
	})

	t.Run("counts plans and statuses", func(t *testing.T) {
		records := []model.LicenseRecord{
			{SubscriptionType: model.SubscriptionTrial30, Status: model.StatusTrial},
			{SubscriptionType: model.SubscriptionTrial7, Status: model.StatusPending},
			{SubscriptionType: model.SubscriptionMonthly, Status: model.StatusActive},
			{SubscriptionType: model.SubscriptionYearly, Status: model.StatusPaused},
			{SubscriptionType: model.SubscriptionLifetime, Status: model.StatusSuspended},
			{SubscriptionType: model.SubscriptionTrial30, Status: model.StatusExpired},
		}

		assert.Equal(t, &model.LicenseStats{
			TotalUsers:       6,
			TrialUsers:       3,
			PaidUsers:        3,
			ActiveUsers:      2,
			PausedUsers:      1,
			PendingApprovals: 1,
			SuspendedUsers:   1,
			ExpiredUsers:     1,
		}, Summarize(records))
	})
}
