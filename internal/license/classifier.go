package license

import (
	"strings"

	"github.com/ealicense/license-server-go/internal/model"
)

// demoPatterns mark a server or broker name as a demo environment.
var demoPatterns = []string{"demo", "test", "practice", "simulation", "contest"}

// Classify infers whether a trading account is real or demo.
//
// The numeric bands are broker folklore rather than a guaranteed mapping,
// so an account can be misclassified. Name patterns win over numbers.
func Classify(accountNumber int64, serverName, brokerName string) model.AccountType {
	server := strings.ToLower(serverName)
	broker := strings.ToLower(brokerName)
	for _, p := range demoPatterns {
		if strings.Contains(server, p) || strings.Contains(broker, p) {
			return model.AccountTypeDemo
		}
	}

	switch {
	case accountNumber >= 50_000_000 && accountNumber <= 90_000_000,
		accountNumber >= 1_000_000 && accountNumber <= 9_999_999,
		accountNumber > 100_000_000:
		return model.AccountTypeDemo
	case accountNumber < 1_000_000,
		accountNumber > 10_000_000 && accountNumber < 50_000_000:
		return model.AccountTypeReal
	default:
		return model.AccountTypeUnknown
	}
}
