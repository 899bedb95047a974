package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/jgivc/earthfetch/internal/common"
)

const (
	EnvUsername = "EARTHFETCH_SUBSCRIPTION_USERNAME"
	EnvPassword = "EARTHFETCH_SUBSCRIPTION_PASSWORD"
)

// SubscriptionOpener returns the opener for subscription-gated catalogs where
// the source URL is an opaque dataset ID. Credentials come from the
// environment, with a .env file loaded if present.
func SubscriptionOpener(endpoint string, log *slog.Logger) Opener {
	return func(ctx context.Context, datasetID string, variables []string) (Dataset, error) {
		if endpoint == "" {
			return nil, fmt.Errorf("%w: subscription endpoint must be configured for dataset %q",
				common.ErrConfiguration, datasetID)
		}

		// Not finding a .env file is fine as long as the variables are set.
		_ = godotenv.Load()

		user := os.Getenv(EnvUsername)
		pass := os.Getenv(EnvPassword)
		if user == "" || pass == "" {
			return nil, fmt.Errorf("%w: %s and %s must be set for dataset %q",
				common.ErrConfiguration, EnvUsername, EnvPassword, datasetID)
		}

		client := newSubsetClient().SetBasicAuth(user, pass)

		return openSubset(ctx, client, joinDatasetURL(endpoint, datasetID), variables, log)
	}
}
