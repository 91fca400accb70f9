package shopcheck

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/networkteam/shopcheck/api"
	"github.com/networkteam/shopcheck/report"
)

// recentExchanges is how many HTTP exchanges are attached to the report of a failed API test.
const recentExchanges = 10

// APITest is the fixture of an API test. Each test gets its own client.
type APITest struct {
	fixture
	client *api.Client
	users  *api.UserClient
}

// API creates a client for t from the API settings and registers its teardown.
func (i *Instance) API(t testing.TB, options ...TestOption) *APITest {
	t.Helper()

	a := &APITest{fixture: i.newFixture(t, options)}
	opts := api.OptionsFromSettings(i.settings.API)
	if a.config.baseURL != "" {
		opts.BaseURL = a.config.baseURL
	}
	a.client = api.NewClient(opts)
	a.users = api.NewUserClient(a.client)
	t.Cleanup(a.teardown)
	return a
}

func (a *APITest) Client() *api.Client { return a.client }

func (a *APITest) Users() *api.UserClient { return a.users }

func (a *APITest) teardown() {
	defer a.test.End()
	defer a.client.Close()

	failed := a.failed()
	recordOutcome(a.test, failed, a.failureMessage())
	if !failed {
		return
	}
	if exchanges := a.client.Exchanges(recentExchanges); len(exchanges) > 0 {
		a.test.AddCode(report.StatusFail, "Recent HTTP exchanges", formatExchanges(exchanges), "text/plain")
	}
}

func formatExchanges(exchanges []api.Exchange) string {
	var sb strings.Builder
	for _, ex := range exchanges {
		if ex.Error != nil {
			fmt.Fprintf(&sb, "%s %s -> error: %v\n", ex.Method, ex.URL, ex.Error)
			continue
		}
		fmt.Fprintf(&sb, "%s %s -> %d (%s)\n", ex.Method, ex.URL, ex.StatusCode, ex.Duration().Round(time.Millisecond))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
