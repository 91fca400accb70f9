package report

import "context"

type ctxKey string

const testKey ctxKey = "reportTest"

// ContextWithTest binds a test to ctx so log records and HTTP exchanges made with it end up in the test.
func ContextWithTest(ctx context.Context, t *Test) context.Context {
	return context.WithValue(ctx, testKey, t)
}

// TestFromContext returns the test bound by ContextWithTest.
func TestFromContext(ctx context.Context) (*Test, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(testKey).(*Test)
	return t, ok && t != nil
}
