package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateDedupesAcrossBackends(t *testing.T) {
	Register("scan-test-a", DiscovererFunc(func(ctx context.Context, arg string) ([]Result, error) {
		return []Result{{URI: "x:1", Description: "a"}}, nil
	}))
	Register("scan-test-b", DiscovererFunc(func(ctx context.Context, arg string) ([]Result, error) {
		return []Result{{URI: "x:1", Description: "b"}, {URI: "x:2", Description: "b2"}}, nil
	}))

	out := Aggregate(context.Background(), "scan-test-a,scan-test-b")
	require.Len(t, out, 2)
	require.Equal(t, "x:1", out[0].URI)
	require.Equal(t, "a", out[0].Description)
	require.Equal(t, "x:2", out[1].URI)
}

func TestAggregateSkipsFailingBackend(t *testing.T) {
	Register("scan-test-fail", DiscovererFunc(func(ctx context.Context, arg string) ([]Result, error) {
		return nil, errors.New("boom")
	}))
	Register("scan-test-ok", DiscovererFunc(func(ctx context.Context, arg string) ([]Result, error) {
		return []Result{{URI: "ok:1"}}, nil
	}))

	out := Aggregate(context.Background(), "scan-test-fail,scan-test-ok")
	require.Len(t, out, 1)
	require.Equal(t, "ok:1", out[0].URI)
}

func TestAggregateSkipsUnknownBackend(t *testing.T) {
	out := Aggregate(context.Background(), "does-not-exist")
	require.Empty(t, out)
}

func TestAggregatePassesSegmentArg(t *testing.T) {
	var gotArg string
	Register("scan-test-arg", DiscovererFunc(func(ctx context.Context, arg string) ([]Result, error) {
		gotArg = arg
		return nil, nil
	}))

	Aggregate(context.Background(), "scan-test-arg=hello")
	require.Equal(t, "hello", gotArg)
}
