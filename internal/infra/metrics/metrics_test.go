package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveAgentPipelineCountsByStatus(t *testing.T) {
	before := testutil.ToFloat64(AgentRequestsTotal.WithLabelValues("recommend", "error"))

	ObserveAgentPipeline("recommend", time.Now(), errors.New("boom"))

	after := testutil.ToFloat64(AgentRequestsTotal.WithLabelValues("recommend", "error"))
	require.Equal(t, before+1, after)
}

func TestObserveAgentPipelineDefaultsBranch(t *testing.T) {
	before := testutil.ToFloat64(AgentRequestsTotal.WithLabelValues("unknown", "success"))

	ObserveAgentPipeline("", time.Now(), nil)

	require.Equal(t, before+1, testutil.ToFloat64(AgentRequestsTotal.WithLabelValues("unknown", "success")))
}

func TestAddCacheSweptIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(CacheSweptTotal)

	AddCacheSwept(0)
	AddCacheSwept(3)

	require.Equal(t, before+3, testutil.ToFloat64(CacheSweptTotal))
}
