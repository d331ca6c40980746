package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetIsSingleton(t *testing.T) {
	m1 := Get()
	m2 := Initialize()
	assert.Same(t, m1, m2)
}

func TestCountersIncrement(t *testing.T) {
	m := Get()

	before := testutil.ToFloat64(m.RecommendationsServed.WithLabelValues("tfidf"))
	m.RecommendationsServed.WithLabelValues("tfidf").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(m.RecommendationsServed.WithLabelValues("tfidf")))

	retries := testutil.ToFloat64(m.CatalogRetriesTotal)
	m.CatalogRetriesTotal.Inc()
	assert.Equal(t, retries+1, testutil.ToFloat64(m.CatalogRetriesTotal))
}
