package kernel

import (
	"context"
	"errors"
	"testing"

	"github.com/cinematch/backend/internal/auth"
	"github.com/cinematch/backend/internal/onboarding"
	"github.com/cinematch/backend/internal/recommendations"
	"github.com/cinematch/backend/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestValidate_ReportsMissing(t *testing.T) {
	k := New()
	err := k.Validate()
	require.Error(t, err)

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Contains(t, initErr.Missing, "database (DB)")
	assert.Contains(t, initErr.Missing, "TMDB client")
	assert.Len(t, initErr.Missing, 6)
}

func TestValidate_AllRegistered(t *testing.T) {
	engine := recommendations.NewEngineClient(recommendations.EngineConfig{BaseURL: "http://localhost:3000"})
	catalog := tmdb.NewClient(tmdb.Config{BearerToken: "token"})

	k := New().
		SetDB(&gorm.DB{}).
		SetCatalog(catalog).
		SetEngine(engine).
		SetAuthService(auth.NewMockAuthService()).
		SetRecommendations(recommendations.NewService(engine, catalog, nil, nil, nil)).
		SetOnboarding(onboarding.NewPipeline(nil, nil, nil, catalog))

	assert.NoError(t, k.Validate())
	assert.Same(t, catalog, k.Catalog())
	assert.Same(t, engine, k.Engine())
	assert.Nil(t, k.Cache())
	assert.NotNil(t, k.Logger())
}

func TestCleanup_LIFOAndContinuesOnError(t *testing.T) {
	var order []int
	boom := errors.New("boom")

	k := New()
	k.OnCleanup(func(context.Context) error { order = append(order, 1); return nil })
	k.OnCleanup(func(context.Context) error { order = append(order, 2); return boom })
	k.OnCleanup(func(context.Context) error { order = append(order, 3); return nil })

	err := k.Cleanup(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{3, 2, 1}, order)

	// hooks run once
	require.NoError(t, k.Cleanup(context.Background()))
	assert.Len(t, order, 3)
}
