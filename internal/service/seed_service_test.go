package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	seeder := NewSeedService(env.auth, env.students, env.classes, true, zerolog.Nop())
	req := SeedRequest{Name: "Demo Teacher", Email: "demo@example.com", Password: "demo1234"}

	result, err := seeder.SeedDemo(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 5, result.Students)
	require.Equal(t, 2, result.Classes)

	classes, err := env.classes.List(ctx, result.Teacher.ID.String())
	require.NoError(t, err)
	require.Len(t, classes, 2)
	require.Equal(t, 2, classes[0].StudentCount())

	_, err = seeder.SeedDemo(ctx, req)
	require.ErrorIs(t, err, ErrSeedExists)
}

func TestSeedDemoDisabled(t *testing.T) {
	env := newTestEnv(t, true)
	seeder := NewSeedService(env.auth, env.students, env.classes, false, zerolog.Nop())

	_, err := seeder.SeedDemo(context.Background(), SeedRequest{})
	require.ErrorIs(t, err, ErrSeedDisabled)
}
