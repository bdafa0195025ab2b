package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go-gin-graphql-users/internal/domain"
	"go-gin-graphql-users/internal/testutil"
)

func TestRun(t *testing.T) {
	users := testutil.NewUserRepo(t)
	ctx := context.Background()
	ada := &domain.User{FirstName: testutil.Ptr("Ada"), LastName: testutil.Ptr("Lovelace"), Role: testutil.Ptr("admin")}
	require.NoError(t, users.Create(ctx, ada))

	var out bytes.Buffer
	require.NoError(t, run(ctx, users, []string{"list"}, &out))
	require.JSONEq(t, `[{"userId":1,"firstName":"Ada","lastName":"Lovelace","role":"admin"}]`, out.String())

	out.Reset()
	require.NoError(t, run(ctx, users, []string{"get", "1"}, &out))
	require.JSONEq(t, `{"userId":1,"firstName":"Ada","lastName":"Lovelace","role":"admin"}`, out.String())

	out.Reset()
	require.NoError(t, run(ctx, users, []string{"delete", "1"}, &out))
	require.JSONEq(t, `{"status":"User deleted"}`, out.String())

	out.Reset()
	require.NoError(t, run(ctx, users, []string{"get", "1"}, &out))
	require.JSONEq(t, `null`, out.String())

	out.Reset()
	require.NoError(t, run(ctx, users, []string{"migrate"}, &out))
}

func TestRun_Usage(t *testing.T) {
	users := testutil.NewUserRepo(t)
	ctx := context.Background()
	var out bytes.Buffer

	for _, args := range [][]string{nil, {"drop"}, {"get"}, {"get", "abc"}, {"delete", "1", "2"}} {
		require.ErrorIs(t, run(ctx, users, args, &out), errUsage, "args=%v", args)
	}
}
