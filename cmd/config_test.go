package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/tasks"
)

func TestParseAccountsEnv(t *testing.T) {
	accounts, err := parseAccountsEnv("work=me@corp.example, personal=me@gmail.com,")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, calendar.Account{ID: "work", Email: "me@corp.example"}, accounts[0])
	assert.Equal(t, "personal", accounts[1].ID)
	assert.False(t, accounts[0].Valid, "accounts start invalid until a token is found")
}

func TestParseAccountsEnvEmpty(t *testing.T) {
	accounts, err := parseAccountsEnv("")
	require.NoError(t, err)
	assert.Nil(t, accounts)
}

func TestParseAccountsEnvRejectsBadPairs(t *testing.T) {
	for _, raw := range []string{"work", "=me@corp.example", "work="} {
		_, err := parseAccountsEnv(raw)
		assert.Error(t, err, "input %q should be rejected", raw)
	}
}

func TestEnvSuffix(t *testing.T) {
	assert.Equal(t, "WORK", envSuffix("work"))
	assert.Equal(t, "SIDE_PROJECT", envSuffix("side-project"))
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("TODOIST_API_TOKEN", "todoist-default")
	t.Setenv("TODOIST_API_TOKEN_WORK", "todoist-work")
	t.Setenv("CALENDAR_ACCOUNTS", "work=me@corp.example,personal=me@gmail.com")
	t.Setenv("GOOGLE_ACCESS_TOKEN_WORK", "calendar-work")

	tokens, accounts, err := loadCredentials()
	require.NoError(t, err)

	ctx := context.Background()
	token, err := tokens.GetValidToken(ctx, tasks.ServiceName, "default")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "todoist-default", token.AccessToken)

	token, err = tokens.GetValidToken(ctx, tasks.ServiceName, "work")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "todoist-work", token.AccessToken)

	require.Len(t, accounts, 2)
	assert.True(t, accounts[0].Valid, "work account has a token")
	assert.False(t, accounts[1].Valid, "personal account has no token")

	token, err = tokens.GetValidToken(ctx, calendar.ServiceName, "me@corp.example")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "calendar-work", token.AccessToken)
}

func TestLoadCredentialsBadAccounts(t *testing.T) {
	t.Setenv("CALENDAR_ACCOUNTS", "not-a-pair")
	_, _, err := loadCredentials()
	assert.Error(t, err)
}
