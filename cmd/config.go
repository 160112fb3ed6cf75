package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/tasks"
	"github.com/weekrev/weekrev/internal/upstream"
)

// Credentials come from the environment:
//
//	TODOIST_API_TOKEN           token for the default Todoist account
//	TODOIST_API_TOKEN_<NAME>    token for the named Todoist account
//	CALENDAR_ACCOUNTS           comma-separated id=email pairs, e.g.
//	                            "work=me@corp.example,personal=me@gmail.com"
//	GOOGLE_ACCESS_TOKEN_<NAME>  calendar token for the account named in
//	                            CALENDAR_ACCOUNTS
//
// Accounts listed without a matching token are kept but marked invalid so
// event fetches skip them instead of failing.

// envSuffix converts an account name to the form used in env var names.
func envSuffix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// parseAccountsEnv parses the CALENDAR_ACCOUNTS pair list.
func parseAccountsEnv(raw string) ([]calendar.Account, error) {
	if raw == "" {
		return nil, nil
	}

	var accounts []calendar.Account
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, email, ok := strings.Cut(pair, "=")
		id, email = strings.TrimSpace(id), strings.TrimSpace(email)
		if !ok || id == "" || email == "" {
			return nil, fmt.Errorf("invalid CALENDAR_ACCOUNTS entry %q (expected id=email)", pair)
		}
		accounts = append(accounts, calendar.Account{ID: id, Email: email})
	}
	return accounts, nil
}

// loadCredentials builds the token provider and calendar account list from
// the environment.
func loadCredentials() (*upstream.StaticTokenProvider, []calendar.Account, error) {
	tokens := upstream.NewStaticTokenProvider()

	if v := os.Getenv("TODOIST_API_TOKEN"); v != "" {
		tokens.SetToken(tasks.ServiceName, "default", &oauth2.Token{AccessToken: v})
	}
	for _, env := range os.Environ() {
		name, value, _ := strings.Cut(env, "=")
		if suffix, ok := strings.CutPrefix(name, "TODOIST_API_TOKEN_"); ok && value != "" {
			tokens.SetToken(tasks.ServiceName, strings.ToLower(suffix), &oauth2.Token{AccessToken: value})
		}
	}

	accounts, err := parseAccountsEnv(os.Getenv("CALENDAR_ACCOUNTS"))
	if err != nil {
		return nil, nil, err
	}
	for i := range accounts {
		token := os.Getenv("GOOGLE_ACCESS_TOKEN_" + envSuffix(accounts[i].ID))
		if token == "" {
			continue
		}
		tokens.SetToken(calendar.ServiceName, accounts[i].Email, &oauth2.Token{AccessToken: token})
		accounts[i].Valid = true
	}

	return tokens, accounts, nil
}
