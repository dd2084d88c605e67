package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "crawler", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "start", "site", "scan", "worker", "serve", "migrate"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRunCmdArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no crawl id", args: []string{"run"}, wantErr: "accepts 1 arg(s)"},
		{name: "two crawl ids", args: []string{"run", "1", "2"}, wantErr: "accepts 1 arg(s)"},
		{name: "non numeric id", args: []string{"run", "abc"}, wantErr: "invalid crawl id"},
		{name: "zero id", args: []string{"run", "0"}, wantErr: "invalid crawl id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStartCmdFlags(t *testing.T) {
	cmd := NewStartCmd()

	for _, name := range []string{"max-pages", "max-depth", "run"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %q", name)
	}
	assert.Equal(t, "50", cmd.Flags().Lookup("max-pages").DefValue)
	assert.Equal(t, "3", cmd.Flags().Lookup("max-depth").DefValue)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42", "site id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("-1", "site id")
	assert.ErrorContains(t, err, "invalid site id")
}

func TestSiteAddRequiresURL(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"site", "add"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}
