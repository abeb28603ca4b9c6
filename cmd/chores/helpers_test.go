// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/kstep/chores/internal/config"
)

type fakeProvider struct {
	cfg *config.Config
	err error
}

func (p *fakeProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if p.err != nil {
		return nil, p.err
	}
	cfg := *p.cfg
	return &cfg, nil
}

type testApp struct {
	*App
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

// newTestApp builds an App over cfg with captured output. env backs Getenv.
func newTestApp(t *testing.T, cfg *config.Config, env map[string]string) *testApp {
	t.Helper()
	var out, errOut bytes.Buffer
	app, err := NewApp(Dependencies{
		Config: &fakeProvider{cfg: cfg},
		Getenv: func(key string) string { return env[key] },
		Stdout: &out,
		Stderr: &errOut,
	})
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	return &testApp{App: app, out: &out, errOut: &errOut}
}

// run executes the command tree with args.
func (a *testApp) run(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCommand(a.App)
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root.ExecuteContext(context.Background())
}
