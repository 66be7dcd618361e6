package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhinav/sendenv/internal/envtest"
	"github.com/abhinav/sendenv/internal/mux"
	"github.com/abhinav/sendenv/internal/mux/muxtest"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndToEnd(t *testing.T) {
	t.Parallel()

	calls := filepath.Join(t.TempDir(), "calls")
	script := writeScript(t, recordArgs(calls))

	env := envtest.MustPairs(
		"XDG_CONFIG_HOME", t.TempDir(),
		"BAR", "2",
	)

	var stdout, stderr bytes.Buffer
	err := (&mainCmd{
		Program:   Program{Name: "sendenv", SessionType: Auto},
		Stdout:    &stdout,
		Stderr:    &stderr,
		Getenv:    env.Getenv,
		LookupEnv: env.LookupEnv,
	}).Run([]string{
		"--session-type", "screen",
		"--socket", "mysock",
		"--program-path", "sh " + script,
		"FOO=1", "BAR",
	})
	require.NoError(t, err)

	assert.Equal(t, unlines(
		"[-S][mysock][-X][echo][]",
		"[-S][mysock][-X][setenv][FOO][1]",
		"[-S][mysock][-X][setenv][BAR][2]",
	), readFile(t, calls))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "INFO updated environment multiplexer=screen count=2")
}

func TestEndToEndSendFailureAborts(t *testing.T) {
	t.Parallel()

	calls := filepath.Join(t.TempDir(), "calls")
	script := writeScript(t, recordArgs(calls)+`
		case "$*" in
			*FOO*) exit 1 ;;
		esac
	`)

	env := envtest.MustPairs("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	err := (&mainCmd{
		Program:   Program{Name: "tmux-sendenv", SessionType: Tmux},
		Stdout:    &stdout,
		Stderr:    &stderr,
		Getenv:    env.Getenv,
		LookupEnv: env.LookupEnv,
	}).Run([]string{
		"-p", "sh " + script,
		"-S", "/tmp/tmux.sock",
		"-s", "3",
		"FOO=1", "BAR=2",
	})
	require.Error(t, err)

	var sendErr *mux.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "FOO", sendErr.Assignment.Name)

	// BAR must not be sent.
	assert.Equal(t, unlines(
		"[-S][/tmp/tmux.sock][has-session][-t][3]",
		"[-S][/tmp/tmux.sock][setenv][-t][3][FOO][1]",
	), readFile(t, calls))
}

func TestEndToEndListNothingRunning(t *testing.T) {
	t.Parallel()

	calls := filepath.Join(t.TempDir(), "calls")
	script := writeScript(t, recordArgs(calls)+"exit 1\n")

	env := envtest.MustPairs("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	err := (&mainCmd{
		Program:   Program{Name: "sendenv", SessionType: Auto},
		Stdout:    &stdout,
		Stderr:    &stderr,
		Getenv:    env.Getenv,
		LookupEnv: env.LookupEnv,
	}).Run([]string{"--list", "--session-type", "auto", "-p", "sh " + script, "FOO=1"})
	require.Error(t, err)

	var detectErr *mux.AutoDetectError
	require.ErrorAs(t, err, &detectErr)
	assert.Empty(t, stdout.String())

	// Only the connection checks ran.
	assert.Equal(t, unlines(
		"[-X][echo][]",
		"[list-sessions]",
	), readFile(t, calls))
}

func TestSendsInOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	driver := muxtest.NewMockDriver(ctrl)
	env := envtest.MustPairs("HOME_ONLY", "x")

	gomock.InOrder(
		driver.EXPECT().Send(gomock.Any(), mux.Assignment{Name: "A", Value: "1"}),
		driver.EXPECT().Send(gomock.Any(), mux.Assignment{Name: "HOME_ONLY", Value: "x"}),
		driver.EXPECT().Send(gomock.Any(), mux.Assignment{Name: "MISSING", Unset: true}),
		driver.EXPECT().Send(gomock.Any(), mux.Assignment{Name: "EMPTY", Value: ""}),
	)
	driver.EXPECT().Kind().Return(mux.Tmux).AnyTimes()

	cmd := newTestCmd(t, driver)
	cmd.LookupEnv = env.LookupEnv
	require.NoError(t, cmd.Run([]string{"A=1", "HOME_ONLY", "MISSING", "EMPTY="}))
}

func TestSendFailFast(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	driver := muxtest.NewMockDriver(ctrl)

	sendErr := &mux.SendError{Kind: mux.Screen, Err: errors.New("great sadness")}
	gomock.InOrder(
		driver.EXPECT().Send(gomock.Any(), muxtest.AssignmentNamed("A")),
		driver.EXPECT().Send(gomock.Any(), muxtest.AssignmentNamed("B")).Return(sendErr),
	)
	// C must never be sent.

	err := newTestCmd(t, driver).Run([]string{"A=1", "B=2", "C=3"})
	assert.ErrorIs(t, err, sendErr)
}

func TestUnsetEmpty(t *testing.T) {
	t.Parallel()

	env := envtest.MustPairs("EMPTY_ENV", "")

	tests := []struct {
		desc string
		args []string
		want []mux.Assignment
	}{
		{
			desc: "without flag",
			args: []string{"FOO=", "EMPTY_ENV"},
			want: []mux.Assignment{
				{Name: "FOO", Value: ""},
				{Name: "EMPTY_ENV", Value: ""},
			},
		},
		{
			desc: "with flag",
			args: []string{"--unset-empty", "FOO=", "EMPTY_ENV", "BAR=x"},
			want: []mux.Assignment{
				{Name: "FOO", Unset: true},
				{Name: "EMPTY_ENV", Unset: true},
				{Name: "BAR", Value: "x"},
			},
		},
		{
			desc: "short flag",
			args: []string{"-u", "FOO="},
			want: []mux.Assignment{
				{Name: "FOO", Unset: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			driver := muxtest.NewMockDriver(ctrl)
			driver.EXPECT().Kind().Return(mux.Screen).AnyTimes()

			calls := make([]*gomock.Call, len(tt.want))
			for i, a := range tt.want {
				calls[i] = driver.EXPECT().Send(gomock.Any(), a)
			}
			gomock.InOrder(calls...)

			cmd := newTestCmd(t, driver)
			cmd.LookupEnv = env.LookupEnv
			require.NoError(t, cmd.Run(tt.args))
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	driver := muxtest.NewMockDriver(ctrl)
	driver.EXPECT().Kind().Return(mux.Tmux)

	var stdout bytes.Buffer
	cmd := newTestCmd(t, driver)
	cmd.Stdout = &stdout
	require.NoError(t, cmd.Run([]string{"-l", "FOO=bar"}))

	assert.Equal(t, "tmux\n", stdout.String())
}

func TestDriverOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc        string
		defaultType SessionType
		args        []string

		wantType    SessionType
		wantCfg     mux.Config
		wantTimeout time.Duration
	}{
		{
			desc:        "defaults",
			defaultType: Auto,
			wantType:    Auto,
			wantTimeout: mux.DefaultTimeout,
		},
		{
			desc:        "program default",
			defaultType: Screen,
			wantType:    Screen,
			wantTimeout: mux.DefaultTimeout,
		},
		{
			desc:        "short flags",
			defaultType: Auto,
			args:        []string{"-t", "tmux", "-p", "/opt/tmux", "-S", "work", "-s", "2"},
			wantType:    Tmux,
			wantCfg: mux.Config{
				Path:    "/opt/tmux",
				Socket:  "work",
				Session: "2",
			},
			wantTimeout: mux.DefaultTimeout,
		},
		{
			desc:        "long flags",
			defaultType: Tmux,
			args: []string{
				"--session-type=screen",
				"--program-path=/usr/bin/screen",
				"--socket=1234.pts-0.host",
				"--timeout=250ms",
			},
			wantType: Screen,
			wantCfg: mux.Config{
				Path:   "/usr/bin/screen",
				Socket: "1234.pts-0.host",
			},
			wantTimeout: 250 * time.Millisecond,
		},
		{
			desc:        "no timeout",
			defaultType: Auto,
			args:        []string{"--timeout", "0"},
			wantType:    Auto,
			wantTimeout: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			var (
				gotType SessionType
				gotCfg  mux.Config
				gotOpts *mux.Options
			)
			ctrl := gomock.NewController(t)
			driver := muxtest.NewMockDriver(ctrl)
			driver.EXPECT().Kind().Return(mux.Tmux)

			cmd := newTestCmd(t, driver)
			cmd.SessionType = tt.defaultType
			cmd.openDriver = func(
				_ context.Context, st SessionType, cfg mux.Config, opts *mux.Options,
			) (mux.Driver, error) {
				gotType, gotCfg, gotOpts = st, cfg, opts
				return driver, nil
			}
			require.NoError(t, cmd.Run(append(tt.args, "--list")))

			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantCfg, gotCfg)
			require.NotNil(t, gotOpts)
			assert.Equal(t, tt.wantTimeout, gotOpts.Timeout)
		})
	}
}

func TestConfigFilePrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sendenv", "config.toml"), `
session_type = "tmux"
socket = "from-file"
session = "7"
unset_empty = true
timeout = "3s"
`)

	var (
		gotType SessionType
		gotCfg  mux.Config
		gotOpts *mux.Options
	)
	ctrl := gomock.NewController(t)
	driver := muxtest.NewMockDriver(ctrl)
	driver.EXPECT().Kind().Return(mux.Tmux).AnyTimes()
	driver.EXPECT().Send(gomock.Any(), mux.Assignment{Name: "FOO", Unset: true})

	cmd := newTestCmd(t, driver)
	env := envtest.MustPairs("XDG_CONFIG_HOME", dir)
	cmd.Getenv = env.Getenv
	cmd.openDriver = func(
		_ context.Context, st SessionType, cfg mux.Config, opts *mux.Options,
	) (mux.Driver, error) {
		gotType, gotCfg, gotOpts = st, cfg, opts
		return driver, nil
	}

	require.NoError(t, cmd.Run([]string{"--socket", "from-flag", "FOO="}))
	assert.Equal(t, Tmux, gotType)
	assert.Equal(t, mux.Config{Socket: "from-flag", Session: "7"}, gotCfg)
	assert.Equal(t, 3*time.Second, gotOpts.Timeout)
}

func TestConfigFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.toml")
	writeFile(t, unknown, "verbose = true\n")

	badType := filepath.Join(dir, "bad-type.toml")
	writeFile(t, badType, `session_type = "zellij"`+"\n")

	tests := []struct {
		desc    string
		args    []string
		env     []string
		wantErr string
	}{
		{
			desc:    "explicit missing",
			args:    []string{"--config", filepath.Join(dir, "missing.toml")},
			wantErr: "missing.toml",
		},
		{
			desc:    "env missing",
			env:     []string{_configEnv, filepath.Join(dir, "missing.toml")},
			wantErr: "missing.toml",
		},
		{
			desc:    "unknown key",
			args:    []string{"--config", unknown},
			wantErr: "unknown keys: verbose",
		},
		{
			desc:    "bad session type",
			args:    []string{"--config", badType},
			wantErr: "session type must be one of screen, tmux, auto",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			cmd := newTestCmd(t, nil)
			cmd.Getenv = envtest.MustPairs(tt.env...).Getenv
			err := cmd.Run(append(tt.args, "--list"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc    string
		args    []string
		wantErr string
	}{
		{
			desc:    "quiet and verbose",
			args:    []string{"-q", "-v"},
			wantErr: "[quiet verbose]",
		},
		{
			desc:    "bad session type",
			args:    []string{"-t", "zellij"},
			wantErr: "session type must be one of screen, tmux, auto",
		},
		{
			desc:    "empty name",
			args:    []string{"FOO=1", "=bar"},
			wantErr: `invalid argument "=bar": variable name must not be empty`,
		},
		{
			desc:    "bad program path",
			args:    []string{"-p", `tmux "`, "FOO=1"},
			wantErr: `invalid argument "--program-path"`,
		},
		{
			desc:    "negative timeout",
			args:    []string{"--timeout", "-1s"},
			wantErr: "timeout must not be negative",
		},
		{
			desc:    "unknown flag",
			args:    []string{"--frobnicate"},
			wantErr: "unknown flag: --frobnicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			// The multiplexer must never be reached.
			err := newTestCmd(t, nil).Run(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmptyNameIsInvalidArgument(t *testing.T) {
	t.Parallel()

	err := newTestCmd(t, nil).Run([]string{"="})
	var argErr *InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "=", argErr.Arg)
}

func TestScreenSessionWarning(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	driver := muxtest.NewMockDriver(ctrl)
	driver.EXPECT().Kind().Return(mux.Screen)

	var stderr bytes.Buffer
	cmd := newTestCmd(t, driver)
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Run([]string{"-t", "screen", "-s", "1", "-l"}))

	assert.Contains(t, stderr.String(), "WARN session is only meaningful for tmux")
}

func TestVerbosity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc        string
		args        []string
		wantInfo    bool
		wantDebug   bool
		wantWarning bool
	}{
		{desc: "default", wantInfo: true, wantWarning: true},
		{desc: "quiet", args: []string{"-q"}, wantWarning: true},
		{desc: "verbose", args: []string{"--verbose"}, wantInfo: true, wantDebug: true, wantWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			driver := muxtest.NewMockDriver(ctrl)
			driver.EXPECT().Kind().Return(mux.Screen).AnyTimes()
			driver.EXPECT().Send(gomock.Any(), gomock.Any())

			var stderr bytes.Buffer
			cmd := newTestCmd(t, driver)
			cmd.Stderr = &stderr
			args := append([]string{"-t", "screen", "-s", "1", "FOO=bar"}, tt.args...)
			require.NoError(t, cmd.Run(args))

			got := stderr.String()
			assert.Equal(t, tt.wantWarning, bytes.Contains(stderr.Bytes(), []byte("WARN ")), got)
			assert.Equal(t, tt.wantInfo, bytes.Contains(stderr.Bytes(), []byte("INFO ")), got)
			assert.Equal(t, tt.wantDebug, bytes.Contains(stderr.Bytes(), []byte("DEBUG ")), got)
		})
	}
}

func TestNoArguments(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	driver := muxtest.NewMockDriver(ctrl)

	var stdout bytes.Buffer
	cmd := newTestCmd(t, driver)
	cmd.Stdout = &stdout
	require.NoError(t, cmd.Run(nil))
	assert.Empty(t, stdout.String())
}

func TestVersion(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	cmd := newTestCmd(t, nil)
	cmd.Version = "1.2.3"
	cmd.Stdout = &stdout
	require.NoError(t, cmd.Run([]string{"--version"}))

	assert.Equal(t, "sendenv version 1.2.3\n", stdout.String())
}

func TestHelp(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	cmd := newTestCmd(t, nil)
	cmd.Stdout = &stdout
	require.NoError(t, cmd.Run([]string{"--help"}))

	out := stdout.String()
	assert.Contains(t, out, "sendenv [flags] [VAR[=VALUE] ...]")
	assert.Contains(t, out, "--session-type")
	assert.Contains(t, out, "--unset-empty")
	assert.Contains(t, out, "only take effect for windows created afterwards")
}

func TestOpenDriverAuto(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `
		case "$*" in
			*list-sessions*) exit 0 ;;
		esac
		exit 1
	`)

	d, err := openDriver(t.Context(), Auto, mux.Config{Path: "sh " + script}, nil)
	require.NoError(t, err)
	assert.Equal(t, mux.Tmux, d.Kind())

	_, err = openDriver(t.Context(), Screen, mux.Config{Path: "sh " + script}, nil)
	var connErr *mux.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, mux.Screen, connErr.Kind)
}

// newTestCmd builds a mainCmd isolated from the real environment.
// All multiplexer connections resolve to driver. If driver is nil, any
// attempt to connect fails the test.
func newTestCmd(t *testing.T, driver mux.Driver) *mainCmd {
	t.Helper()

	home := t.TempDir()
	return &mainCmd{
		Program:     Program{Name: "sendenv", SessionType: Auto},
		Stdout:      new(bytes.Buffer),
		Stderr:      new(bytes.Buffer),
		Getenv:      envtest.Empty.Getenv,
		LookupEnv:   envtest.Empty.LookupEnv,
		UserHomeDir: func() (string, error) { return home, nil },
		openDriver: func(context.Context, SessionType, mux.Config, *mux.Options) (mux.Driver, error) {
			if driver == nil {
				t.Errorf("unexpected connection attempt")
				return nil, errors.New("unexpected connection attempt")
			}
			return driver, nil
		},
	}
}

// recordArgs returns a shell script snippet that appends its arguments, one
// invocation per line, to the given file.
func recordArgs(path string) string {
	return fmt.Sprintf(`
		for arg in "$@"; do printf '[%%s]' "$arg" >> %[1]q; done
		echo >> %[1]q
	`, path)
}

func writeScript(t testing.TB, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mux.sh")
	writeFile(t, path, body)
	return path
}

func writeFile(t testing.TB, path, body string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func readFile(t testing.TB, path string) string {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func unlines(lines ...string) string {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.String()
}
