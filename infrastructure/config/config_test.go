package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/stretchr/testify/require"
)

// withConfigFile points the config file at a temporary path holding
// contents and returns the argument that selects it.
func withConfigFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), defaultConfigFilename)
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatalf("withConfigFile: %s", err)
	}
	return "--configfile=" + path
}

func TestLoadConfigDefaults(t *testing.T) {
	dataDir := t.TempDir()
	cfg, err := loadConfig([]string{withConfigFile(t, ""), "--datadir=" + dataDir})
	if err != nil {
		t.Fatalf("TestLoadConfigDefaults: %s", err)
	}

	require.Equal(t, chaincfg.MainnetParams.Name, cfg.NetParams().Name)
	require.Equal(t, filepath.Join(dataDir, "main"), cfg.DataDir)
	expectedWorkers := runtime.NumCPU()
	if expectedWorkers > maxScriptWorkers {
		expectedWorkers = maxScriptWorkers
	}
	require.Equal(t, expectedWorkers, cfg.ScriptWorkers)
	require.Equal(t, defaultSigCacheSize, cfg.SigCacheMaxSize)
	require.Nil(t, cfg.AssumeValid)
	require.False(t, cfg.NoCheckpoints)
}

func TestLoadConfigFileAndPrecedence(t *testing.T) {
	configArg := withConfigFile(t, "[Application Options]\nregtest=1\npar=3\nsigcachemaxsize=10\n")
	cfg, err := loadConfig([]string{configArg, "--datadir=" + t.TempDir(), "--par=5"})
	if err != nil {
		t.Fatalf("TestLoadConfigFileAndPrecedence: %s", err)
	}

	require.Equal(t, chaincfg.RegressionNetParams.Name, cfg.NetParams().Name)
	require.Equal(t, 5, cfg.ScriptWorkers)
	require.Equal(t, 10, cfg.SigCacheMaxSize)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "multiple networks", args: []string{"--testnet", "--regtest"}},
		{name: "negative par", args: []string{"--par=-1"}},
		{name: "zero dbcache", args: []string{"--dbcache=0"}},
		{name: "bad assumevalid", args: []string{"--assumevalid=xyz"}},
		{name: "profile port", args: []string{"--profile=80"}},
		{name: "override on mainnet", args: []string{"--override-deployments-file=/nonexistent"}},
		{name: "unknown flag", args: []string{"--nosuchflag"}},
	}

	for _, test := range tests {
		args := append([]string{withConfigFile(t, ""), "--datadir=" + t.TempDir()}, test.args...)
		_, err := loadConfig(args)
		if err == nil {
			t.Fatalf("TestLoadConfigErrors: %s: expected an error", test.name)
		}
	}
}

func TestAssumeValid(t *testing.T) {
	const hash = "00000000000000000000000000000000000000000000000000000000deadbeef"
	cfg, err := loadConfig([]string{withConfigFile(t, ""), "--datadir=" + t.TempDir(), "--assumevalid=" + hash})
	if err != nil {
		t.Fatalf("TestAssumeValid: %s", err)
	}
	require.Equal(t, hash, cfg.AssumeValid.String())

	cfg, err = loadConfig([]string{withConfigFile(t, ""), "--datadir=" + t.TempDir(), "--assumevalid=0"})
	if err != nil {
		t.Fatalf("TestAssumeValid: %s", err)
	}
	require.True(t, cfg.AssumeValid.IsZero())
}

func TestOverrideDeployments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments.json")
	err := os.WriteFile(path, []byte(`{"csv": {"startTime": -1}, "segwit": {"startTime": 10, "timeout": 20}}`), 0600)
	if err != nil {
		t.Fatalf("TestOverrideDeployments: %s", err)
	}

	cfg, err := loadConfig([]string{withConfigFile(t, ""), "--datadir=" + t.TempDir(), "--regtest",
		"--override-deployments-file=" + path})
	if err != nil {
		t.Fatalf("TestOverrideDeployments: %s", err)
	}

	params := cfg.NetParams()
	require.Equal(t, chaincfg.AlwaysActive, params.Deployments[chaincfg.DeploymentLockTime].StartTime)
	require.Equal(t, chaincfg.RegressionNetParams.Deployments[chaincfg.DeploymentLockTime].Timeout,
		params.Deployments[chaincfg.DeploymentLockTime].Timeout)
	require.Equal(t, int64(10), params.Deployments[chaincfg.DeploymentSegwit].StartTime)
	require.Equal(t, int64(20), params.Deployments[chaincfg.DeploymentSegwit].Timeout)

	// The global parameters are untouched.
	require.NotEqual(t, chaincfg.AlwaysActive, chaincfg.RegressionNetParams.Deployments[chaincfg.DeploymentLockTime].StartTime)

	err = os.WriteFile(path, []byte(`{"nosuchdeployment": {"startTime": 1}}`), 0600)
	if err != nil {
		t.Fatalf("TestOverrideDeployments: %s", err)
	}
	_, err = loadConfig([]string{withConfigFile(t, ""), "--datadir=" + t.TempDir(), "--regtest",
		"--override-deployments-file=" + path})
	require.Error(t, err)
}
