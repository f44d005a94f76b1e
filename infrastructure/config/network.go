package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet                 bool   `long:"testnet" description:"Use the test network"`
	RegressionTest          bool   `long:"regtest" description:"Use the regression test network"`
	OverrideDeploymentsFile string `long:"override-deployments-file" description:"Overrides the version bits deployment windows from a JSON file (allowed only on regtest)"`

	activeNetParams *chaincfg.Params
}

// deploymentWindow is a single entry of the override deployments file,
// keyed by deployment name.
type deploymentWindow struct {
	StartTime *int64 `json:"startTime"`
	Timeout   *int64 `json:"timeout"`
}

// ResolveNetwork parses the network command line argument and sets NetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// The parameters are copied so that overrides stay local to this
	// configuration.
	params := chaincfg.MainnetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = chaincfg.TestnetParams
	}
	if networkFlags.RegressionTest {
		numNets++
		params = chaincfg.RegressionNetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	networkFlags.activeNetParams = &params

	err := networkFlags.overrideDeployments()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// NetParams returns the parameters of the selected network.
func (networkFlags *NetworkFlags) NetParams() *chaincfg.Params {
	return networkFlags.activeNetParams
}

func (networkFlags *NetworkFlags) overrideDeployments() error {
	if networkFlags.OverrideDeploymentsFile == "" {
		return nil
	}
	if !networkFlags.RegressionTest {
		return errors.New("override-deployments-file is allowed only when using regtest")
	}

	overrideFile, err := os.Open(networkFlags.OverrideDeploymentsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideFile.Close()

	windows := make(map[string]deploymentWindow)
	decoder := json.NewDecoder(overrideFile)
	decoder.DisallowUnknownFields()
	err = decoder.Decode(&windows)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", networkFlags.OverrideDeploymentsFile)
	}

	for name, window := range windows {
		deployment, err := chaincfg.DeploymentByName(name)
		if err != nil {
			return err
		}
		current := networkFlags.activeNetParams.Deployments[deployment]
		startTime, timeout := current.StartTime, current.Timeout
		if window.StartTime != nil {
			startTime = *window.StartTime
		}
		if window.Timeout != nil {
			timeout = *window.Timeout
		}
		err = networkFlags.activeNetParams.UpdateBIP9Parameters(deployment, startTime, timeout)
		if err != nil {
			return err
		}
	}
	return nil
}
