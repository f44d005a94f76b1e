package chaincfg

import "github.com/pkg/errors"

// ConsensusDeployment defines details related to a specific consensus rule
// change that is voted in. This is part of BIP0009.
type ConsensusDeployment struct {
	// BitNumber defines the specific bit number within the block version
	// this particular soft-fork deployment refers to.
	BitNumber uint8

	// StartTime is the median block time after which voting on the
	// deployment starts.
	StartTime int64

	// Timeout is the median block time after which the attempted
	// deployment expires.
	Timeout int64
}

// AlwaysActive is a deployment start time that makes the deployment active
// from genesis without signalling. Only overridable networks use it.
const AlwaysActive int64 = -1

// Constants that define the deployment offset in the deployments field of the
// parameters for each deployment. This is useful to be able to get the details
// of a specific deployment by name.
const (
	// DeploymentTestDummy defines the rule change deployment ID for testing
	// purposes.
	DeploymentTestDummy = iota

	// DeploymentLockTime defines the rule change deployment ID for relative
	// lock times (BIP0068, BIP0112) and median time past lock times
	// (BIP0113).
	DeploymentLockTime

	// DeploymentSegwit defines the rule change deployment ID for segregated
	// witness (BIP0141, BIP0143, BIP0147).
	DeploymentSegwit

	// DeploymentFinalTx defines the rule change deployment ID for the
	// block-final miner commitment transaction.
	DeploymentFinalTx

	// NOTE: DefinedDeployments must always come last since it is used to
	// determine how many defined deployments there currently are.

	// DefinedDeployments is the number of currently defined deployments.
	DefinedDeployments
)

var deploymentNames = [DefinedDeployments]string{
	DeploymentTestDummy: "testdummy",
	DeploymentLockTime:  "csv",
	DeploymentSegwit:    "segwit",
	DeploymentFinalTx:   "finaltx",
}

// DeploymentName returns the name deployment is known by in configuration.
func DeploymentName(deployment int) string {
	if deployment < 0 || deployment >= DefinedDeployments {
		return "unknown"
	}
	return deploymentNames[deployment]
}

// DeploymentByName returns the deployment ID called name.
func DeploymentByName(name string) (int, error) {
	for deployment, deploymentName := range deploymentNames {
		if deploymentName == name {
			return deployment, nil
		}
	}
	return 0, errors.Errorf("unknown deployment %q", name)
}

// UpdateBIP9Parameters changes the signalling window of deployment. Only
// networks meant for testing allow it, and it must happen before the params
// are handed to consensus.
func (p *Params) UpdateBIP9Parameters(deployment int, startTime, timeout int64) error {
	if !p.deploymentsOverridable {
		return errors.Errorf("deployment parameters of network %s cannot be overridden", p.Name)
	}
	if deployment < 0 || deployment >= DefinedDeployments {
		return errors.Errorf("deployment %d is out of range", deployment)
	}
	p.Deployments[deployment].StartTime = startTime
	p.Deployments[deployment].Timeout = timeout
	return nil
}
