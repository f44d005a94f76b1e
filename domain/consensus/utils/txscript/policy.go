package txscript

const (
	// MandatoryVerifyFlags are the flags every block has enforced since
	// pay-to-script-hash. A transaction failing them is invalid, not
	// merely non-standard.
	MandatoryVerifyFlags = ScriptBip16

	// StandardVerifyFlags are the script flags which are used when
	// executing transaction scripts to enforce additional checks which
	// are required for the script to be considered standard. These checks
	// help reduce issues related to transaction malleability as well as
	// allow pay-to-script hash transactions. Note these flags are
	// different than what is required for the consensus rules in that they
	// are more strict.
	StandardVerifyFlags = MandatoryVerifyFlags |
		ScriptVerifyDERSignatures |
		ScriptVerifyStrictEncoding |
		ScriptVerifyMinimalData |
		ScriptVerifyNullDummy |
		ScriptDiscourageUpgradableNops |
		ScriptVerifyCleanStack |
		ScriptVerifyCheckLockTimeVerify |
		ScriptVerifyCheckSequenceVerify |
		ScriptVerifyLowS |
		ScriptVerifyWitness |
		ScriptVerifyDiscourageUpgradeableWitnessProgram |
		ScriptVerifyMinimalIf |
		ScriptVerifyNullFail |
		ScriptVerifyWitnessPubKeyType
)
