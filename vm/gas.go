package vm

// Fixed per-opcode gas costs, trimmed to the Frontier-through-Cancun
// subset this engine implements. EIPs that change a constant over time
// (SLOAD/SSTORE/cold-access/EXP-byte) are handled by the dynamic gas
// functions in gas_table.go, not here.
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20

	GasZero        uint64 = 0
	GasBase        uint64 = 2
	GasVeryLow     uint64 = 3
	GasLow         uint64 = 5
	GasMid         uint64 = 8
	GasHigh        uint64 = 10
	GasExtCode     uint64 = 20  // pre-Tangerine Whistle EXTCODESIZE
	GasBalance     uint64 = 20  // pre-Tangerine Whistle BALANCE
	GasSLoad       uint64 = 50  // pre-Tangerine Whistle SLOAD
	GasJumpDest    uint64 = 1
	GasCreate      uint64 = 32000
	GasCreateData  uint64 = 200 // per byte of deployed code, EIP-170 era
	GasCall        uint64 = 40  // pre-Tangerine Whistle CALL
	GasCallValue   uint64 = 9000
	GasCallStipend uint64 = 2300
	GasNewAccount  uint64 = 25000
	GasExp         uint64 = 10
	GasMemory      uint64 = 3
	GasLog         uint64 = 375
	GasLogData     uint64 = 8
	GasLogTopic    uint64 = 375
	GasKeccak256   uint64 = 30
	GasKeccak256Word uint64 = 6
	GasCopy        uint64 = 3 // per word, CALLDATACOPY/CODECOPY/RETURNDATACOPY
	GasSelfdestruct uint64 = 0 // pre-Tangerine Whistle

	// Post-Tangerine Whistle (EIP-150) repricing.
	GasExtCodeEIP150     uint64 = 700
	GasBalanceEIP150     uint64 = 400
	GasSLoadEIP150       uint64 = 200
	GasCallEIP150        uint64 = 700
	GasSelfdestructEIP150 uint64 = 5000

	// Post-Istanbul (EIP-1884) repricing.
	GasBalanceEIP1884 uint64 = 700
	GasSLoadEIP1884   uint64 = 800
	GasExtCodeHash    uint64 = 700

	// Post-Berlin (EIP-2929) cold/warm access costs; see gas_table.go for
	// the stateful logic that picks between these.
	ColdAccountAccessCost uint64 = 2600
	ColdSloadCost         uint64 = 2100
	WarmStorageReadCost   uint64 = 100

	// EIP-2200 SSTORE net-gas-metering constants (Istanbul/Berlin+).
	SstoreSetGas       uint64 = 20000
	SstoreResetGas     uint64 = 5000
	SstoreClearRefund  uint64 = 4800 // EIP-3529 reduced refund (post-London)
	SstoreClearRefundPreLondon uint64 = 15000
	SstoreSetGasPreEIP2200    uint64 = 20000
	SstoreResetGasPreEIP2200  uint64 = 5000

	SelfdestructRefundPreEIP3529 uint64 = 24000

	MaxRefundQuotient uint64 = 2 // pre-London divisor, see params.ForkRules.RefundDivisor
)
