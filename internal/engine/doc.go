// Package engine implements the fieldwatch round-execution model.
//
// The engine runs one logically independent sequential process per device.
// Devices never share memory; the only channel between them is the Export a
// device seals at the end of each round, which the network delivers into the
// retention stores of the devices currently in communication range.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// The network processes all wake events in a single goroutine for
// deterministic behavior. This ensures:
// - Rounds of the same device are strictly ordered by its wake sequence
// - A device never runs two rounds concurrently with itself
// - The same seed reproduces the same simulation, event for event
//
// Round Execution Flow:
// 1. The scheduler fires a wake event for a device
// 2. The device takes a retention snapshot (neighbor exports received since
//    its last round, bounded by age)
// 3. The program body runs once against a fresh Context: neighbor folds,
//    recurrence cells, storage writes
// 4. The round's Export is sealed and broadcast to devices in range
// 5. The device's next wake is drawn from its private schedule
//
// All uncertainty (message loss, delay, churn) lives in the data model:
// retention entries expire by age and recurrence cells fall back to explicit
// defaults on a device's first round. No operation inside a round blocks on
// I/O and no error surfaces during steady-state execution; malformed
// configuration is rejected before any round runs.
//
// State keying:
// Every recurrence cell is addressed by (site, partition key). Sites are
// allocated once per program point on a Program, so two distinct program
// points can never collide; WithPartition extends the key so the same site
// evaluated under different partition keys never shares state.
package engine
