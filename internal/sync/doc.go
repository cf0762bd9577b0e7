// package sync implements the playback synchronization core.
//
// The [Engine] is a single control loop that polls the source service's
// playback state on a fixed period, resolves the playing track to a target
// catalog entry through the [Matcher], and drives the local audio engine
// through the [Bridge]. All session state is owned by the loop; manual match
// overrides are submitted as tasks the loop applies between ticks.
//
// Status updates use select with default so a slow consumer can never stall
// the loop.
package sync
