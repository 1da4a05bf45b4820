/*
Package ports defines the driven ports (interfaces) of the Tonnetz service.

These interfaces decouple the selection logic from external implementations, allowing
sessions to be kept in memory or in Redis and notes to be played on any output.

# Key Interfaces

  - SelectionStore: Responsible for persisting and loading session Selections.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - Player: Triggers a note on an audio or MIDI output.
*/
package ports
