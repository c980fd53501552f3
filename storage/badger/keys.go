package badger

import (
	"github.com/poiesic/lineembed/core"
	"github.com/poiesic/lineembed/storage"
)

// Key prefixes for different data types
const (
	runReportPrefix       = "runrep:"
	runReportStatusPrefix = "runrepst:"
)

// makeRunReportKey generates a key for a run report by input path ID.
// Format: prefix + id (8 bytes big-endian)
func makeRunReportKey(id core.ID) []byte {
	return append([]byte(runReportPrefix), storage.MarshalID(id)...)
}

// makeRunReportStatusKey generates a composite key for the status index.
// Format: prefix + status byte + id (8 bytes big-endian)
func makeRunReportStatusKey(status core.RunStatus, id core.ID) []byte {
	key := makePartialRunReportStatusKey(status)
	return append(key, storage.MarshalID(id)...)
}

// makePartialRunReportStatusKey generates a partial key for status queries.
func makePartialRunReportStatusKey(status core.RunStatus) []byte {
	key := make([]byte, 0, len(runReportStatusPrefix)+9)
	key = append(key, runReportStatusPrefix...)
	return append(key, byte(status))
}
