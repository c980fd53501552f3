package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Vector is a dense embedding. Its contents are opaque to the pipeline.
// Provider values are narrowed to float32 when decoded: extra precision is
// lost, values below the float32 range become 0, and values above it are
// rejected as a malformed response.
type Vector []float32

// Snapshot is a point-in-time copy of a run's progress, safe to hand to observers.
type Snapshot struct {
	RunID         string    `json:"run_id"`
	Status        RunStatus `json:"status"`
	Progress      int       `json:"progress"` // 0-100
	Processed     int       `json:"processed"`
	Skipped       int       `json:"skipped"`
	Errors        int       `json:"errors"`
	TotalBytes    int64     `json:"total_bytes"`
	ConsumedBytes int64     `json:"consumed_bytes"`
	Error         string    `json:"error,omitempty"`
}

// RunReport is the ledger entry recorded for one run over an input file.
// It never carries embeddings.
type RunReport struct {
	Id            ID        `json:"id"` // IDFromContent(InputPath)
	RunID         string    `json:"run_id"`
	InputPath     string    `json:"input_path"`
	OutputPath    string    `json:"output_path"`
	Status        RunStatus `json:"status"`
	Processed     int       `json:"processed"`
	Skipped       int       `json:"skipped"`
	Errors        int       `json:"errors"`
	TotalBytes    int64     `json:"total_bytes"`
	ConsumedBytes int64     `json:"consumed_bytes"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitzero"`
}

// NewRunReport creates a pending report for the given input and output paths.
func NewRunReport(runID, inputPath, outputPath string) *RunReport {
	return &RunReport{
		Id:         IDFromContent(inputPath),
		RunID:      runID,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Status:     StatusPending,
	}
}

// Apply copies the counters and status of a snapshot into the report.
func (r *RunReport) Apply(s Snapshot) {
	r.Status = s.Status
	r.Processed = s.Processed
	r.Skipped = s.Skipped
	r.Errors = s.Errors
	r.TotalBytes = s.TotalBytes
	r.ConsumedBytes = s.ConsumedBytes
	r.Error = s.Error
}
