// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/poiesic/lineembed/core"
)

// MarshalID serializes an ID to 8 big-endian bytes so keys sort numerically.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalRunReport serializes a RunReport to bytes.
func MarshalRunReport(report *core.RunReport) ([]byte, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRunReport deserializes a RunReport from bytes.
func UnmarshalRunReport(data []byte) (*core.RunReport, error) {
	var report core.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &report, nil
}
