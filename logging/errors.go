// Copyright 2026 The Trellis Authors
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

package logging

import "errors"

var (
	// ErrNilOutput is returned when a logger is configured without an
	// output writer.
	ErrNilOutput = errors.New("logging: output writer cannot be nil")

	// ErrInvalidHandler is returned when an unknown handler type is
	// configured.
	ErrInvalidHandler = errors.New("logging: invalid handler type")

	// ErrInvalidLevel is returned by ParseLevel for unrecognized level
	// names.
	ErrInvalidLevel = errors.New("logging: invalid level name")
)
