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

package server

import "errors"

var (
	// ErrNilHandler is returned when a server is constructed without a
	// handler.
	ErrNilHandler = errors.New("server: handler cannot be nil")

	// ErrInvalidProtocol is returned for protocol selectors other than
	// "http1.1" and "http2".
	ErrInvalidProtocol = errors.New("server: invalid protocol")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("server: already running")
)
