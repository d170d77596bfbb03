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

// Package server wires a transport (HTTP/1.1 or HTTP/2, plain or TLS) to
// a handler and a logger, and owns graceful shutdown.
//
// Shutdown is driven by an explicit coordinator owning the active-session
// set: open transport sessions are tracked through [http.Server] ConnState
// callbacks, and a single InitiateShutdown(exitCode) operation moves the
// process through Running → ShuttingDown → Stopped. SIGINT and SIGTERM
// are thin adapters calling that operation with exit code 0; fatal server
// errors call it with exit code 1. During ShuttingDown, idle sessions are
// closed immediately and re-swept every poll interval; in-flight ones are
// left to finish. The process terminates only once the listener reports
// fully closed.
//
// Configuration combines functional options with environment overrides
// (HOST, PORT, LOG_LEVEL, LOG_FORMAT, NO_COLOR, PROTOCOL, SECURE, and TLS
// file paths); a .env file is honored when present.
package server
