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

// Package logging provides leveled, structured logging for the Trellis
// toolkit, built on [log/slog] with two render strategies:
//
//   - JSON: one JSON object per entry, intended for log aggregation
//   - Console: human-readable "[timestamp] LEVEL (event): message" lines
//     with optional ANSI colorization
//
// Two levels are added on top of slog's four: Trace (below Debug) and
// Fatal (above Error). Fatal only marks severity; process termination is
// owned by the server's shutdown coordinator, never by the logger.
//
// Loggers are explicit values constructed once from configuration and
// injected into the router, the tree builder, and request handlers. There
// is no package-level default and no global mutable state.
//
// Example:
//
//	logger := logging.MustNew(
//	    logging.WithConsoleHandler(),
//	    logging.WithLevel(logging.LevelDebug),
//	    logging.WithServiceName("machines-api"),
//	)
//	logger.Info("server starting", "address", ":8080")
package logging
