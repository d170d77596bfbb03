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

import "time"

// statusColor returns the ANSI color for an HTTP status code on a
// request-completion line: green below 400, yellow for client errors,
// red for server errors.
func statusColor(code int) string {
	switch {
	case code >= 500:
		return colorRed
	case code >= 400:
		return colorYellow
	default:
		return colorGreen
	}
}

// durationColor returns the ANSI color for a request duration:
// green under 500ms, yellow under 1s, red at or above 1s.
func durationColor(d time.Duration) string {
	switch {
	case d >= time.Second:
		return colorRed
	case d >= 500*time.Millisecond:
		return colorYellow
	default:
		return colorGreen
	}
}
