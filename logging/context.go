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

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Field names for trace correlation, following OpenTelemetry log
// conventions.
const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// FromContext returns a Logger that correlates entries with the active
// OpenTelemetry span in ctx, if any. When the context carries a valid
// span, every entry from the returned Logger includes trace_id and
// span_id attributes; otherwise the original Logger is returned as-is.
//
// Handlers running under tracing middleware should prefer this over the
// bare injected logger so log lines can be joined to traces.
func FromContext(ctx context.Context, l *Logger) *Logger {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !sc.IsValid() {
		return l
	}
	return l.With(
		fieldTraceID, sc.TraceID().String(),
		fieldSpanID, sc.SpanID().String(),
	)
}
