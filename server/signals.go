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

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/trellis-dev/trellis/logging"
)

// notifySignals wires SIGINT and SIGTERM to the coordinator. It is a
// thin adapter: the coordinator stays independently testable without
// sending real process signals. The returned stop function unregisters
// the handler.
func notifySignals(coord *Coordinator, logger *logging.Logger) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		logger.Info("signal received", "event", "signal", "signal", sig.String())
		coord.InitiateShutdown(0)
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
