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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"
)

// bannerWriter wraps w in a colorprofile.Writer so ANSI output is
// downsampled to the terminal's capabilities, or stripped entirely when
// stdout is not a terminal or NO_COLOR is set.
func bannerWriter(w io.Writer) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
		cpw.Profile = colorprofile.NoTTY
	}
	return cpw
}

// printStartupBanner renders the service name as ASCII art followed by
// the listen address. Suppressed by WithBanner(false) or TRELLIS_BANNER.
func (s *Server) printStartupBanner(addr string) {
	w := bannerWriter(os.Stdout)

	art := figure.NewFigure(s.config.serviceName, "", false)
	gradient := []string{"12", "14", "10", "11"} // Blue, Cyan, Green, Yellow

	var out strings.Builder
	for _, line := range art.Slicify() {
		if strings.TrimSpace(line) == "" {
			out.WriteString("\n")
			continue
		}
		for i, char := range line {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(gradient[i%len(gradient)])).
				Bold(true)
			out.WriteString(style.Render(string(char)))
		}
		out.WriteString("\n")
	}

	scheme := "http://"
	if s.config.secure {
		scheme = "https://"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(12).PaddingLeft(2)
	valueStyle := lipgloss.NewStyle().Bold(true)

	out.WriteString("\n")
	out.WriteString(labelStyle.Render("Address:") + "  " + valueStyle.Foreground(lipgloss.Color("10")).Render(scheme+addr) + "\n")
	out.WriteString(labelStyle.Render("Protocol:") + "  " + valueStyle.Foreground(lipgloss.Color("14")).Render(string(s.config.protocol)) + "\n")
	if s.config.metricsRegistry != nil {
		out.WriteString(labelStyle.Render("Metrics:") + "  " + valueStyle.Foreground(lipgloss.Color("13")).Render(scheme+addr+s.config.metricsPath) + "\n")
	}
	out.WriteString("\n")

	_, _ = fmt.Fprint(w, out.String()) //nolint:errcheck // Display output, errors are non-critical
}
