// Copyright (c) 2025, The RANSIM Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

// The console help text lives in README.md, one "### <command>" section per
// command, and is embedded so the binary is self-describing.
//
//go:embed README.md
var helpSource string

const fallbackTermWidth = 80

var (
	sectionPattern = regexp.MustCompile(`^### (\S+)`)
	mdLinkPattern  = regexp.MustCompile(`\(#[a-z]+\)`)
)

type helpTopic struct {
	name  string
	short string // first sentence, for the command overview
	text  string // full section text
}

// Help renders command help parsed from the embedded README.
type Help struct {
	topics map[string]*helpTopic
}

func newHelp() Help {
	h := Help{topics: make(map[string]*helpTopic)}
	h.parse(helpSource)
	return h
}

// outputGeneralHelp lists every command with its one-line summary.
func (help *Help) outputGeneralHelp() string {
	names := make([]string, 0, len(help.topics))
	width := 0
	for name := range help.topics {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("%-*s  %s\n", width, name, help.topics[name].short))
	}
	sb.WriteString("\nFor detailed help per command, use: 'help <command>'\n")
	return sb.String()
}

// outputCommandHelp renders the full help section of one command, wrapped to
// the current terminal width.
func (help *Help) outputCommandHelp(command string) string {
	topic, ok := help.topics[command]
	if !ok {
		return fmt.Sprintf("unknown command: %s\n", command)
	}

	var sb strings.Builder
	sb.WriteString(topic.name + "\n")
	wrapped := wordwrap.WrapString(topic.text, terminalWidth()-4)
	for _, line := range strings.Split(wrapped, "\n") {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

// parse splits the markdown help source into per-command topics. Bash fences
// become examples, shell fences become the command definition.
func (help *Help) parse(src string) {
	var topic *helpTopic
	indent := ""
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if m := sectionPattern.FindStringSubmatch(line); m != nil {
			topic = &helpTopic{name: m[1]}
			help.topics[topic.name] = topic
			indent = ""
			continue
		}
		if topic == nil {
			continue
		}

		switch line {
		case "```shell":
			topic.text += "\nDefinition:\n"
			indent = "  "
			continue
		case "```bash":
			topic.text += "\nExample:\n"
			indent = "  "
			continue
		case "```":
			indent = ""
			continue
		}

		line = plainText(line)
		topic.text += indent + line + "\n"
		if topic.short == "" && indent == "" {
			topic.short = firstSentence(line)
		}
	}
}

// plainText strips the markdown escapes and link targets from a help line.
func plainText(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	return mdLinkPattern.ReplaceAllString(md, "")
}

func firstSentence(s string) string {
	if idx := strings.Index(s, "."); idx > 0 {
		return s[:idx+1]
	}
	return s
}

func terminalWidth() uint {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if width, _, err := term.GetSize(fd); err == nil && width > 8 {
			return uint(width)
		}
	}
	return fallbackTermWidth
}
