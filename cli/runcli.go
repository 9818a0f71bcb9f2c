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
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ransim/ransim/logger"
)

// CliHandler executes one console command line and renders its output.
type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

// CliOptions configures the interactive console. Nil Stdin/Stdout fall back
// to the process streams.
type CliOptions struct {
	EchoInput bool
	Stdin     *os.File
	Stdout    *os.File
}

func DefaultCliOptions() *CliOptions {
	return &CliOptions{}
}

func (opt *CliOptions) withDefaults() *CliOptions {
	if opt == nil {
		opt = DefaultCliOptions()
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	return opt
}

// Console is the interactive command console. A single instance exists per
// process, see Cli.
type Console struct {
	Started chan struct{}
	Options *CliOptions

	rl     *readline.Instance
	closed chan struct{}
}

// Cli is the console singleton.
var Cli = &Console{
	Started: make(chan struct{}),
	closed:  make(chan struct{}),
}

// RestorePrompt redraws the prompt line, after other output disturbed it.
func (cli *Console) RestorePrompt() {
	if cli.rl != nil {
		cli.rl.Refresh()
	}
}

// OnStdout implements logger.StdoutCallback, so that log lines written to the
// terminal do not leave a stale prompt behind.
func (cli *Console) OnStdout() {
	cli.RestorePrompt()
}

// Stop ends a running Run() call from another goroutine and waits for it to
// return.
func (cli *Console) Stop() {
	<-cli.Started
	// Closing the readline instance from here can block, see
	// https://github.com/chzyer/readline/issues/217. Write an ETX byte so the
	// pending Readline() returns, then close stdin; Run() owns the Close().
	_, _ = cli.Options.Stdin.WriteString("\003\n")
	_ = cli.Options.Stdin.Close()
	logger.Tracef("waiting for console to stop ...")
	<-cli.closed
}

// Run reads command lines until EOF, interrupt or a handler error, blocking
// the calling goroutine. The Started channel is closed once the console
// accepts input.
func (cli *Console) Run(handler CliHandler, options *CliOptions) error {
	defer logger.Debugf("console exit.")
	defer close(cli.closed)

	cli.Options = options.withDefaults()

	for _, f := range []*os.File{cli.Options.Stdin, cli.Options.Stdout} {
		restore, err := keepTermState(f)
		if err != nil {
			close(cli.Started)
			return err
		}
		defer restore()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            handler.GetPrompt(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             cli.Options.Stdin,
		Stdout:            cli.Options.Stdout,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			return r, r != readline.CharCtrlZ // no shell job control
		},
	})
	if err != nil {
		close(cli.Started)
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	cli.rl = rl
	logger.SetStdoutCallback(cli)
	defer logger.SetStdoutCallback(nil)
	close(cli.Started)

	for {
		rl.SetPrompt(handler.GetPrompt())
		line, err := rl.Readline()

		switch {
		case len(line) > 0 && line[0] == readline.CharInterrupt:
			return nil // ETX sent by Stop()
		case errors.Is(err, readline.ErrInterrupt):
			if len(line) == 0 {
				return nil
			}
			continue // Ctrl-C in a midline edit only drops that line
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if cli.Options.EchoInput {
			if _, err := cli.Options.Stdout.WriteString(line + "\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 {
			continue
		}
		if err := handler.HandleCommand(cmd, rl.Stdout()); err != nil {
			_ = cli.Options.Stdout.Sync()
			return err
		}
		_ = cli.Options.Stdout.Sync()
	}
}

// keepTermState snapshots the terminal state of f, returning a restore
// function. Non-terminal files restore to a no-op.
func keepTermState(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !readline.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := readline.GetState(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		_ = readline.Restore(fd, state)
	}, nil
}
