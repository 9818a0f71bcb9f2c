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

package types

// HandoverPhase is the phase of an in-flight handover procedure.
type HandoverPhase int

const (
	HandoverTriggered HandoverPhase = iota
	HandoverPreparing
	HandoverExecuting
	HandoverCompleting
	HandoverSucceeded
	HandoverFailed
)

func (p HandoverPhase) String() string {
	switch p {
	case HandoverTriggered:
		return "triggered"
	case HandoverPreparing:
		return "preparing"
	case HandoverExecuting:
		return "executing"
	case HandoverCompleting:
		return "completing"
	case HandoverSucceeded:
		return "succeeded"
	case HandoverFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// IsTerminal reports whether the phase is a final one.
func (p HandoverPhase) IsTerminal() bool {
	return p == HandoverSucceeded || p == HandoverFailed
}

// HandoverCause is the reason a handover procedure was started.
type HandoverCause int

const (
	CauseCoverage HandoverCause = iota
	CauseQosDegradation
	CauseLoadBalancing
	CauseInterference
	CauseUserPreference
)

func (c HandoverCause) String() string {
	switch c {
	case CauseCoverage:
		return "coverage"
	case CauseQosDegradation:
		return "qos_degradation"
	case CauseLoadBalancing:
		return "load_balancing"
	case CauseInterference:
		return "interference"
	case CauseUserPreference:
		return "user_preference"
	default:
		return "invalid"
	}
}

// ParseHandoverCause maps a cause name to its value; unknown names map to
// CauseUserPreference, the cause used for operator-requested handovers.
func ParseHandoverCause(s string) HandoverCause {
	switch s {
	case "coverage":
		return CauseCoverage
	case "qos_degradation":
		return CauseQosDegradation
	case "load_balancing":
		return CauseLoadBalancing
	case "interference":
		return CauseInterference
	default:
		return CauseUserPreference
	}
}
