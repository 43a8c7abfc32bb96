// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package logpipe

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/yuno-tw/stb-api/internal/model"
	"github.com/yuno-tw/stb-api/internal/timeutil"
)

var (
	grayText  = color.New(color.FgHiBlack).SprintFunc()
	cyanText  = color.New(color.FgCyan).SprintFunc()
	greenText = color.New(color.FgGreen).SprintFunc()
	blueText  = color.New(color.FgBlue).SprintFunc()
	redText   = color.New(color.FgRed).SprintFunc()
)

func nowText() string {
	return timeutil.Now()
}

// show prints the live console view for a normalized event. Categories
// outside the debug allowlist are suppressed; the wildcard passes
// everything and errors always pass.
func (p *Pipeline) show(l *model.Log) {
	if l.Type != model.LogTypeError && !p.debugAll && !p.debug[l.Type] {
		return
	}

	ts := grayText(timeutil.Format(l.CreatedAt))
	user := ""
	if l.OperatorUserID.Valid {
		user = cyanText(fmt.Sprintf("User#%d", l.OperatorUserID.Int64))
	}

	var message string
	switch l.Type {
	case model.LogTypeInfo:
		message = greenText(l.Message)
	case model.LogTypeSystem:
		message = blueText(l.Message)
	case model.LogTypeError:
		message = redText(l.Message)
	default:
		message = grayText(l.Message)
	}

	if user != "" {
		fmt.Fprintln(p.cfg.Output, ts, user, message)
		return
	}
	fmt.Fprintln(p.cfg.Output, ts, message)
}
