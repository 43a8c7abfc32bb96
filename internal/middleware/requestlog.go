// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package middleware

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/yuno-tw/stb-api/internal/timeutil"
)

var (
	statusGreen  = color.New(color.FgGreen).SprintFunc()
	statusCyan   = color.New(color.FgCyan).SprintFunc()
	statusYellow = color.New(color.FgYellow).SprintFunc()
	statusRed    = color.New(color.FgRed).SprintFunc()
	dimText      = color.New(color.FgHiBlack).SprintFunc()
)

func colorStatus(code int) string {
	s := fmt.Sprintf("%d", code)
	switch {
	case code >= 500:
		return statusRed(s)
	case code >= 400:
		return statusYellow(s)
	case code >= 300:
		return statusCyan(s)
	default:
		return statusGreen(s)
	}
}

// RequestLogger prints one line per request with a status-colored code
// and elapsed time. Output defaults to stdout.
func RequestLogger(out io.Writer) func(http.Handler) http.Handler {
	if out == nil {
		out = os.Stdout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fmt.Fprintln(out,
				dimText(timeutil.Now()),
				r.Method,
				r.URL.RequestURI(),
				colorStatus(ww.Status()),
				dimText(fmt.Sprintf("%dB", ww.BytesWritten())),
				dimText(time.Since(start).Round(100*time.Microsecond).String()),
			)
		})
	}
}
