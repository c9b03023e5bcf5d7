// Package log configures the apex logger used for diagnostics.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
)

// LevelEnv names the environment variable holding the log level.
const LevelEnv = "CSIM_LOG"

// InitLogger sets up apex with a Handler on stderr and the level from
// CSIM_LOG. Empty or unknown levels mean ERROR.
func InitLogger() {
	level, err := log.ParseLevel(strings.ToLower(os.Getenv(LevelEnv)))
	if err != nil {
		level = log.ErrorLevel
	}
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevel(level)
}

// Handler formats entries as "<time> <level letter> <message> k=v ...".
type Handler struct {
	w   io.Writer
	now func() time.Time
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w, now: time.Now}
}

// HandleLog implements the log.Handler interface.
func (h *Handler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var sb strings.Builder
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&sb, " %s=%v", name, e.Fields.Get(name))
	}

	_, err := fmt.Fprintf(h.w, "%s %.1s %s%s\n", timestamp, level, e.Message, sb.String())
	return err
}
