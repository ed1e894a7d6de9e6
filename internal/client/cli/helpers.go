package cli

import (
	"bytes"
	"encoding/json"
	"flag"
	"strings"
	"time"

	"github.com/iudanet/gophsync/internal/models"
)

// newFlagSet создает набор флагов команды, ошибки разбора пишутся в c.io
func (c *Cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.io)
	return fs
}

// formatData возвращает данные документа с отступами
func formatData(data json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

// preview однострочное сокращенное представление данных для списков
func preview(data json.RawMessage, limit int) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		buf.Reset()
		buf.Write(data)
	}
	s := strings.ReplaceAll(buf.String(), "\n", " ")
	if len([]rune(s)) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func typeOrDash(doc *models.Document) string {
	if doc.Type == "" {
		return "-"
	}
	return doc.Type
}
