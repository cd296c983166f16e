package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"reprompt/internal/assistant"
	"reprompt/internal/config"
	"reprompt/internal/editor"
	"reprompt/internal/journal"
	"reprompt/internal/llm"
	"reprompt/internal/prompt"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	genOffset int
	genLine   int
	genColumn int
	genSelect string
	genModel  string
	genWrite  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate FILE",
	Short: "Generate a reverse prompt for a position in a file",
	Long: `Extracts the section of FILE that ends at the cursor, asks the configured
model for one question about it and streams the text that would be inserted
to stdout. With --write the file is updated in place.

The cursor defaults to the end of the file. It can be given as a byte
--offset, or as a zero-based --line and --column.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&genOffset, "offset", -1, "Cursor as a byte offset")
	generateCmd.Flags().IntVar(&genLine, "line", -1, "Cursor line (zero-based)")
	generateCmd.Flags().IntVar(&genColumn, "column", 0, "Cursor column in UTF-16 code units (zero-based)")
	generateCmd.Flags().StringVar(&genSelect, "select", "", "Use the text between two byte offsets, START:END, as context")
	generateCmd.Flags().StringVar(&genModel, "model", "", "Override the configured model")
	generateCmd.Flags().BoolVarP(&genWrite, "write", "w", false, "Write the result back to FILE")
	generateCmd.MarkFlagsMutuallyExclusive("offset", "line")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	file := args[0]

	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}
	settings, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if genModel != "" {
		settings.Model = genModel
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	text := string(data)

	buf := editor.NewBuffer(text)
	if err := placeCursor(buf, text); err != nil {
		return err
	}

	a := assistant.New(llm.NewDefault(), cliNotifier{
		LogNotifier: prompt.LogNotifier{Log: commonlog.GetLogger("reprompt")},
		out:         cmd.ErrOrStderr(),
	})
	if err := a.Configure(settings); err != nil {
		return err
	}
	if settings.Journal {
		if j, err := openJournal(); err != nil {
			commonlog.GetLogger("reprompt").Warningf("journal disabled: %v", err)
		} else {
			defer j.Close()
			a.SetRecorder(j)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	abs, _ := filepath.Abs(file)
	ed := &teeEditor{Buffer: buf, out: cmd.OutOrStdout()}
	if _, err := a.ReversePrompt(ctx, ed, assistant.Source{URI: "file://" + abs, Path: file}); err != nil {
		return reportedError{err}
	}

	if genWrite {
		info, err := os.Stat(file)
		if err != nil {
			return err
		}
		return os.WriteFile(file, []byte(buf.Text()), info.Mode().Perm())
	}
	return nil
}

func placeCursor(buf *editor.Buffer, text string) error {
	switch {
	case genOffset >= 0:
		if genOffset > len(text) {
			return fmt.Errorf("offset %d is past the end of the file (%d bytes)", genOffset, len(text))
		}
		buf.SetCursor(editor.OffsetToPosition(text, genOffset))
	case genLine >= 0:
		buf.SetCursor(protocol.Position{Line: protocol.UInteger(genLine), Character: protocol.UInteger(genColumn)})
	default:
		buf.SetCursor(editor.OffsetToPosition(text, len(text)))
	}

	if genSelect == "" {
		return nil
	}
	start, end, err := parseSelection(genSelect, len(text))
	if err != nil {
		return err
	}
	buf.Select(protocol.Range{
		Start: editor.OffsetToPosition(text, start),
		End:   editor.OffsetToPosition(text, end),
	})
	return nil
}

func parseSelection(s string, size int) (int, int, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid selection %q, want START:END", s)
	}
	start, err := strconv.Atoi(from)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid selection start: %w", err)
	}
	end, err := strconv.Atoi(to)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid selection end: %w", err)
	}
	if start < 0 || end < start || end > size {
		return 0, 0, fmt.Errorf("selection %d:%d is outside the file (%d bytes)", start, end, size)
	}
	return start, end, nil
}

func openJournal() (*journal.Journal, error) {
	dir, err := config.StateDir()
	if err != nil {
		return nil, err
	}
	return journal.OpenDir(dir)
}

// cliNotifier prints warnings and errors on stderr. Progress goes to the log.
type cliNotifier struct {
	prompt.LogNotifier
	out io.Writer
}

func (n cliNotifier) Warn(message string)  { fmt.Fprintf(n.out, "warning: %s\n", message) }
func (n cliNotifier) Error(message string) { fmt.Fprintf(n.out, "error: %s\n", message) }

// teeEditor echoes every insertion to out as it happens.
type teeEditor struct {
	*editor.Buffer
	out io.Writer
}

func (e *teeEditor) InsertAtCursor(ctx context.Context, text string) error {
	if err := e.Buffer.InsertAtCursor(ctx, text); err != nil {
		return err
	}
	_, err := io.WriteString(e.out, text)
	return err
}
