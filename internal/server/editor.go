package server

import (
	"context"
	"fmt"
	"sync"

	"reprompt/internal/editor"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// notifier shows messages with window/showMessage once a client is
// attached, and logs them in any case.
type notifier struct {
	mu     sync.Mutex
	notify glsp.NotifyFunc
}

func (n *notifier) attach(notify glsp.NotifyFunc) {
	if notify == nil {
		return
	}
	n.mu.Lock()
	n.notify = notify
	n.mu.Unlock()
}

func (n *notifier) show(kind protocol.MessageType, message string) {
	n.mu.Lock()
	notify := n.notify
	n.mu.Unlock()
	if notify == nil {
		return
	}
	notify("window/showMessage", protocol.ShowMessageParams{
		Type:    kind,
		Message: message,
	})
}

func (n *notifier) Info(message string) {
	log.Info(message)
	n.show(protocol.MessageTypeInfo, message)
}

func (n *notifier) Warn(message string) {
	log.Warning(message)
	n.show(protocol.MessageTypeWarning, message)
}

func (n *notifier) Error(message string) {
	log.Error(message)
	n.show(protocol.MessageTypeError, message)
}

// lspEditor is a snapshot of an open document. The cursor is tracked
// locally; every insertion is sent to the client as a workspace edit and
// mirrored into the snapshot.
type lspEditor struct {
	*editor.Buffer
	uri  protocol.DocumentUri
	call glsp.CallFunc
}

func newLSPEditor(uri protocol.DocumentUri, text string, call glsp.CallFunc) *lspEditor {
	return &lspEditor{
		Buffer: editor.NewBuffer(text),
		uri:    uri,
		call:   call,
	}
}

func (e *lspEditor) InsertAtCursor(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pos := e.Cursor()
	label := "Reverse prompt"
	params := protocol.ApplyWorkspaceEditParams{
		Label: &label,
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				e.uri: {{
					Range:   protocol.Range{Start: pos, End: pos},
					NewText: text,
				}},
			},
		},
	}

	// The response is read by the same loop that dispatches requests, so a
	// pending edit must not hold the run once ctx is done.
	result := make(chan protocol.ApplyWorkspaceEditResponse, 1)
	go func() {
		var response protocol.ApplyWorkspaceEditResponse
		e.call("workspace/applyEdit", params, &response)
		result <- response
	}()

	var response protocol.ApplyWorkspaceEditResponse
	select {
	case response = <-result:
	case <-ctx.Done():
		return ctx.Err()
	}

	if !response.Applied {
		reason := "rejected by client"
		if response.FailureReason != nil {
			reason = *response.FailureReason
		}
		return fmt.Errorf("failed to edit %s: %s", e.uri, reason)
	}
	return e.Buffer.InsertAtCursor(ctx, text)
}
