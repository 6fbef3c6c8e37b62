package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
	"github.com/vexsearch/vexdb/internal/write"
	"github.com/vexsearch/vexdb/pkg/api"
)

// errorOutput mirrors the API error reply.
type errorOutput struct {
	OK       int    `json:"ok"`
	Code     int32  `json:"code"`
	CodeName string `json:"codeName"`
	ErrMsg   string `json:"errmsg"`
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read "+path, err)
	}
	return data, nil
}

// writeBatch prints the canonical command of b. Text output is the command
// alone as relaxed extended JSON; json output is the API batch summary.
func writeBatch(w io.Writer, format string, b write.Batch, transport string) error {
	cmd, err := write.CommandRaw(b)
	if err != nil {
		return WrapExitError(ExitFailure, "render command", err)
	}
	rendered := document.ToExtJSON(cmd)
	if format != "json" {
		_, err := fmt.Fprintln(w, rendered)
		return err
	}
	base := b.Base()
	return json.NewEncoder(w).Encode(api.BatchSummary{
		OK:        1,
		Transport: transport,
		Op:        b.Op().String(),
		Namespace: b.NS().String(),
		N:         b.Len(),
		Ordered:   base.Ordered,
		Bypass:    base.BypassDocumentValidation,
		StmtIDs:   write.StmtIDs(b),
		Command:   json.RawMessage(rendered),
	})
}

// reportRejection prints err in the chosen format and returns the exit error
// for it.
func reportRejection(w io.Writer, format string, err error) error {
	code := status.CodeOf(err)
	if format == "json" {
		json.NewEncoder(w).Encode(errorOutput{
			OK:       0,
			Code:     int32(code),
			CodeName: code.String(),
			ErrMsg:   status.Reason(err),
		})
	} else {
		fmt.Fprintf(w, "Error [%s]: %s\n", code, status.Reason(err))
	}
	return WrapExitError(ExitFailure, "rejected", err)
}
