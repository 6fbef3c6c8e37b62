package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/guardrails"
	"github.com/vexsearch/vexdb/internal/namespace"
	"github.com/vexsearch/vexdb/internal/status"
	"github.com/vexsearch/vexdb/internal/validation"
	"github.com/vexsearch/vexdb/internal/write"
)

// Per-document outcomes.
const (
	resultPass    = "pass"
	resultFail    = "fail"
	resultSkipped = "skipped"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	Namespace string
	Ordered   bool
	Bypass    bool
}

// DocumentResult is the outcome for one input document.
type DocumentResult struct {
	Index  int             `json:"index"`
	StmtID int32           `json:"stmtId"`
	ID     json.RawMessage `json:"_id,omitempty"`
	Result string          `json:"result"`
}

// ValidationOutput is the json output of the validate command.
type ValidationOutput struct {
	Namespace string           `json:"ns"`
	Valid     bool             `json:"valid"`
	Bypassed  bool             `json:"bypassed,omitempty"`
	Documents []DocumentResult `json:"documents"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <validator-file> <documents-file>",
		Short: "Check documents against a collection validator",
		Long: `Check documents against a collection validator as an insert batch would.

The validator file holds one extended-JSON document. The documents file holds
either one document or an array of documents. An ordered batch stops at the
first failing document; later documents are reported as skipped.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Namespace, "ns", "test.validate", "namespace the documents are inserted into")
	cmd.Flags().BoolVar(&opts.Ordered, "ordered", true, "stop at the first failing document")
	cmd.Flags().BoolVar(&opts.Bypass, "bypass", false, "skip validation (bypassDocumentValidation)")

	return cmd
}

func runValidate(rootOpts *RootOptions, opts *ValidateOptions, validatorPath, documentsPath string, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ns, err := namespace.Parse(opts.Namespace)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --ns", err)
	}

	out := cmd.OutOrStdout()
	validatorData, err := readInput(validatorPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	validatorDoc, err := document.FromExtJSON(string(validatorData))
	if err != nil {
		return reportRejection(out, rootOpts.Format,
			status.Wrap(status.FailedToParse, err, "validator is not a valid extended JSON document"))
	}
	documentsData, err := readInput(documentsPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	docs, err := readDocuments(documentsData)
	if err != nil {
		return reportRejection(out, rootOpts.Format, err)
	}

	if err := guardrails.FromConfig(cfg.Write).CheckBatchSize(len(docs)); err != nil {
		return reportRejection(out, rootOpts.Format, err)
	}

	v, err := validation.New(validatorDoc, validation.Options{
		Workers: cfg.Validation.GetWorkers(),
		Logger:  logger,
	})
	if err != nil {
		return reportRejection(out, rootOpts.Format, err)
	}

	base := write.DefaultWriteCommandBase()
	base.Ordered = opts.Ordered
	base.BypassDocumentValidation = opts.Bypass
	batch := &write.InsertBatch{Namespace: ns, WriteCommandBase: base, Documents: docs}

	res, err := v.ValidateInsert(cmd.Context(), batch)
	if err != nil {
		return WrapExitError(ExitCommandError, "validate", err)
	}

	output := buildValidationOutput(batch, res)
	if rootOpts.Format == "json" {
		if err := json.NewEncoder(out).Encode(output); err != nil {
			return err
		}
	} else {
		writeValidationText(out, output)
	}
	if !res.OK() {
		return WrapExitError(ExitFailure, "validation failed", res.Err())
	}
	return nil
}

// readDocuments decodes one document or an array of documents.
func readDocuments(data []byte) ([]bson.Raw, error) {
	wrapped, err := document.FromExtJSON(`{"documents": ` + strings.TrimSpace(string(data)) + `}`)
	if err != nil {
		return nil, status.Wrap(status.FailedToParse, err, "documents are not valid extended JSON")
	}
	v := wrapped.Lookup("documents")
	if doc, ok := v.DocumentOK(); ok {
		return []bson.Raw{doc}, nil
	}
	arr, ok := v.ArrayOK()
	if !ok {
		return nil, status.Newf(status.TypeMismatch, "documents must be an object or an array, not %s", v.Type)
	}
	values, err := arr.Values()
	if err != nil {
		return nil, status.Wrap(status.InvalidBSON, err, "invalid documents array")
	}
	docs := make([]bson.Raw, 0, len(values))
	for i, dv := range values {
		doc, ok := dv.DocumentOK()
		if !ok {
			return nil, status.Newf(status.TypeMismatch, "documents.%d must be an object, not %s", i, dv.Type)
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, status.New(status.InvalidLength, "documents must not be empty")
	}
	return docs, nil
}

func buildValidationOutput(batch *write.InsertBatch, res *validation.Result) ValidationOutput {
	out := ValidationOutput{
		Namespace: res.Namespace.String(),
		Valid:     res.OK(),
		Bypassed:  res.Bypassed,
		Documents: make([]DocumentResult, len(batch.Documents)),
	}
	failed := make(map[int]bool, len(res.Failures))
	for _, f := range res.Failures {
		failed[f.Index] = true
	}
	stop := len(batch.Documents)
	if batch.Ordered && len(res.Failures) > 0 {
		stop = res.Failures[0].Index
	}
	for i, doc := range batch.Documents {
		r := DocumentResult{
			Index:  i,
			StmtID: write.StmtIDForWriteAt(batch.WriteCommandBase, i),
			Result: resultPass,
		}
		if id, ok := document.ID(doc); ok {
			r.ID = json.RawMessage(document.RenderValue(id))
		}
		switch {
		case failed[i]:
			r.Result = resultFail
		case res.Bypassed, i > stop:
			r.Result = resultSkipped
		}
		out.Documents[i] = r
	}
	return out
}

func writeValidationText(w io.Writer, out ValidationOutput) {
	for _, d := range out.Documents {
		id := "-"
		if d.ID != nil {
			id = string(d.ID)
		}
		fmt.Fprintf(w, "%d\tstmtId=%d\t_id=%s\t%s\n", d.Index, d.StmtID, id, d.Result)
	}
	switch {
	case out.Bypassed:
		fmt.Fprintf(w, "%s: validation bypassed\n", out.Namespace)
	case out.Valid:
		fmt.Fprintf(w, "%s: all %d documents valid\n", out.Namespace, len(out.Documents))
	default:
		fmt.Fprintf(w, "%s: validation failed\n", out.Namespace)
	}
}
