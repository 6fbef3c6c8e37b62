// Package validation applies a collection validator to insert batches.
//
// A Validator is compiled once from a validator document and is safe for
// concurrent use; the compiled match tree is never mutated after New returns.
package validation

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/logging"
	"github.com/vexsearch/vexdb/internal/matcher"
	"github.com/vexsearch/vexdb/internal/status"
)

// DefaultWorkers is the number of documents evaluated at once per batch.
const DefaultWorkers = 4

// ErrDocumentFailedValidation is wrapped by Result.Err.
var ErrDocumentFailedValidation = errors.New("document failed validation")

// Options configures a Validator.
type Options struct {
	// Workers bounds concurrent document evaluation. Default: 4
	Workers int
	// Logger receives one debug line per failing document. Optional.
	Logger *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Validator is a compiled collection validator.
type Validator struct {
	raw  bson.Raw
	expr matcher.Expression
	opts Options
}

// New compiles validator. An empty document accepts everything.
func New(validator bson.Raw, opts Options) (*Validator, error) {
	if validator == nil {
		validator = bson.Raw(emptyDocument)
	}
	expr, err := matcher.Parse(validator)
	if err != nil {
		return nil, err
	}
	return &Validator{raw: validator, expr: expr, opts: opts.withDefaults()}, nil
}

// emptyDocument is the 5-byte encoding of {}.
var emptyDocument = []byte{5, 0, 0, 0, 0}

// Matches reports whether doc satisfies the validator.
func (v *Validator) Matches(doc bson.Raw) bool {
	return v.expr.Matches(doc)
}

// Expression returns the compiled match tree.
func (v *Validator) Expression() matcher.Expression { return v.expr }

// Raw returns the validator document as given to New.
func (v *Validator) Raw() bson.Raw { return v.raw }

// Paths returns the field paths the validator reads.
func (v *Validator) Paths() []string {
	return matcher.Paths(v.expr)
}

// Workers returns the evaluation concurrency.
func (v *Validator) Workers() int { return v.opts.Workers }

func validationError(n int) error {
	if n == 1 {
		return status.Wrap(status.DocumentValidationFailure, ErrDocumentFailedValidation,
			"Document failed validation")
	}
	return status.Wrapf(status.DocumentValidationFailure, ErrDocumentFailedValidation,
		"%d documents failed validation", n)
}
