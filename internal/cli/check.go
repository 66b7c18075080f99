package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
	documentuc "github.com/kailas-cloud/firedoc/internal/usecase/document"
)

// Clause is one where-clause in a check file.
type Clause struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value" json:"value"`
}

// checkFile is the mapping form of a check file. A bare sequence of clauses
// is accepted as well.
type checkFile struct {
	Where []Clause `yaml:"where"`
}

// CheckResult is the JSON form of a check.
type CheckResult struct {
	Valid            bool   `json:"valid"`
	Reason           string `json:"reason,omitempty"`
	Index            *int   `json:"index,omitempty"`
	Field            string `json:"field,omitempty"`
	ConflictingField string `json:"conflicting_field,omitempty"`
	RangeField       string `json:"range_field,omitempty"`
	Message          string `json:"message"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Check a where-clause list without contacting the store",
		Long: `Check a YAML or JSON list of where-clauses against the store's query rules.

At most one field may carry a range or not-equals comparator (<, <=, >, >=, !=).
Exits 1 when the list would be rejected.

The file is either a sequence of clauses or a mapping with a "where" key:

  where:
    - {field: cost, op: "<=", value: 3}
    - {field: tier, op: "==", value: 1}`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd, args[0])
		},
	}
}

func runCheck(opts *RootOptions, cmd *cobra.Command, path string) error {
	out := opts.formatter(cmd)

	clauses, err := loadClauses(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load "+path, err)
	}

	constraints := make([]filter.Constraint, len(clauses))
	for i, c := range clauses {
		constraints[i] = filter.New(c.Field, c.Op, c.Value)
	}

	res := checkResult(documentuc.CheckConstraints(constraints))
	if res.Valid {
		text := "valid"
		if res.RangeField != "" {
			text = fmt.Sprintf("valid (range field: %s)", res.RangeField)
		}
		return out.Success(text, res)
	}

	if err := out.Error(res.Reason, res.Message, res); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "")
}

// loadClauses reads a check file. JSON is parsed as YAML.
func loadClauses(path string) ([]Clause, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var clauses []Clause
		if err := doc.Decode(&clauses); err != nil {
			return nil, fmt.Errorf("decode clauses: %w", err)
		}
		return clauses, nil
	case yaml.MappingNode:
		var f checkFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode clauses: %w", err)
		}
		return f.Where, nil
	default:
		return nil, fmt.Errorf("expected a list of clauses or a mapping with \"where\"")
	}
}

func checkResult(r filter.Result) CheckResult {
	res := CheckResult{
		Valid:      r.Valid,
		RangeField: r.RangeField,
		Message:    documentuc.Describe(r),
	}
	if !r.Valid {
		idx := r.Index
		res.Reason = string(r.Reason)
		res.Index = &idx
		res.Field = r.Field
		res.ConflictingField = r.ConflictingField
	}
	return res
}
