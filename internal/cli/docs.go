package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/firedoc"
	"github.com/kailas-cloud/firedoc/internal/domain/query/filter"
)

// DocumentOutput is the printed form of a document.
type DocumentOutput struct {
	Path string         `json:"path"`
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

func toOutput(s firedoc.DocumentSnapshot) DocumentOutput {
	return DocumentOutput{Path: s.Path(), ID: s.ID, Data: s.Data}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, rootOpts, func(ctx context.Context, c *firedoc.Client) error {
				snap, err := c.Collection(args[0]).Doc(args[1]).Get(ctx)
				if err != nil {
					return storeError(err)
				}
				return rootOpts.formatter(cmd).Document(toOutput(snap))
			})
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		data  string
		file  string
		merge bool
	)

	cmd := &cobra.Command{
		Use:   "set <collection> <id>",
		Short: "Create or overwrite a document",
		Long: `Create or overwrite a document from inline YAML/JSON (--data) or a file (--file).
With --merge the fields are deep-merged into the stored document.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := readFields(data, file)
			if err != nil {
				return WrapExitError(ExitCommandError, "read document", err)
			}
			return withClient(cmd, rootOpts, func(ctx context.Context, c *firedoc.Client) error {
				ref := c.Collection(args[0]).Doc(args[1])
				if merge {
					err = ref.Merge(ctx, fields)
				} else {
					err = ref.Set(ctx, fields)
				}
				if err != nil {
					return storeError(err)
				}
				return rootOpts.formatter(cmd).Success("ok "+ref.Path(), map[string]string{"path": ref.Path()})
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "document fields as YAML or JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read document fields from a file")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge into the existing document")
	cmd.MarkFlagsMutuallyExclusive("data", "file")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a document or one of its fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, rootOpts, func(ctx context.Context, c *firedoc.Client) error {
				ref := c.Collection(args[0]).Doc(args[1])
				target := ref.Path()
				var err error
				if field != "" {
					err = ref.DeleteField(ctx, field)
					target += "#" + field
				} else {
					err = ref.Delete(ctx)
				}
				if err != nil {
					return storeError(err)
				}
				return rootOpts.formatter(cmd).Success("deleted "+target, map[string]string{"deleted": target})
			})
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "delete only this field (dot path)")

	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		where []string
		limit int
		group bool
	)

	cmd := &cobra.Command{
		Use:   "query <collection>",
		Short: "Run a where-query",
		Long: `Run a where-query against a collection, or with --group against every
collection with that ID.

Each --where takes "field op value"; value is parsed as YAML:

  firedocctl query packs/base/units --where 'cost <= 3' --where 'tags array-contains ranged'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clauses := make([]Clause, 0, len(where))
			for _, w := range where {
				c, err := ParseWhere(w)
				if err != nil {
					return WrapExitError(ExitCommandError, "parse --where", err)
				}
				clauses = append(clauses, c)
			}

			return withClient(cmd, rootOpts, func(ctx context.Context, c *firedoc.Client) error {
				var q *firedoc.Query
				if group {
					q = c.CollectionGroup(args[0]).Limit(limit)
				} else {
					q = c.Collection(args[0]).Limit(limit)
				}
				for _, cl := range clauses {
					q = q.Where(cl.Field, cl.Op, cl.Value)
				}
				snaps, err := q.Documents(ctx)
				if err != nil {
					return storeError(err)
				}
				return printDocuments(rootOpts.formatter(cmd), snaps)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, `constraint "field op value" (repeatable)`)
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of documents (0 = server default)")
	cmd.Flags().BoolVar(&group, "group", false, "query every collection with this ID")

	return cmd
}

// ParseWhere parses "field op value". op must be a known comparator. The
// value is decoded as YAML, so numbers, booleans and [lists] keep their type;
// anything else stays a string.
func ParseWhere(expr string) (Clause, error) {
	field, rest, ok := strings.Cut(strings.TrimSpace(expr), " ")
	if !ok || field == "" {
		return Clause{}, fmt.Errorf("%q: want \"field op value\"", expr)
	}
	op, raw, ok := strings.Cut(strings.TrimSpace(rest), " ")
	raw = strings.TrimSpace(raw)
	if !ok || op == "" || raw == "" {
		return Clause{}, fmt.Errorf("%q: want \"field op value\"", expr)
	}

	cmp, ok := filter.ParseComparator(op)
	if !ok {
		return Clause{}, fmt.Errorf("%q: unknown comparator %q", expr, op)
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		value = raw
	}
	return Clause{Field: field, Op: cmp.String(), Value: value}, nil
}

func readFields(data, file string) (map[string]any, error) {
	raw := []byte(data)
	if file != "" {
		b, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return nil, err
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, errors.New("one of --data or --file is required")
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return fields, nil
}

func printDocuments(out *OutputFormatter, snaps []firedoc.DocumentSnapshot) error {
	docs := make([]DocumentOutput, len(snaps))
	for i, s := range snaps {
		docs[i] = toOutput(s)
	}
	if out.Format == FormatJSON {
		return out.Document(docs)
	}
	for _, d := range docs {
		b, err := json.Marshal(d.Data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out.Writer, "%s\t%s\n", d.Path, b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out.Writer, "%d document(s)\n", len(docs))
	return err
}

// withClient connects, runs fn and closes the client.
func withClient(
	cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, c *firedoc.Client) error,
) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := opts.connect(ctx, opts)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(ctx, client)
}

// storeError maps library errors onto exit codes.
func storeError(err error) error {
	switch {
	case errors.Is(err, firedoc.ErrDocumentNotFound),
		errors.Is(err, firedoc.ErrInvalidFilter):
		return WrapExitError(ExitFailure, "request failed", err)
	case errors.Is(err, firedoc.ErrInvalidPath),
		errors.Is(err, firedoc.ErrInvalidDocument):
		return WrapExitError(ExitCommandError, "bad request", err)
	default:
		return WrapExitError(ExitCommandError, "store error", err)
	}
}
