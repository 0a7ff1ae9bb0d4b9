package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharecrm-io/fxcrm/internal/constants"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		filters []string
		orders  []string
		fields  string
		limit   int
		offset  int
		all     bool
		maximum int
	)

	cmd := &cobra.Command{
		Use:   "query API_NAME",
		Short: "Search objects",
		Long: `Search objects of one type through data/query.

Filters take the form field:operator:value, for example
  --filter name:LIKE:Acme --filter owner:IN:1000,1001
Orders take the form field:asc or field:desc.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := fxcrm.QueryOptions{
				APIName:         args[0],
				FieldProjection: splitFields(fields),
				Offset:          offset,
				Limit:           limit,
			}

			for _, raw := range filters {
				filter, err := parseFilter(raw)
				if err != nil {
					return err
				}

				opts.Filters = append(opts.Filters, filter)
			}

			for _, raw := range orders {
				order, err := parseOrder(raw)
				if err != nil {
					return err
				}

				opts.Orders = append(opts.Orders, order)
			}

			sess, err := newDataSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			cursor, err := fxcrm.Query(cmd.Context(), sess.Client, opts)
			if err != nil {
				return fmt.Errorf("failed to query %s: %w", opts.APIName, err)
			}

			objects, err := collect(cmd, cursor, all, maximum)
			if err != nil {
				return err
			}

			return renderObjects(cmd.OutOrStdout(), objects, opts.FieldProjection)
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter as field:operator:value (repeatable)")
	cmd.Flags().StringArrayVar(&orders, "order", nil, "order as field:asc|desc (repeatable)")
	cmd.Flags().StringVar(&fields, "fields", "", "comma separated fields to return")
	cmd.Flags().IntVar(&limit, "limit", constants.StandardPageSize, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "offset of the first record")
	cmd.Flags().BoolVar(&all, "all", false, "follow pagination through every page")
	cmd.Flags().IntVar(&maximum, "max", 0, "stop after this many records (0 for no limit)")

	return cmd
}

// collect returns the first page, or every page when all is set, capped at maximum.
func collect(cmd *cobra.Command, cursor *fxcrm.Cursor, all bool, maximum int) ([]fxcrm.Object, error) {
	var objects []fxcrm.Object

	if !all {
		for range cursor.Buffered() {
			if maximum > 0 && len(objects) >= maximum {
				break
			}

			object, err := cursor.Next(cmd.Context())
			if err != nil {
				return nil, err
			}

			objects = append(objects, object)
		}

		return objects, nil
	}

	for object, err := range cursor.All(cmd.Context()) {
		if err != nil {
			return nil, fmt.Errorf("failed to load page at offset %d: %w", cursor.Offset(), err)
		}

		objects = append(objects, object)

		if maximum > 0 && len(objects) >= maximum {
			break
		}
	}

	return objects, nil
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get API_NAME OBJECT_ID",
		Short: "Fetch one object",
		Long:  "Fetch one object by id through data/get",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newDataSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			object, err := fxcrm.Get(cmd.Context(), sess.Client, args[0], args[1])
			if err != nil {
				return describeCallError(fmt.Sprintf("failed to get %s %s", args[0], args[1]), err)
			}

			return renderObject(cmd.OutOrStdout(), object)
		},
	}
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var (
		data string
		file string
	)

	cmd := &cobra.Command{
		Use:   "create API_NAME",
		Short: "Create one object",
		Long: `Create one object through data/create.

Field values come from --data as JSON or from --file as JSON or YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			object, err := loadObjectData(data, file)
			if err != nil {
				return err
			}

			sess, err := newDataSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			created, err := fxcrm.Create(cmd.Context(), sess.Client, args[0], object)
			if err != nil {
				return describeCallError("failed to create "+args[0], err)
			}

			return renderObject(cmd.OutOrStdout(), created)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "field values as JSON")
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON or YAML file with field values")
	cmd.MarkFlagsMutuallyExclusive("data", "file")

	return cmd
}

func newDataSession(cmd *cobra.Command) (*session, error) {
	err := requireOpenUserID(loadConfig())
	if err != nil {
		return nil, err
	}

	return newSession(cmd.Context(), cmd.ErrOrStderr())
}

// describeCallError adds the CRM trace id to API failures.
func describeCallError(action string, err error) error {
	var apiErr *fxcrm.APIError
	if errors.As(err, &apiErr) && apiErr.Envelope != nil && apiErr.Envelope.TraceID != "" {
		return fmt.Errorf("%s (trace %s): %w", action, apiErr.Envelope.TraceID, err)
	}

	return fmt.Errorf("%s: %w", action, err)
}
