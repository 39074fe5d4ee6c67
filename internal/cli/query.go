package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ricferal/mvpPucEngenhariaDados/internal/config"
	"github.com/ricferal/mvpPucEngenhariaDados/internal/etl"
)

type QueryOptions struct {
	DSN    string
	SQL    string
	Output string
}

func NewQueryCmd() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a read query against a relational endpoint",
		RunE: func(c *cobra.Command, args []string) error {
			return runQuery(opts)
		},
	}

	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Connection string URI (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&opts.SQL, "sql", "", "SQL query to execute")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Optional CSV file for the results")
	cmd.MarkFlagRequired("sql")

	return cmd
}

func runQuery(opts *QueryOptions) error {
	dsn := opts.DSN
	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		dsn = cfg.DatabaseURL
	}

	loader := etl.NewLoader(nil)
	if err := loader.Connect(dsn); err != nil {
		return err
	}
	defer loader.Close()

	ds, err := loader.Query(context.Background(), opts.SQL)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		_, err := loader.ToCSV(ds, opts.Output, etl.ModeWrite)
		return err
	}

	names := ds.Schema.ColumnNames()
	fmt.Println(strings.Join(names, "\t"))
	for _, row := range ds.Rows {
		cells := make([]string, len(names))
		for i, name := range names {
			cells[i] = fmt.Sprintf("%v", row[name])
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	fmt.Printf("(%d rows)\n", ds.NumRows())
	return nil
}
