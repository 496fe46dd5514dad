package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leofalp/tabscrape/core/table"
	"github.com/leofalp/tabscrape/internal/display"
	"github.com/leofalp/tabscrape/providers/sink"
	"github.com/spf13/cobra"
)

func historyCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs stored in the SQLite history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Output.SQLite == "" {
				return errors.New("no SQLite history configured; pass --sqlite PATH")
			}
			db, err := sink.OpenSQLite(cmd.Context(), a.cfg.Output.SQLite)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}
			fmt.Fprintln(cmd.OutOrStdout(), display.Render(runsTable(runs), 0))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	return cmd
}

func runsTable(runs []sink.Run) table.Table {
	t := table.Table{Columns: []table.Column{
		{Name: "id", Kind: table.KindText},
		{Name: "created", Kind: table.KindText},
		{Name: "source", Kind: table.KindText},
		{Name: "rows", Kind: table.KindNumber},
		{Name: "columns", Kind: table.KindText},
	}}
	for _, r := range runs {
		t.Rows = append(t.Rows, []table.Value{
			table.Text(r.ID),
			table.Text(r.CreatedAt.Local().Format(time.DateTime)),
			table.Text(r.Source),
			table.Number(float64(r.RowCount)),
			table.Text(display.Truncate(strings.Join(r.Columns, ", "), display.DefaultCellWidth)),
		})
	}
	return t
}
