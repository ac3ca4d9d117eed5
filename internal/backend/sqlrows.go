package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// sheetRow is one spreadsheet row persisted in a relational table. Cells
// are kept as a JSON array so every collection shares one schema.
type sheetRow struct {
	bun.BaseModel `bun:"table:sheet_rows"`

	ID         int64  `bun:",pk,autoincrement"`
	Collection string `bun:"collection,notnull"`
	Position   int    `bun:"position,notnull"`
	Cells      string `bun:"cells,notnull"`
}

// SQL emulates a spreadsheet on top of a relational database, for
// deployments that outgrow the Sheets API quotas but keep the row model.
type SQL struct {
	writer *bun.DB
	reader *bun.DB
}

// NewSQL builds the driver on existing bun connections.
func NewSQL(writer, reader *bun.DB) (*SQL, error) {
	if writer == nil {
		return nil, errors.New("sql backend requires a database connection")
	}
	if reader == nil {
		reader = writer
	}
	return &SQL{writer: writer, reader: reader}, nil
}

// ReadAllRows reads from the writer. Row positions feed the writes that
// follow under the collection lock, so a lagging replica would hand out
// duplicate ids or target the wrong row.
func (s *SQL) ReadAllRows(ctx context.Context, collection string) ([][]string, error) {
	var models []sheetRow
	err := s.writer.NewSelect().
		Model(&models).
		Where("collection = ?", collection).
		Order("position ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		var cells []string
		if err := json.Unmarshal([]byte(m.Cells), &cells); err != nil {
			cells = nil
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func (s *SQL) AppendRow(ctx context.Context, collection string, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return s.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var last int
		err := tx.NewSelect().
			Model((*sheetRow)(nil)).
			ColumnExpr("COALESCE(MAX(position), -1)").
			Where("collection = ?", collection).
			Scan(ctx, &last)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		model := &sheetRow{Collection: collection, Position: last + 1, Cells: string(cells)}
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
		return nil
	})
}

func (s *SQL) ReplaceRow(ctx context.Context, collection string, index int, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return err
	}
	res, err := s.writer.NewUpdate().
		Model((*sheetRow)(nil)).
		Set("cells = ?", string(cells)).
		Where("collection = ? AND position = ?", collection, index).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	return requireAffected(res, collection, index)
}

// DeleteRow removes the row and shifts later rows up, like deleting a
// spreadsheet row does.
func (s *SQL) DeleteRow(ctx context.Context, collection string, index int) error {
	return s.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*sheetRow)(nil)).
			Where("collection = ? AND position = ?", collection, index).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		if err := requireAffected(res, collection, index); err != nil {
			return err
		}
		_, err = tx.NewUpdate().
			Model((*sheetRow)(nil)).
			Set("position = position - 1").
			Where("collection = ? AND position > ?", collection, index).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("shift rows: %w", err)
		}
		return nil
	})
}

// Describe lists the collections present in the table.
func (s *SQL) Describe(ctx context.Context) (Description, error) {
	var names []string
	err := s.reader.NewSelect().
		Model((*sheetRow)(nil)).
		ColumnExpr("DISTINCT collection").
		Order("collection ASC").
		Scan(ctx, &names)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Description{}, fmt.Errorf("list collections: %w", err)
	}
	return Description{Title: "sql", Collections: names}, nil
}

func requireAffected(res sql.Result, collection string, index int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s row %d", ErrNotFound, collection, index)
	}
	return nil
}
