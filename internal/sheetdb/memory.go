package sheetdb

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryTable is an in-process Table used by tests and dry runs.
type MemoryTable struct {
	mu     sync.Mutex
	header []string
	rows   [][]any
}

func NewMemoryTable(header ...string) *MemoryTable {
	return &MemoryTable{header: slices.Clone(header)}
}

// Seed appends rows given in header order.
func (m *MemoryTable) Seed(rows ...[]any) *MemoryTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows = append(m.rows, slices.Clone(r))
	}
	return m
}

func (m *MemoryTable) Header(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.header), nil
}

func (m *MemoryTable) Rows(ctx context.Context) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.header) == 0 {
		return nil, nil
	}
	out := make([]Row, 0, len(m.rows))
	for i, cells := range m.rows {
		out = append(out, rowFromCells(i+2, m.header, cells))
	}
	return out, nil
}

func (m *MemoryTable) Append(ctx context.Context, values map[string]any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.header) == 0 {
		return 0, ErrNoHeader
	}
	m.rows = append(m.rows, RowValues(m.header, values))
	return len(m.rows) + 1, nil
}

func (m *MemoryTable) UpdateCells(ctx context.Context, row int, values map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := row - 2
	if i < 0 || i >= len(m.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	for col, v := range values {
		c := indexOf(m.header, col)
		if c < 0 {
			continue
		}
		for len(m.rows[i]) <= c {
			m.rows[i] = append(m.rows[i], "")
		}
		m.rows[i][c] = v
	}
	return nil
}

func (m *MemoryTable) DeleteRow(ctx context.Context, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := row - 2
	if i < 0 || i >= len(m.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	m.rows = slices.Delete(m.rows, i, i+1)
	return nil
}

func (m *MemoryTable) EnsureColumn(ctx context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := indexOf(m.header, name); i >= 0 {
		return i, nil
	}
	m.header = append(m.header, name)
	return len(m.header) - 1, nil
}

func (m *MemoryTable) SetHeader(ctx context.Context, columns []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.header = slices.Clone(columns)
	return nil
}

// MemoryBook hands out MemoryTables by name.
type MemoryBook struct {
	mu     sync.Mutex
	tables map[string]*MemoryTable
}

func NewMemoryBook() *MemoryBook {
	return &MemoryBook{tables: map[string]*MemoryTable{}}
}

func (b *MemoryBook) Table(ctx context.Context, name string, header []string) (Table, error) {
	return b.Memory(name, header), nil
}

// Memory returns the concrete table so tests can inspect it.
func (b *MemoryBook) Memory(name string, header []string) *MemoryTable {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tables[name]
	if !ok {
		t = NewMemoryTable(header...)
		b.tables[name] = t
	}
	return t
}
