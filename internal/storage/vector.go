package storage

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sort"

	"github.com/fenv-org/mementor/internal/storage/vecmath"
	"github.com/mattn/go-sqlite3"
)

// driverName is the registered database/sql driver name. Registering our
// own name (rather than reusing "sqlite3") is how the ConnectHook gets a
// chance to wire the vector extension into every connection, the loadable
// extension the storage design calls for.
const driverName = "mementor-sqlite3"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("vec_from_json", vecFromJSON, true); err != nil {
				return fmt.Errorf("register vec_from_json: %w", err)
			}
			if err := conn.RegisterFunc("cosine_distance", cosineDistanceFunc, true); err != nil {
				return fmt.Errorf("register cosine_distance: %w", err)
			}
			if err := conn.CreateModule("vec_topk", &topKModule{conn: conn}); err != nil {
				return fmt.Errorf("register vec_topk module: %w", err)
			}
			return nil
		},
	})
}

// vecFromJSON is the extension's first capability: parse a JSON array of
// floats into the packed binary vector Chunk.embedding stores.
func vecFromJSON(raw string) []byte {
	v, err := vecmath.ParseJSONVector([]byte(raw))
	if err != nil {
		return nil
	}
	return vecmath.Pack(v)
}

// cosineDistanceFunc exposes vecmath.CosineDistance as a scalar SQL
// function for ad-hoc queries and tests; the hot path (top-k search) goes
// through the vec_topk virtual table instead, which avoids unpacking every
// row through SQL scalar-function overhead per comparison.
func cosineDistanceFunc(a, b []byte) float64 {
	return vecmath.CosineDistance(vecmath.Unpack(a), vecmath.Unpack(b))
}

// topKModule implements the extension's second capability: a virtual
// table that, given a query vector and k, returns the top-k chunk rows by
// cosine distance. It is not eponymous: callers issue
// `CREATE VIRTUAL TABLE vec_chunks USING vec_topk(chunks, embedding)` once
// per database, then query it with `SELECT rowid, distance FROM
// vec_chunks WHERE query = ? AND k = ?`.
type topKModule struct {
	conn *sqlite3.SQLiteConn
}

func (m *topKModule) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.connect(c, args)
}

func (m *topKModule) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.connect(c, args)
}

func (m *topKModule) connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	// args: [module, db, table, target_table, target_column]
	if len(args) < 5 {
		return nil, fmt.Errorf("vec_topk: expected target table and column arguments")
	}
	targetTable := unquoteIdent(args[3])
	targetColumn := unquoteIdent(args[4])

	err := c.DeclareVTab(fmt.Sprintf(
		`CREATE TABLE x(rowid INTEGER, distance REAL, query BLOB HIDDEN, k INTEGER HIDDEN)`,
	))
	if err != nil {
		return nil, err
	}
	return &topKTable{conn: c, targetTable: targetTable, targetColumn: targetColumn}, nil
}

func (m *topKModule) DestroyModule() {}

type topKTable struct {
	conn         *sqlite3.SQLiteConn
	targetTable  string
	targetColumn string
}

// BestIndex requires the caller to supply both the query vector and k as
// equality constraints — a scan with neither is a programming error (it
// would mean a full unbounded distance computation), so we report a very
// high cost unless both are present and usable.
func (t *topKTable) BestIndex(cst []sqlite3.InfoConstraint, ob []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	used := make([]bool, len(cst))
	haveQuery, haveK := false, false
	for i, c := range cst {
		if !c.Usable || c.Op != sqlite3.OpEQ {
			continue
		}
		switch c.Column {
		case 2: // query
			used[i] = true
			haveQuery = true
		case 3: // k
			used[i] = true
			haveK = true
		}
	}
	cost := 1e9
	if haveQuery && haveK {
		cost = 10
	}
	return &sqlite3.IndexResult{
		Used:          used,
		EstimatedCost: cost,
	}, nil
}

func (t *topKTable) Open() (sqlite3.VTabCursor, error) {
	return &topKCursor{table: t}, nil
}

func (t *topKTable) Disconnect() error { return nil }
func (t *topKTable) Destroy() error    { return nil }

type topKRow struct {
	rowid    int64
	distance float64
}

type topKCursor struct {
	table *topKTable
	rows  []topKRow
	pos   int
}

func (c *topKCursor) Filter(idxNum int, idxStr string, vals []driver.Value) error {
	var queryRaw []byte
	var k int64

	for _, v := range vals {
		switch vv := v.(type) {
		case []byte:
			queryRaw = vv
		case string:
			queryRaw = []byte(vv)
		case int64:
			k = vv
		}
	}
	if k <= 0 {
		k = 20
	}

	query, err := decodeQueryVector(queryRaw)
	if err != nil {
		return err
	}

	rows, err := c.table.conn.Query(
		fmt.Sprintf("SELECT rowid, %s FROM %s", c.table.targetColumn, c.table.targetTable),
		nil,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	dest := make([]driver.Value, 2)
	var scored []topKRow
	for {
		if err := rows.Next(dest); err != nil {
			break
		}
		rowid, _ := dest[0].(int64)
		blob, _ := dest[1].([]byte)
		dist := vecmath.CosineDistance(query, vecmath.Unpack(blob))
		scored = append(scored, topKRow{rowid: rowid, distance: dist})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].distance < scored[j].distance })
	if int64(len(scored)) > k {
		scored = scored[:k]
	}
	c.rows = scored
	c.pos = 0
	return nil
}

func (c *topKCursor) Next() error {
	c.pos++
	return nil
}

func (c *topKCursor) EOF() bool {
	return c.pos >= len(c.rows)
}

func (c *topKCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	row := c.rows[c.pos]
	switch col {
	case 0:
		ctx.ResultInt64(row.rowid)
	case 1:
		ctx.ResultDouble(row.distance)
	default:
		ctx.ResultNull()
	}
	return nil
}

func (c *topKCursor) Rowid() (int64, error) {
	return c.rows[c.pos].rowid, nil
}

func (c *topKCursor) Close() error {
	return nil
}

func decodeQueryVector(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("vec_topk: empty query vector")
	}
	if raw[0] == '[' {
		return vecmath.ParseJSONVector(raw)
	}
	return vecmath.Unpack(raw), nil
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
