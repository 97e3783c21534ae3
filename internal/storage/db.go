package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"supplydesk/internal"
	"supplydesk/internal/util"
)

var ErrDuplicateCode = errors.New("product code already exists")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY under
	// concurrent imports.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  code TEXT NOT NULL UNIQUE COLLATE NOCASE,
  description TEXT NOT NULL,
  imageUrl TEXT NOT NULL DEFAULT '',
  link TEXT,
  brand TEXT,
  keywords TEXT,
  area TEXT,
  productType TEXT,
  supplier TEXT,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_description ON products(description);

CREATE TABLE IF NOT EXISTS inbound_documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS extractions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  documentId INTEGER NOT NULL,
  attachment TEXT NOT NULL,
  profile TEXT NOT NULL,
  lineNo INTEGER NOT NULL,
  code TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT,
  recordJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(documentId, attachment, lineNo),
  FOREIGN KEY(documentId) REFERENCES inbound_documents(id)
);

CREATE TABLE IF NOT EXISTS matches (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  extractionId INTEGER NOT NULL UNIQUE,
  status TEXT NOT NULL,
  productId INTEGER,
  suggestionsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(extractionId) REFERENCES extractions(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  documentId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(documentId) REFERENCES inbound_documents(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

const productColumns = `id, code, description, imageUrl, link, brand, keywords, area, productType, supplier`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (internal.CatalogEntry, error) {
	var p internal.CatalogEntry
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.ImageURL, &p.Link, &p.Brand, &p.Keywords, &p.Area, &p.ProductType, &p.Supplier)
	return p, err
}

// UpsertProducts stores a catalog pull keyed by code.
func (d *DB) UpsertProducts(products []internal.CatalogEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO products (code, description, imageUrl, link, brand, keywords, area, productType, supplier, lastSeenAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(code) DO UPDATE SET
  description=excluded.description,
  imageUrl=excluded.imageUrl,
  link=excluded.link,
  brand=excluded.brand,
  keywords=excluded.keywords,
  area=excluded.area,
  productType=excluded.productType,
  supplier=excluded.supplier,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.Exec(
			strings.TrimSpace(p.Code), p.Description, p.ImageURL, p.Link, p.Brand,
			p.Keywords, p.Area, p.ProductType, p.Supplier,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CreateProduct inserts a new catalog entry and fails on a duplicate code.
func (d *DB) CreateProduct(ctx context.Context, p internal.CatalogEntry) (internal.CatalogEntry, error) {
	existing, err := d.FindByCode(ctx, p.Code)
	if err != nil {
		return internal.CatalogEntry{}, err
	}
	if existing != nil {
		return internal.CatalogEntry{}, fmt.Errorf("%w: %s", ErrDuplicateCode, p.Code)
	}
	res, err := d.conn.ExecContext(ctx, `
INSERT INTO products (code, description, imageUrl, link, brand, keywords, area, productType, supplier)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, strings.TrimSpace(p.Code), p.Description, p.ImageURL, p.Link, p.Brand, p.Keywords, p.Area, p.ProductType, p.Supplier)
	if err != nil {
		return internal.CatalogEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.CatalogEntry{}, err
	}
	p.ID = int(id)
	return p, nil
}

// ListAll returns the catalog in id order. limit <= 0 means no limit.
func (d *DB) ListAll(ctx context.Context, limit int) ([]internal.CatalogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogEntry
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) FindByCode(ctx context.Context, code string) (*internal.CatalogEntry, error) {
	p, err := scanProduct(d.conn.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE code = ?`, strings.TrimSpace(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Search matches the query against code, description and keywords.
func (d *DB) Search(ctx context.Context, query string, limit int) ([]internal.CatalogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	like := "%" + strings.TrimSpace(query) + "%"
	rows, err := d.conn.QueryContext(ctx, `
SELECT `+productColumns+` FROM products
WHERE code LIKE ? OR description LIKE ? OR keywords LIKE ?
ORDER BY CASE WHEN code LIKE ? THEN 0 ELSE 1 END, id
LIMIT ?`, like, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogEntry
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const documentColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanDocument(row rowScanner) (internal.InboundDocument, error) {
	var doc internal.InboundDocument
	var subject, sender, receivedAt sql.NullString
	err := row.Scan(&doc.ID, &doc.Provider, &doc.MessageID, &subject, &sender, &receivedAt, &doc.Hash, &doc.Status, &doc.RawRef)
	doc.Subject, doc.Sender, doc.ReceivedAt = subject.String, sender.String, receivedAt.String
	return doc, err
}

func (d *DB) UpsertInboundDocument(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.InboundDocument, error) {
	_, err := d.conn.Exec(`
INSERT INTO inbound_documents (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.InboundDocument{}, err
	}

	row, err := d.GetInboundDocumentByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.InboundDocument{}, err
	}
	if row == nil {
		return internal.InboundDocument{}, errors.New("failed to upsert inbound document")
	}
	return *row, nil
}

func (d *DB) GetInboundDocumentByProviderMessageID(provider, messageID string) (*internal.InboundDocument, error) {
	doc, err := scanDocument(d.conn.QueryRow(`SELECT `+documentColumns+` FROM inbound_documents WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *DB) GetInboundDocumentByID(id int) (*internal.InboundDocument, error) {
	doc, err := scanDocument(d.conn.QueryRow(`SELECT `+documentColumns+` FROM inbound_documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *DB) ListInboundDocumentsByStatus(status string, limit int) ([]internal.InboundDocument, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.Query(`SELECT `+documentColumns+` FROM inbound_documents WHERE status = ? ORDER BY receivedAt ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.InboundDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (d *DB) UpdateInboundDocumentStatus(documentID int, status string) error {
	_, err := d.conn.Exec(`UPDATE inbound_documents SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, documentID)
	return err
}

// ClearDocumentProcessing drops earlier extractions and matches so a
// document can be processed again.
func (d *DB) ClearDocumentProcessing(documentID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM matches WHERE extractionId IN (SELECT id FROM extractions WHERE documentId = ?)`, documentID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM extractions WHERE documentId = ?`, documentID); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) InsertExtraction(documentID int, attachment, profile string, lineNo int, rec internal.ExtractedRecord) (int64, error) {
	recordJSON, _ := json.Marshal(rec)
	result, err := d.conn.Exec(`
INSERT INTO extractions (documentId, attachment, profile, lineNo, code, description, price, recordJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, documentID, attachment, profile, lineNo, rec.Code, rec.Description, rec.Price, string(recordJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) InsertMatch(extractionID int64, result internal.MatchResult) error {
	suggestionsJSON, _ := json.Marshal(result.Suggestions)
	status := "unmatched"
	var productID *int
	if result.ExactMatch != nil {
		status = "matched"
		productID = util.IntPtr(result.ExactMatch.ID)
	}
	_, err := d.conn.Exec(`
INSERT INTO matches (extractionId, status, productId, suggestionsJson)
VALUES (?, ?, ?, ?)
`, extractionID, status, productID, string(suggestionsJSON))
	return err
}

func (d *DB) InsertRun(traceID string, documentID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, documentId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, documentID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// GetReviewRows lists matched codes first, then misses with their top
// suggestions, in extraction order.
func (d *DB) GetReviewRows(documentID int) ([]internal.ReviewRow, error) {
	rows, err := d.conn.Query(`
SELECT
  e.attachment,
  e.profile,
  e.code,
  e.description,
  e.price,
  m.status,
  p.id,
  p.code,
  p.description,
  m.suggestionsJson
FROM extractions e
JOIN matches m ON m.extractionId = e.id
LEFT JOIN products p ON p.id = m.productId
WHERE e.documentId = ?
ORDER BY
  CASE m.status WHEN 'matched' THEN 1 ELSE 2 END,
  e.attachment ASC,
  e.lineNo ASC
`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ReviewRow
	for rows.Next() {
		var row internal.ReviewRow
		var price sql.NullString
		var suggestionsJSON string
		if err := rows.Scan(
			&row.DocumentName,
			&row.Supplier,
			&row.QueryCode,
			&row.Description,
			&price,
			&row.Status,
			&row.MatchedID,
			&row.MatchedCode,
			&row.MatchedDesc,
			&suggestionsJSON,
		); err != nil {
			return nil, err
		}
		row.Price = price.String

		var suggestions []internal.Suggestion
		_ = json.Unmarshal([]byte(suggestionsJSON), &suggestions)
		slots := []struct {
			code  **string
			score **float64
		}{
			{&row.Suggestion1, &row.Suggestion1Pts},
			{&row.Suggestion2, &row.Suggestion2Pts},
			{&row.Suggestion3, &row.Suggestion3Pts},
		}
		for i, slot := range slots {
			if i >= len(suggestions) {
				break
			}
			*slot.code = util.StringPtr(suggestions[i].Entry.Code)
			*slot.score = util.FloatPtr(suggestions[i].Score)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
