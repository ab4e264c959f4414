package inspect

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"
)

// schemaSQL holds the relational shape of a reconstructed audit stream.
// The database is always in-memory and session-scoped; the inspector keeps
// no state across runs.
const schemaSQL = `
CREATE TABLE statements (
	idx     INTEGER PRIMARY KEY,
	author  TEXT NOT NULL,
	payload TEXT NOT NULL
);

CREATE TABLE agreements (
	idx           INTEGER PRIMARY KEY,
	at            INTEGER NOT NULL,
	statement_idx INTEGER NOT NULL REFERENCES statements(idx)
);

CREATE TABLE enactments (
	seq           INTEGER PRIMARY KEY,
	actor         TEXT NOT NULL,
	label         TEXT NOT NULL,
	basis_at      INTEGER NOT NULL,
	justification TEXT NOT NULL
);
`

// wireEvent mirrors one line of the audit wire format, with all variant
// fields optional. Decoding is permissive here; shape errors are caught by
// the per-variant checks in Load.
type wireEvent struct {
	Type      string         `json:"type"`
	Timestamp *uint64        `json:"timestamp,omitempty"`
	Who       string         `json:"who,omitempty"`
	To        string         `json:"to,omitempty"`
	Message   *wireStatement `json:"message,omitempty"`
	Agreement *wireAgreement `json:"agreement,omitempty"`
	Action    *wireEnactment `json:"action,omitempty"`
}

type wireStatement struct {
	Author  string `json:"author"`
	Index   int    `json:"index"`
	Payload string `json:"payload"`
}

type wireAgreement struct {
	At      uint64         `json:"at"`
	Message *wireStatement `json:"message"`
}

type wireEnactment struct {
	Actor         string           `json:"actor"`
	Seq           uint64           `json:"seq"`
	Label         string           `json:"label"`
	Basis         *wireAgreement   `json:"basis"`
	Justification []*wireStatement `json:"justification"`
}

// Report summarizes a reconstructed audit stream.
type Report struct {
	Clock       uint64          `json:"clock"`
	Events      int             `json:"events"`
	Statements  []StatementRow  `json:"statements"`
	Agreements  []AgreementRow  `json:"agreements"`
	Enactments  []EnactmentRow  `json:"enactments"`
}

// StatementRow is one reconstructed statement.
type StatementRow struct {
	Index   int    `json:"index"`
	Author  string `json:"author"`
	Payload string `json:"payload"`
}

// AgreementRow is one reconstructed agreement.
type AgreementRow struct {
	Index        int    `json:"index"`
	At           uint64 `json:"at"`
	StatementIdx int    `json:"statement_idx"`
}

// EnactmentRow is one reconstructed enactment.
type EnactmentRow struct {
	Seq           uint64 `json:"seq"`
	Actor         string `json:"actor"`
	Label         string `json:"label"`
	BasisAt       uint64 `json:"basis_at"`
	Justification string `json:"justification"`
}

// Load reads a newline-delimited audit stream from r, rebuilds it inside an
// in-memory SQLite database, and returns a summary report.
//
// The loader enforces the stream contract: the first event must be the
// single advance_time record, and each variant must carry its fields. A
// malformed line fails with its 1-based line number.
func Load(r io.Reader) (*Report, error) {
	db, err := openMemory()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	report := &Report{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("inspect: begin load: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	line := 0
	sawClock := false
	agreementIdx := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev wireEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("inspect: line %d: malformed event: %w", line, err)
		}

		if !sawClock {
			if ev.Type != "advance_time" || ev.Timestamp == nil {
				return nil, fmt.Errorf("inspect: line %d: stream must open with advance_time", line)
			}
			report.Clock = *ev.Timestamp
			sawClock = true
			report.Events++
			continue
		}

		switch ev.Type {
		case "advance_time":
			return nil, fmt.Errorf("inspect: line %d: duplicate advance_time", line)

		case "state_message":
			if ev.Message == nil {
				return nil, fmt.Errorf("inspect: line %d: state_message without message", line)
			}
			_, err = tx.Exec(
				`INSERT INTO statements (idx, author, payload) VALUES (?, ?, ?)`,
				ev.Message.Index, ev.Message.Author, ev.Message.Payload,
			)

		case "add_agreement":
			if ev.Agreement == nil || ev.Agreement.Message == nil {
				return nil, fmt.Errorf("inspect: line %d: add_agreement without agreement", line)
			}
			_, err = tx.Exec(
				`INSERT INTO agreements (idx, at, statement_idx) VALUES (?, ?, ?)`,
				agreementIdx, ev.Agreement.At, ev.Agreement.Message.Index,
			)
			agreementIdx++

		case "enact_action":
			if ev.Action == nil || ev.Action.Basis == nil {
				return nil, fmt.Errorf("inspect: line %d: enact_action without action", line)
			}
			_, err = tx.Exec(
				`INSERT INTO enactments (seq, actor, label, basis_at, justification) VALUES (?, ?, ?, ?, ?)`,
				ev.Action.Seq, ev.Action.Actor, ev.Action.Label,
				ev.Action.Basis.At, justificationSummary(ev.Action.Justification),
			)

		default:
			return nil, fmt.Errorf("inspect: line %d: unknown event type %q", line, ev.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("inspect: line %d: load event: %w", line, err)
		}
		report.Events++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("inspect: read stream: %w", err)
	}
	if !sawClock {
		return nil, fmt.Errorf("inspect: empty stream: expected advance_time")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("inspect: commit load: %w", err)
	}

	if err := fillReport(db, report); err != nil {
		return nil, err
	}
	return report, nil
}

// openMemory opens a fresh in-memory SQLite database with the inspector
// schema applied.
func openMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("inspect: open database: %w", err)
	}

	// One connection: :memory: databases are per-connection, and a second
	// connection would see an empty schema.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("inspect: apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("inspect: apply schema: %w", err)
	}
	return db, nil
}

// fillReport queries the reconstructed tables back out in insertion order.
func fillReport(db *sql.DB, report *Report) error {
	rows, err := db.Query(`SELECT idx, author, payload FROM statements ORDER BY idx`)
	if err != nil {
		return fmt.Errorf("inspect: query statements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s StatementRow
		if err := rows.Scan(&s.Index, &s.Author, &s.Payload); err != nil {
			return fmt.Errorf("inspect: scan statement: %w", err)
		}
		report.Statements = append(report.Statements, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect: iterate statements: %w", err)
	}

	rows, err = db.Query(`SELECT idx, at, statement_idx FROM agreements ORDER BY idx`)
	if err != nil {
		return fmt.Errorf("inspect: query agreements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a AgreementRow
		if err := rows.Scan(&a.Index, &a.At, &a.StatementIdx); err != nil {
			return fmt.Errorf("inspect: scan agreement: %w", err)
		}
		report.Agreements = append(report.Agreements, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect: iterate agreements: %w", err)
	}

	rows, err = db.Query(`SELECT seq, actor, label, basis_at, justification FROM enactments ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("inspect: query enactments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e EnactmentRow
		if err := rows.Scan(&e.Seq, &e.Actor, &e.Label, &e.BasisAt, &e.Justification); err != nil {
			return fmt.Errorf("inspect: scan enactment: %w", err)
		}
		report.Enactments = append(report.Enactments, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect: iterate enactments: %w", err)
	}

	return nil
}

// justificationSummary renders the cited statement indices as a compact
// comma-separated list. The serializer emits justification sorted by index,
// so the summary is deterministic.
func justificationSummary(stmts []*wireStatement) string {
	out := ""
	for i, s := range stmts {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%d", s.Index)
	}
	return out
}
