package store

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS interview_records (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	overall_score REAL NOT NULL,
	created_at DATETIME NOT NULL,
	qa_pairs TEXT NOT NULL,
	detailed_scores TEXT NOT NULL
);
`

type SortKey string

const (
	SortByScore     SortKey = "score"
	SortByName      SortKey = "name"
	SortByTimestamp SortKey = "timestamp"
)

// Results is the durable list of completed interviews. Persistence is
// best-effort sqlite: open or load failure degrades to an empty
// in-memory store, and write failures are logged, never surfaced.
type Results struct {
	db     *sql.DB
	logger *log.Logger

	mu      sync.Mutex
	records []InterviewRecord
}

// Open loads the record list from path. It never fails: when the
// database cannot be opened or read, the store starts empty and keeps
// working in memory only.
func Open(path string, logger *log.Logger) *Results {
	r := &Results{logger: logger}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logger.Error("open result store", "error", err)
		return r
	}

	if _, err := db.Exec(schema); err != nil {
		logger.Error("initialize result store", "error", err)
		db.Close()
		return r
	}

	r.db = db
	r.load()
	return r
}

func (r *Results) load() {
	rows, err := r.db.Query(`
		SELECT id, name, email, position, overall_score, created_at,
		       qa_pairs, detailed_scores
		FROM interview_records ORDER BY rowid`)
	if err != nil {
		r.logger.Error("load result store", "error", err)
		return
	}
	defer rows.Close()

	var loaded []InterviewRecord
	for rows.Next() {
		var rec InterviewRecord
		var qaPairs, detailedScores string
		err := rows.Scan(
			&rec.ID,
			&rec.Candidate.Name,
			&rec.Candidate.Email,
			&rec.Candidate.Position,
			&rec.OverallScore,
			&rec.Timestamp,
			&qaPairs,
			&detailedScores,
		)
		if err != nil {
			r.logger.Error("load result store", "error", err)
			return
		}
		if err := json.Unmarshal([]byte(qaPairs), &rec.QAPairs); err != nil {
			r.logger.Error("load result store", "error", err)
			return
		}
		if err := json.Unmarshal([]byte(detailedScores), &rec.DetailedScores); err != nil {
			r.logger.Error("load result store", "error", err)
			return
		}
		loaded = append(loaded, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("load result store", "error", err)
		return
	}

	r.records = loaded
}

// Append adds one record to the end of the current order and persists it
// best-effort.
func (r *Results) Append(rec InterviewRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	if r.db == nil {
		return
	}

	qaPairs, err := json.Marshal(rec.QAPairs)
	if err != nil {
		r.logger.Error("save record", "error", err)
		return
	}
	detailedScores, err := json.Marshal(rec.DetailedScores)
	if err != nil {
		r.logger.Error("save record", "error", err)
		return
	}

	_, err = r.db.Exec(`
		INSERT INTO interview_records
			(id, name, email, position, overall_score, created_at,
			 qa_pairs, detailed_scores)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Candidate.Name,
		rec.Candidate.Email,
		rec.Candidate.Position,
		rec.OverallScore,
		rec.Timestamp,
		string(qaPairs),
		string(detailedScores),
	)
	if err != nil {
		r.logger.Error("save record", "error", err)
	}
}

// All returns a copy of the records in their current sort order.
func (r *Results) All() []InterviewRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]InterviewRecord(nil), r.records...)
}

func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// SortBy re-sorts the store in place. Ties keep their previous relative
// order. Unknown keys leave the order untouched.
func (r *Results) SortBy(key SortKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch key {
	case SortByScore:
		sort.SliceStable(r.records, func(i, j int) bool {
			return r.records[i].OverallScore > r.records[j].OverallScore
		})
	case SortByName:
		sort.SliceStable(r.records, func(i, j int) bool {
			return r.records[i].Candidate.Name < r.records[j].Candidate.Name
		})
	case SortByTimestamp:
		sort.SliceStable(r.records, func(i, j int) bool {
			return r.records[i].Timestamp.After(r.records[j].Timestamp)
		})
	}
}

// DeleteAt removes the record at the given position in the current sort
// order. Out-of-range indices are a silent no-op.
func (r *Results) DeleteAt(index int) {
	r.mu.Lock()
	if index < 0 || index >= len(r.records) {
		r.mu.Unlock()
		return
	}
	id := r.records[index].ID
	r.records = append(r.records[:index], r.records[index+1:]...)
	r.mu.Unlock()

	if r.db == nil {
		return
	}
	if _, err := r.db.Exec(
		`DELETE FROM interview_records WHERE id = ?`, id,
	); err != nil {
		r.logger.Error("delete record", "error", err)
	}
}

// ExportCSV writes the current sort order as comma-separated rows.
func (r *Results) ExportCSV(w io.Writer) error {
	records := r.All()

	cw := csv.NewWriter(w)
	header := []string{"Name", "Email", "Position", "Overall Score", "Interview Date"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Candidate.Name,
			rec.Candidate.Email,
			rec.Candidate.Position,
			strconv.FormatFloat(rec.OverallScore, 'f', -1, 64),
			rec.Timestamp.Format("2006-01-02"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (r *Results) Close() {
	if r.db != nil {
		r.db.Close()
	}
}
