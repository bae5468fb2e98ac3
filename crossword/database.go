package crossword

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/randomouscrap98/wordgrid/utils"
)

const (
	DatabaseVersion = "1"
	TimeFormat      = "2006-01-02 15:04:05" // Don't bother with the milliseconds
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// One horizontal clue: the prompt the player sees and the answer they're
// trying to fill in. Length is ALWAYS recomputed from the answer on write,
// never trusted from input.
type ClueEntry struct {
	Number         int    `json:"questionNumber"`
	Prompt         string `json:"questionContent"`
	Answer         string `json:"answer"`
	ColumnPosition int    `json:"columnPosition"`
	Length         int    `json:"numberOfCharacters"`
}

// The vertical keyword plus its associated horizontal clues
type MainEntry struct {
	Keyword string      `json:"keyword"`
	Clues   []ClueEntry `json:"associatedHorizontalKeywords"`
}

type Puzzle struct {
	Id              string `json:"id" db:"id"`
	Title           string `json:"title" db:"title"`
	AuthorId        int64  `json:"author" db:"author_id"`
	AuthorName      string `json:"authorName" db:"author_name"`
	Visibility      string `json:"visibility" db:"visibility"`
	Subject         string `json:"subject" db:"subject"`
	GradeLevel      string `json:"gradeLevel" db:"grade_level"`
	PlayCount       int64  `json:"timesPlayed" db:"play_count"`
	CompletionCount int64  `json:"completionCount" db:"completion_count"`
	Finalized       bool   `json:"isFinalized" db:"finalized"`
	Created         string `json:"createdAt" db:"created"`
	Updated         string `json:"updatedAt" db:"updated"`

	// The main entries are stored as a json document column; RawEntries is
	// what actually round trips through the database.
	Entries    []MainEntry `json:"mainKeyword" db:"-"`
	RawEntries string      `json:"-" db:"entries"`
}

func (p *Puzzle) QuestionCount() int {
	count := 0
	for i := range p.Entries {
		count += len(p.Entries[i].Clues)
	}
	return count
}

func (p *Puzzle) packEntries() error {
	if p.Entries == nil {
		p.Entries = make([]MainEntry, 0)
	}
	raw, err := json.Marshal(p.Entries)
	if err != nil {
		return err
	}
	p.RawEntries = string(raw)
	return nil
}

func (p *Puzzle) unpackEntries() error {
	if p.RawEntries == "" {
		p.Entries = make([]MainEntry, 0)
		return nil
	}
	return json.Unmarshal([]byte(p.RawEntries), &p.Entries)
}

// The durable puzzle store. Holds plaintext answers at rest; obfuscation
// happens at delivery time only.
type Store struct {
	db *sqlx.DB
}

func createTables(db *sqlx.DB) error {
	allSql := []string{
		`create table if not exists puzzles (
      id text primary key,
      title text not null,
      author_id integer not null,
      author_name text not null,
      visibility text not null,
      subject text not null,
      grade_level text not null,
      play_count integer not null default 0,
      completion_count integer not null default 0,
      finalized integer not null default 0,
      entries text not null default '[]',
      created text not null,
      updated text not null
    );`,
		`create unique index if not exists idx_puzzles_title on puzzles(lower(title));`,
		`create index if not exists idx_puzzles_author on puzzles(author_id);`,
		`create index if not exists idx_puzzles_search on puzzles(subject, grade_level);`,
		`create table if not exists completions (
      puzzle_id text not null,
      user_id integer not null,
      completed_at text not null,
      primary key (puzzle_id, user_id)
    );`,
	}
	return utils.CreateTables_VersionedDb(allSql, db, DatabaseVersion)
}

func NewStore(dbpath string) (*Store, error) {
	db, err := utils.OpenSqlite(dbpath)
	if err != nil {
		return nil, err
	}
	err = createTables(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	err = utils.VerifyVersionedDb(db, DatabaseVersion)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// The filter surface for listings and counts. Zero values mean "don't care".
type PuzzleFilter struct {
	Search        string // case-insensitive substring over title + author name
	Subject       string // exact match
	GradeLevel    string // exact match
	AuthorId      int64
	PublicOnly    bool
	FinalizedOnly bool
}

func (f *PuzzleFilter) whereClause() (string, []any) {
	clauses := []string{"1=1"}
	args := make([]any, 0)
	if f.PublicOnly {
		clauses = append(clauses, "visibility = ?")
		args = append(args, VisibilityPublic)
	}
	if f.FinalizedOnly {
		clauses = append(clauses, "finalized = 1")
	}
	if f.AuthorId != 0 {
		clauses = append(clauses, "author_id = ?")
		args = append(args, f.AuthorId)
	}
	if f.Subject != "" {
		clauses = append(clauses, "subject = ?")
		args = append(args, f.Subject)
	}
	if f.GradeLevel != "" {
		clauses = append(clauses, "grade_level = ?")
		args = append(args, f.GradeLevel)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		clauses = append(clauses, "(lower(title) like ? or lower(author_name) like ?)")
		args = append(args, pattern, pattern)
	}
	return strings.Join(clauses, " and "), args
}

// Find a single puzzle. A missing puzzle is (nil, nil), not an error.
func (s *Store) FindById(id string) (*Puzzle, error) {
	var p Puzzle
	err := s.db.Get(&p, "select * from puzzles where id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	err = p.unpackEntries()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Find many puzzles ordered newest-updated first (stable tie break on id).
func (s *Store) FindMany(filter *PuzzleFilter, skip int, limit int) ([]Puzzle, error) {
	where, args := filter.whereClause()
	args = append(args, limit, skip)
	result := make([]Puzzle, 0)
	err := s.db.Select(&result, fmt.Sprintf(
		"select * from puzzles where %s order by updated desc, id limit ? offset ?", where), args...)
	if err != nil {
		return nil, err
	}
	for i := range result {
		err = result[i].unpackEntries()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) CountDocuments(filter *PuzzleFilter) (int64, error) {
	where, args := filter.whereClause()
	var count int64
	err := s.db.Get(&count, fmt.Sprintf("select count(*) from puzzles where %s", where), args...)
	return count, err
}

// Pull up to n random puzzles matching the filter.
func (s *Store) AggregateRandomSample(filter *PuzzleFilter, n int) ([]Puzzle, error) {
	where, args := filter.whereClause()
	args = append(args, n)
	result := make([]Puzzle, 0)
	err := s.db.Select(&result, fmt.Sprintf(
		"select * from puzzles where %s order by random() limit ?", where), args...)
	if err != nil {
		return nil, err
	}
	for i := range result {
		err = result[i].unpackEntries()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Check whether some OTHER puzzle already holds this title (case-insensitive).
func (s *Store) TitleExists(title string, excludeId string) (bool, error) {
	var count int64
	err := s.db.Get(&count,
		"select count(*) from puzzles where lower(title) = lower(?) and id != ?",
		title, excludeId)
	return count > 0, err
}

func (s *Store) Insert(p *Puzzle) error {
	now := time.Now().UTC().Format(TimeFormat)
	p.Created = now
	p.Updated = now
	err := p.packEntries()
	if err != nil {
		return err
	}
	_, err = s.db.NamedExec(`insert into puzzles
    (id, title, author_id, author_name, visibility, subject, grade_level,
     play_count, completion_count, finalized, entries, created, updated)
    values (:id, :title, :author_id, :author_name, :visibility, :subject, :grade_level,
     :play_count, :completion_count, :finalized, :entries, :created, :updated)`, p)
	return err
}

// Whole-document update (last write wins; single-author editing assumption).
// Counters are NOT written here, they have their own atomic updates.
func (s *Store) Update(p *Puzzle) error {
	p.Updated = time.Now().UTC().Format(TimeFormat)
	err := p.packEntries()
	if err != nil {
		return err
	}
	_, err = s.db.NamedExec(`update puzzles set
    title = :title, author_name = :author_name, visibility = :visibility,
    subject = :subject, grade_level = :grade_level, finalized = :finalized,
    entries = :entries, updated = :updated
    where id = :id`, p)
	return err
}

// Hard delete, owner only. Returns whether anything was actually removed.
func (s *Store) Delete(id string, authorId int64) (bool, error) {
	result, err := s.db.Exec("delete from puzzles where id = ? and author_id = ?", id, authorId)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	_, err = s.db.Exec("delete from completions where puzzle_id = ?", id)
	return true, err
}

// Single-field atomic increment; advisory telemetry, not exactly-once.
func (s *Store) IncrementPlayCount(id string) error {
	_, err := s.db.Exec("update puzzles set play_count = play_count + 1 where id = ?", id)
	return err
}

func (s *Store) HasCompletion(puzzleId string, userId int64) (bool, error) {
	var count int64
	err := s.db.Get(&count,
		"select count(*) from completions where puzzle_id = ? and user_id = ?",
		puzzleId, userId)
	return count > 0, err
}

// Append the completion record if (and only if) one doesn't exist yet.
// The primary key is the idempotency check right before commit; returns
// whether the record was actually inserted.
func (s *Store) AppendCompletion(puzzleId string, userId int64) (bool, error) {
	result, err := s.db.Exec(
		"insert or ignore into completions (puzzle_id, user_id, completed_at) values (?, ?, ?)",
		puzzleId, userId, time.Now().UTC().Format(TimeFormat))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		_, err = s.db.Exec(
			"update puzzles set completion_count = completion_count + 1 where id = ?", puzzleId)
		if err != nil {
			return true, err
		}
	}
	return affected > 0, nil
}

// Count public AND finalized puzzles per author. Used for the full
// leaderboard recompute, so it never looks at the denormalized counters.
func (s *Store) PublicCountsByAuthor() (map[int64]int64, error) {
	rows, err := s.db.Query(
		"select author_id, count(*) from puzzles where visibility = ? and finalized = 1 group by author_id",
		VisibilityPublic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int64]int64)
	for rows.Next() {
		var author, count int64
		err = rows.Scan(&author, &count)
		if err != nil {
			return nil, err
		}
		result[author] = count
	}
	return result, rows.Err()
}

// Fan the author's new display name out over all their puzzles. Called when
// a profile rename happens; an explicit projection update, not a trigger.
func (s *Store) UpdateAuthorName(authorId int64, name string) error {
	_, err := s.db.Exec("update puzzles set author_name = ? where author_id = ?", name, authorId)
	return err
}
