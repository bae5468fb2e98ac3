package identity

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/randomouscrap98/wordgrid/utils"
)

const (
	DatabaseVersion = "1"
	TimeFormat      = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

type UserAccount struct {
	Uid               int64  `json:"uid" db:"uid"`
	Username          string `json:"username" db:"username"`
	Email             string `json:"email" db:"email"`
	PasswordHash      string `json:"-" db:"password_hash"`
	FullName          string `json:"fullName" db:"full_name"`
	BirthDate         string `json:"birthDate" db:"birth_date"` // "2006-01-02" or empty
	Occupation        string `json:"occupation" db:"occupation"`
	Phone             string `json:"phone" db:"phone"`
	Status            string `json:"status" db:"status"`
	PublicPuzzleCount int64  `json:"publicPuzzleCount" db:"public_puzzle_count"`
	Created           string `json:"createdAt" db:"created"`
	Updated           string `json:"updatedAt" db:"updated"`
	LastLogin         string `json:"lastLoginAt" db:"last_login"`
}

// The name puzzles carry as the author snapshot: full name when the profile
// has one, username otherwise.
func (u *UserAccount) DisplayName() string {
	return utils.StrGetOrDefault(&u.FullName, u.Username)
}

// Which profile fields still need filling before authoring/playing opens up
func (u *UserAccount) MissingProfileFields() []string {
	missing := make([]string, 0)
	if u.FullName == "" {
		missing = append(missing, "fullName")
	}
	if u.BirthDate == "" {
		missing = append(missing, "birthDate")
	}
	if u.Occupation == "" {
		missing = append(missing, "occupation")
	}
	if u.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

func (u *UserAccount) ProfileComplete() bool {
	return len(u.MissingProfileFields()) == 0
}

// A leaderboard row: author plus their public finalized puzzle count.
type AuthorRank struct {
	Uid               int64  `json:"uid" db:"uid"`
	Username          string `json:"username" db:"username"`
	FullName          string `json:"fullName" db:"full_name"`
	PublicPuzzleCount int64  `json:"publicPuzzleCount" db:"public_puzzle_count"`
	Created           string `json:"createdAt" db:"created"`
}

type resetCode struct {
	Id      string `db:"id"`
	Uid     int64  `db:"uid"`
	Code    string `db:"code"`
	Expires string `db:"expires"`
	Used    bool   `db:"used"`
}

func createTables(db *sqlx.DB) error {
	allSql := []string{
		`create table if not exists users (
      uid integer primary key,
      username text not null unique,
      email text not null unique,
      password_hash text not null,
      full_name text not null default '',
      birth_date text not null default '',
      occupation text not null default '',
      phone text not null default '',
      status text not null default 'active',
      public_puzzle_count integer not null default 0,
      created text not null,
      updated text not null,
      last_login text not null
    );`,
		`create index if not exists idx_users_count on users(public_puzzle_count);`,
		`create table if not exists reset_codes (
      id text primary key,
      uid integer not null,
      code text not null,
      expires text not null,
      used integer not null default 0
    );`,
		`create index if not exists idx_reset_uid on reset_codes(uid);`,
	}
	return utils.CreateTables_VersionedDb(allSql, db, DatabaseVersion)
}

func now() string {
	return time.Now().UTC().Format(TimeFormat)
}

func (ictx *IdentityContext) GetUserById(uid int64) (*UserAccount, error) {
	var user UserAccount
	err := ictx.db.Get(&user, "select * from users where uid = ?", uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ictx *IdentityContext) GetUserByUsername(username string) (*UserAccount, error) {
	var user UserAccount
	err := ictx.db.Get(&user, "select * from users where username = ?", username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ictx *IdentityContext) GetUserByEmail(email string) (*UserAccount, error) {
	var user UserAccount
	err := ictx.db.Get(&user, "select * from users where email = ?", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ictx *IdentityContext) insertUser(username string, email string, hash string) (int64, error) {
	ts := now()
	result, err := ictx.db.Exec(`insert into users
    (username, email, password_hash, created, updated, last_login)
    values (?, ?, ?, ?, ?, ?)`, username, email, hash, ts, ts, ts)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (ictx *IdentityContext) updateLastLogin(uid int64) error {
	_, err := ictx.db.Exec("update users set last_login = ? where uid = ?", now(), uid)
	return err
}

func (ictx *IdentityContext) updatePasswordHash(uid int64, hash string) error {
	_, err := ictx.db.Exec("update users set password_hash = ?, updated = ? where uid = ?",
		hash, now(), uid)
	return err
}

// Replace every author's denormalized public puzzle count with the freshly
// recomputed set. Authors not in the map go back to zero, so a re-run with
// no intervening writes is a no-op.
func (ictx *IdentityContext) SetPublicCounts(counts map[int64]int64) error {
	tx, err := ictx.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if len(counts) == 0 {
		_, err = tx.Exec("update users set public_puzzle_count = 0 where public_puzzle_count != 0")
		if err != nil {
			return err
		}
		return tx.Commit()
	}
	uids := make([]int64, 0, len(counts))
	for uid := range counts {
		uids = append(uids, uid)
	}
	_, err = tx.Exec(fmt.Sprintf(
		"update users set public_puzzle_count = 0 where public_puzzle_count != 0 and uid not in (%s)",
		utils.SliceToPlaceholder(uids)), utils.SliceToAny(uids)...)
	if err != nil {
		return err
	}
	for uid, count := range counts {
		_, err = tx.Exec("update users set public_puzzle_count = ? where uid = ?", count, uid)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Top n authors by public puzzle count, ties broken by earliest account
// creation (then uid, so the ordering is fully deterministic).
func (ictx *IdentityContext) TopAuthors(n int) ([]AuthorRank, error) {
	result := make([]AuthorRank, 0)
	err := ictx.db.Select(&result, `select uid, username, full_name, public_puzzle_count, created
    from users where public_puzzle_count > 0
    order by public_puzzle_count desc, created asc, uid asc limit ?`, n)
	return result, err
}
