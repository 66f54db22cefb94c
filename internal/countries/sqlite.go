// internal/countries/sqlite.go
//
// SQLite-backed dataset source.
// Responsibilities:
//   - Opening SQLite database with safe defaults (WAL, busy timeout).
//   - Applying migrations from the embedded sql/*.sql (idempotent, recorded in _migrations).
//   - Seeding the countries table from a JSON source when it is empty.
//   - Reading the table back into a Dataset, ordered by position.

package countries

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed sql/*.sql
var migrations embed.FS

// SQLiteSource loads the dataset from the countries table at Path.
// An empty table is first filled from Seed.
type SQLiteSource struct {
	Path string
	Seed Source
}

func (s SQLiteSource) String() string { return "sqlite:" + s.Path }

func (s SQLiteSource) Load(ctx context.Context) (*Dataset, error) {
	db, err := OpenDB(s.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		return nil, err
	}
	n, err := countRows(ctx, db)
	if err != nil {
		return nil, err
	}
	if n == 0 && s.Seed != nil {
		seed, err := s.Seed.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load seed: %w", err)
		}
		if err := InsertAll(ctx, db, seed); err != nil {
			return nil, err
		}
		log.Info().Str("seed", s.Seed.String()).Int("countries", seed.Len()).Msg("seeded countries table")
	}
	return LoadTable(ctx, db)
}

// OpenDB opens (and creates if missing) a SQLite database file.
//
//   - Ensures parent directory exists for relative DSNs (e.g. ./data/countries.db).
//   - Configures busy timeout and WAL journaling mode.
func OpenDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded sql/*.sql files in lexical order.
// Applied files are recorded in _migrations and skipped on later runs.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	var files []string
	if err := fs.WalkDir(migrations, "sql", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk sql dir: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

func countRows(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM countries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count countries: %w", err)
	}
	return n, nil
}

// InsertAll writes every country of ds into the countries table in one transaction.
// Existing rows with the same name are replaced.
func InsertAll(ctx context.Context, db *sql.DB, ds *Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT OR REPLACE INTO countries
            (position, name, population, pop_density, gdp, continent, first_language,
             is_landlocked, is_un_member, is_commonwealth_member, is_eu_member, is_nato_member,
             is_african_union_member, is_islamic_cooperation_member, is_irena_member,
             is_icc_member, is_non_aligned_member, extra)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range ds.Entries() {
		c := e.Country
		extra := []byte("{}")
		if len(c.Extra) > 0 {
			if extra, err = json.Marshal(c.Extra); err != nil {
				return fmt.Errorf("encode extra for %q: %w", e.Name, err)
			}
		}
		if _, err := stmt.ExecContext(ctx,
			i, e.Name, c.Population, c.PopDensity, c.GDP, c.Continent, c.FirstLanguage,
			c.IsLandlocked, c.IsUnMember, c.IsCommonwealthMember, c.IsEuMember, c.IsNatoMember,
			c.IsAfricanUnionMember, c.IsIslamicCooperationMember, c.IsIrenaMember,
			c.IsIccMember, c.IsNonAlignedMember, string(extra),
		); err != nil {
			return fmt.Errorf("insert %q: %w", e.Name, err)
		}
	}
	return tx.Commit()
}

// LoadTable reads the countries table into a Dataset ordered by position.
func LoadTable(ctx context.Context, db *sql.DB) (*Dataset, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT name, population, pop_density, gdp, continent, first_language,
               is_landlocked, is_un_member, is_commonwealth_member, is_eu_member, is_nato_member,
               is_african_union_member, is_islamic_cooperation_member, is_irena_member,
               is_icc_member, is_non_aligned_member, extra
        FROM countries
        ORDER BY position ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			extra string
		)
		c := &e.Country
		if err := rows.Scan(&e.Name, &c.Population, &c.PopDensity, &c.GDP, &c.Continent, &c.FirstLanguage,
			&c.IsLandlocked, &c.IsUnMember, &c.IsCommonwealthMember, &c.IsEuMember, &c.IsNatoMember,
			&c.IsAfricanUnionMember, &c.IsIslamicCooperationMember, &c.IsIrenaMember,
			&c.IsIccMember, &c.IsNonAlignedMember, &extra); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		if extra != "" && extra != "{}" {
			if err := json.Unmarshal([]byte(extra), &c.Extra); err != nil {
				log.Warn().Err(err).Str("country", e.Name).Msg("ignoring malformed extra attributes")
				c.Extra = nil
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDataset
	}
	return NewDataset(entries), nil
}
