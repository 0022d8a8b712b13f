package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ramc/internal/lvm"
)

// BuildInfo describes one compile run.
type BuildInfo struct {
	Name     string // program display name
	Source   string // source path, or "-" for stdin
	Parallel string // parallel strategy used for lowering
}

// Build is a recorded compile run.
type Build struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	ProgramID string `json:"program_id"`
	Source    string `json:"source"`
	Parallel  string `json:"parallel"`
}

// SaveProgram stores p and records a build for it.
//
// The program row is keyed by its content id and inserted with
// ON CONFLICT(id) DO NOTHING, so an identical program keeps its first seq and
// name. The build row is always new.
func (s *Store) SaveProgram(ctx context.Context, p *lvm.Program, info BuildInfo) (Build, error) {
	data, err := lvm.MarshalProgram(p)
	if err != nil {
		return Build{}, fmt.Errorf("save program: %w", err)
	}
	id, err := lvm.ProgramID(p)
	if err != nil {
		return Build{}, fmt.Errorf("save program: %w", err)
	}
	buildID, err := s.buildID()
	if err != nil {
		return Build{}, fmt.Errorf("build id: %w", err)
	}
	compressed := s.enc.EncodeAll(data, nil)

	words := len(p.Main)
	for _, code := range p.Subroutines {
		words += len(code)
	}
	relations := 0
	if p.Relations != nil {
		relations = p.Relations.Len()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	programSeq, err := nextSeq(ctx, tx, "programs")
	if err != nil {
		return Build{}, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO programs (id, seq, name, relations, words, subroutines, raw_size, encoding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, programSeq, info.Name, relations, words, len(p.Subroutines), len(data), compressed)
	if err != nil {
		return Build{}, fmt.Errorf("write program: %w", err)
	}

	build := Build{
		ID:        buildID.String(),
		ProgramID: id,
		Source:    info.Source,
		Parallel:  info.Parallel,
	}
	build.Seq, err = nextSeq(ctx, tx, "builds")
	if err != nil {
		return Build{}, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, seq, program_id, source, parallel)
		VALUES (?, ?, ?, ?, ?)
	`, build.ID, build.Seq, build.ProgramID, build.Source, build.Parallel)
	if err != nil {
		return Build{}, fmt.Errorf("write build: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Build{}, fmt.Errorf("commit: %w", err)
	}
	return build, nil
}

// nextSeq returns the next logical sequence number of table. Callers hold
// the single write connection inside a transaction.
func nextSeq(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var seq int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) + 1 FROM %s", table)
	if err := tx.QueryRowContext(ctx, query).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next %s seq: %w", table, err)
	}
	return seq, nil
}
