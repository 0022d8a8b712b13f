package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ramc/internal/lvm"
)

var (
	// ErrNotFound is returned when no stored program matches an id.
	ErrNotFound = errors.New("program not found")
	// ErrAmbiguousID is returned when an id prefix matches several programs.
	ErrAmbiguousID = errors.New("ambiguous program id")
)

// ProgramInfo is the summary row of a stored program.
type ProgramInfo struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Name        string `json:"name"`
	Relations   int    `json:"relations"`
	Words       int    `json:"words"`
	Subroutines int    `json:"subroutines"`
	RawSize     int    `json:"raw_size"`
	StoredSize  int    `json:"stored_size"`
}

const programColumns = `id, seq, name, relations, words, subroutines, raw_size, length(encoding)`

// ResolveID expands an id prefix to the full content id.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM programs
		WHERE substr(id, 1, ?) = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 2
	`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("query program id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan program id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate program ids: %w", err)
	}

	switch {
	case prefix == "" || len(ids) == 0:
		return "", fmt.Errorf("%w: %q", ErrNotFound, prefix)
	case len(ids) > 1:
		return "", fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
	}
	return ids[0], nil
}

// LoadProgram returns the stored program with the given id or unique id
// prefix. The decoded program is checked against its content id.
func (s *Store) LoadProgram(ctx context.Context, id string) (*lvm.Program, ProgramInfo, error) {
	full, err := s.ResolveID(ctx, id)
	if err != nil {
		return nil, ProgramInfo{}, err
	}

	var info ProgramInfo
	var compressed []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT `+programColumns+`, encoding FROM programs WHERE id = ?
	`, full).Scan(&info.ID, &info.Seq, &info.Name, &info.Relations, &info.Words,
		&info.Subroutines, &info.RawSize, &info.StoredSize, &compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ProgramInfo{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, ProgramInfo{}, fmt.Errorf("query program: %w", err)
	}

	data, err := s.dec.DecodeAll(compressed, make([]byte, 0, info.RawSize))
	if err != nil {
		return nil, ProgramInfo{}, fmt.Errorf("decompress program %s: %w", full, err)
	}
	p, err := lvm.UnmarshalProgram(data)
	if err != nil {
		return nil, ProgramInfo{}, fmt.Errorf("decode program %s: %w", full, err)
	}
	got, err := lvm.ProgramID(p)
	if err != nil {
		return nil, ProgramInfo{}, fmt.Errorf("program %s: %w", full, err)
	}
	if got != full {
		return nil, ProgramInfo{}, fmt.Errorf("program %s: content hashes to %s", full, got)
	}
	return p, info, nil
}

// ListPrograms returns every stored program in seq order.
//
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListPrograms(ctx context.Context) ([]ProgramInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+programColumns+`
		FROM programs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	programs := []ProgramInfo{}
	for rows.Next() {
		var info ProgramInfo
		if err := rows.Scan(&info.ID, &info.Seq, &info.Name, &info.Relations, &info.Words,
			&info.Subroutines, &info.RawSize, &info.StoredSize); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

// ListBuilds returns the builds that produced programID in seq order.
func (s *Store) ListBuilds(ctx context.Context, programID string) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, program_id, source, parallel
		FROM builds
		WHERE program_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, programID)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.Seq, &b.ProgramID, &b.Source, &b.Parallel); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}
