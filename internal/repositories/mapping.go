package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/shared"
)

// MappingRepository persists [models.Mapping] rows keyed by source track id.
//
// The sync loop consults it before every search; a stored mapping wins over
// search results unconditionally.
type MappingRepository struct {
	db *sql.DB
}

// NewMappingRepository creates a MappingRepository with the given database connection
func NewMappingRepository(db *sql.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// Put stores the mapping, replacing any existing mapping for the same source
// track. Replacement keeps the original row id and sequence.
func (r *MappingRepository) Put(mapping *models.Mapping) error {
	existing, err := r.GetBySourceID(mapping.SourceID())
	if err != nil && !errors.Is(err, shared.ErrTrackNotFound) {
		return err
	}

	if existing != nil {
		query := `
			UPDATE mappings
			SET target_id = ?, source_title = ?, target_title = ?, updated_at = ?
			WHERE source_id = ?
		`
		_, err := r.db.Exec(query,
			mapping.TargetID(),
			mapping.SourceTitle(),
			mapping.TargetTitle(),
			time.Now().UTC(),
			mapping.SourceID(),
		)
		if err != nil {
			return fmt.Errorf("failed to update mapping: %w", err)
		}
		mapping.SetID(existing.ID())
		mapping.SetSequence(existing.Sequence())
		return nil
	}

	sequence, err := NextSequence(r.db, "mappings")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	mapping.SetID(shared.GenerateID())
	mapping.SetSequence(sequence)

	if err := mapping.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO mappings (id, sequence, source_id, target_id, source_title, target_title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		mapping.ID(),
		mapping.Sequence(),
		mapping.SourceID(),
		mapping.TargetID(),
		mapping.SourceTitle(),
		mapping.TargetTitle(),
		mapping.CreatedAt(),
		mapping.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert mapping: %w", err)
	}

	return nil
}

// Get retrieves a mapping by row id.
func (r *MappingRepository) Get(id string) (*models.Mapping, error) {
	query := `
		SELECT id, sequence, source_id, target_id, source_title, target_title, created_at, updated_at
		FROM mappings
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySourceID retrieves the mapping for a source track, or
// [shared.ErrTrackNotFound] when none is stored.
func (r *MappingRepository) GetBySourceID(sourceID string) (*models.Mapping, error) {
	query := `
		SELECT id, sequence, source_id, target_id, source_title, target_title, created_at, updated_at
		FROM mappings
		WHERE source_id = ?
	`
	return r.scanOne(r.db.QueryRow(query, sourceID))
}

// List returns all mappings ordered by sequence.
func (r *MappingRepository) List() ([]*models.Mapping, error) {
	query := `
		SELECT id, sequence, source_id, target_id, source_title, target_title, created_at, updated_at
		FROM mappings
		ORDER BY sequence
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.Mapping
	for rows.Next() {
		mapping, err := scanMapping(rows.Scan)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}

	return mappings, rows.Err()
}

// Delete removes the mapping for a source track.
func (r *MappingRepository) Delete(sourceID string) error {
	result, err := r.db.Exec("DELETE FROM mappings WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no mapping for source %s", shared.ErrTrackNotFound, sourceID)
	}

	return nil
}

// Clear removes all mappings.
func (r *MappingRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM mappings"); err != nil {
		return fmt.Errorf("failed to clear mappings: %w", err)
	}
	return nil
}

func (r *MappingRepository) scanOne(row *sql.Row) (*models.Mapping, error) {
	mapping, err := scanMapping(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: mapping", shared.ErrTrackNotFound)
	}
	return mapping, err
}

func scanMapping(scan func(...any) error) (*models.Mapping, error) {
	var (
		id, sourceID, targetID   string
		sourceTitle, targetTitle string
		sequence                 int
		createdAt, updatedAt     time.Time
	)

	err := scan(&id, &sequence, &sourceID, &targetID, &sourceTitle, &targetTitle, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan mapping: %w", err)
	}

	return models.RestoreMapping(id, sequence, sourceID, targetID, sourceTitle, targetTitle, createdAt, updatedAt), nil
}
