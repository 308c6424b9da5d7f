package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UpsertSection writes generated content for one section at a fixed position
// on a tenant's page, replacing any previous content for that slot.
func (db *DB) UpsertSection(ctx context.Context, tenantID uuid.UUID, pageName, sectionType string, content []byte, position int) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO site_sections (tenant_id, page_name, section_type, content, position)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tenant_id, page_name, section_type)
		 DO UPDATE SET content = $4, position = $5, updated_at = NOW()`,
		tenantID, pageName, sectionType, content, position,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert section %s: %w", sectionType, err)
	}
	return nil
}

// ListSections returns a tenant's sections for one page, ordered by position.
func (db *DB) ListSections(ctx context.Context, tenantID uuid.UUID, pageName string) ([]SiteSection, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, tenant_id, page_name, section_type, content, position, created_at, updated_at
		 FROM site_sections
		 WHERE tenant_id = $1 AND page_name = $2
		 ORDER BY position ASC`,
		tenantID, pageName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []SiteSection
	for rows.Next() {
		var s SiteSection
		if err := rows.Scan(&s.ID, &s.TenantID, &s.PageName, &s.SectionType, &s.Content, &s.Position, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, nil
}
